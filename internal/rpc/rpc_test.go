package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/psidex/bmmap/internal/bmmap"
	"github.com/psidex/bmmap/internal/display/vis"
	"github.com/psidex/bmmap/internal/graph"
)

func dialService(t *testing.T) *grpc.ClientConn {
	t.Helper()
	g, err := graph.Build(
		[]graph.User{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}},
		[]graph.Edge{{A: 1, B: 2}, {A: 2, B: 3}},
	)
	require.NoError(t, err)
	exp := bmmap.NewExplorer(nil, g, vis.NewDataSet("test"), nil)

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(nil, NewService(nil, exp))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, nil, srv, lis) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRenderExpandReset(t *testing.T) {
	c := NewClient(dialService(t))
	ctx := callCtx(t)

	out, err := c.Render(ctx, "A", 1)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.Fields["root"].GetNumberValue())
	assert.Equal(t, float64(2), out.Fields["displayed"].GetNumberValue())
	assert.Len(t, out.Fields["nodes"].GetListValue().GetValues(), 2)

	out, err = c.Expand(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.Fields["nodesAdded"].GetNumberValue())
	assert.Equal(t, float64(3), out.Fields["displayed"].GetNumberValue())

	edges := out.Fields["edges"].GetListValue().GetValues()
	require.Len(t, edges, 1)
	assert.Equal(t, float64(2), edges[0].GetStructValue().Fields["from"].GetNumberValue())
	assert.Equal(t, float64(3), edges[0].GetStructValue().Fields["to"].GetNumberValue())

	out, err = c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(3), out.Fields["users"].GetNumberValue())
	assert.Equal(t, float64(0), out.Fields["displayed"].GetNumberValue())
}

func TestErrorCodes(t *testing.T) {
	conn := dialService(t)
	c := NewClient(conn)
	ctx := callCtx(t)

	_, err := c.Render(ctx, "nobody", 1)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Render(ctx, "A", -1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Render(ctx, "", 1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Expand(ctx, 42)
	assert.Equal(t, codes.NotFound, status.Code(err))

	in, err := structpb.NewStruct(map[string]any{"userName": "A", "depth": 1.5})
	require.NoError(t, err)
	err = conn.Invoke(ctx, fullMethod("Render"), in, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = conn.Invoke(ctx, fullMethod("Expand"), &structpb.Struct{}, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRenderDefaultDepth(t *testing.T) {
	conn := dialService(t)
	ctx := callCtx(t)

	in, err := structpb.NewStruct(map[string]any{"userName": "C"})
	require.NoError(t, err)
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, fullMethod("Render"), in, out))
	assert.Equal(t, float64(bmmap.ExpandDepth), out.Fields["depth"].GetNumberValue())
}

func TestHealth(t *testing.T) {
	conn := dialService(t)
	ctx := callCtx(t)

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
