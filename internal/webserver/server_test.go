package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/bmmap/internal/bmmap"
	"github.com/psidex/bmmap/internal/config"
	"github.com/psidex/bmmap/internal/display"
	"github.com/psidex/bmmap/internal/display/vis"
	"github.com/psidex/bmmap/internal/display/visws"
	"github.com/psidex/bmmap/internal/graph"
	"github.com/psidex/bmmap/internal/metrics"
)

type harness struct {
	srv     *httptest.Server
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) harness {
	t.Helper()
	g, err := graph.Build(
		[]graph.User{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}},
		[]graph.Edge{{A: 1, B: 2}, {A: 2, B: 3}},
	)
	require.NoError(t, err)
	return newHarnessFor(t, g, 0)
}

// newHarnessFor serves g. A positive wsWriteTimeout replaces the default.
func newHarnessFor(t *testing.T, g *graph.Graph, wsWriteTimeout time.Duration) harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	b := visws.NewBroadcaster(nil)
	exp := bmmap.NewExplorer(nil, g, display.Tee{vis.NewDataSet("test"), b}, m)

	s := New(nil, exp, b, m, reg, "contacts of test")
	if wsWriteTimeout > 0 {
		s.SetWebsocketWriteTimeout(wsWriteTimeout)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return harness{srv: srv, metrics: m}
}

func (h harness) post(t *testing.T, path, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(h.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (h harness) get(t *testing.T, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(h.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestRender(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(t, "/api/render", `{"userName": "A", "depth": 2}`)
	require.Equal(t, http.StatusOK, status, string(body))

	var res bmmap.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 1, res.Root)
	assert.Equal(t, []display.Node{{ID: 1, Label: "A"}, {ID: 2, Label: "B"}, {ID: 3, Label: "C"}}, res.Nodes)
	assert.Equal(t, []display.Edge{{From: 1, To: 2}, {From: 2, To: 3}}, res.Edges)
	assert.Equal(t, 3, res.Displayed)
}

func TestRenderDefaultDepth(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(t, "/api/render", `{"userName": "A"}`)
	require.Equal(t, http.StatusOK, status)

	var res bmmap.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, bmmap.ExpandDepth, res.Depth)
	assert.Len(t, res.Nodes, 2)
}

func TestRenderErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown user", `{"userName": "nobody", "depth": 1}`, http.StatusNotFound},
		{"negative depth", `{"userName": "A", "depth": -1}`, http.StatusBadRequest},
		{"too deep", `{"userName": "A", "depth": 99}`, http.StatusBadRequest},
		{"missing name", `{"depth": 1}`, http.StatusBadRequest},
		{"not json", `userName=A`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := h.post(t, "/api/render", tt.body)
			assert.Equal(t, tt.status, status)

			var e errorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
		})
	}

	// None of the failures rendered anything.
	status, body := h.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, status)
	var stats bmmap.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, bmmap.Stats{Users: 3}, stats)
}

func TestExpandAndReset(t *testing.T) {
	h := newHarness(t)

	status, _ := h.post(t, "/api/render", `{"userName": "A", "depth": 1}`)
	require.Equal(t, http.StatusOK, status)

	status, body := h.post(t, "/api/expand", `{"userId": 2}`)
	require.Equal(t, http.StatusOK, status)
	var res bmmap.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 1, res.NodesAdded)
	assert.Equal(t, []display.Edge{{From: 2, To: 3}}, res.Edges)

	status, body = h.get(t, "/api/display")
	require.Equal(t, http.StatusOK, status)
	var snap snapshotResponse
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.Nodes, 3)
	assert.Equal(t, []display.Edge{{From: 1, To: 2}, {From: 2, To: 3}}, snap.Edges)

	status, body = h.post(t, "/api/reset", "")
	require.Equal(t, http.StatusOK, status)
	var stats bmmap.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, bmmap.Stats{Users: 3}, stats)

	status, body = h.get(t, "/api/display")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Empty(t, snap.Nodes)
}

func TestExpandErrors(t *testing.T) {
	h := newHarness(t)

	status, _ := h.post(t, "/api/expand", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := h.post(t, "/api/expand", `{"userId": 99}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), `no user with id`)
}

func TestPageAndHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	status, body := h.get(t, "/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "<title>contacts of test</title>")
	assert.Contains(t, string(body), "/api/expand")

	status, _ = h.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = h.get(t, "/healthz")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"ok"`)

	h.post(t, "/api/render", `{"userName": "A"}`)
	status, body = h.get(t, "/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `bmmap_renders_total{op="render",result="ok"} 1`)
}

func TestWebsocketFollowsDisplay(t *testing.T) {
	h := newHarness(t)

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg visws.Message
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, visws.TypeInit, msg.Type)
	assert.Empty(t, msg.Nodes)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.WSClients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	h.post(t, "/api/render", `{"userName": "A", "depth": 1}`)
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, visws.TypeInit, msg.Type)
	assert.Equal(t, []display.Node{{ID: 1, Label: "A"}, {ID: 2, Label: "B"}}, msg.Nodes)

	h.post(t, "/api/expand", `{"userId": 2}`)
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, visws.TypeAdd, msg.Type)
	assert.Equal(t, []display.Node{{ID: 3, Label: "C"}}, msg.Nodes)
	assert.Equal(t, []display.Edge{{From: 2, To: 3}}, msg.Edges)

	h.post(t, "/api/reset", "")
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, visws.TypeClear, msg.Type)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.WSClients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketGetsCurrentDisplay(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/api/render", `{"userName": "B", "depth": 1}`)

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg visws.Message
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, visws.TypeInit, msg.Type)
	assert.Len(t, msg.Nodes, 3)
	assert.Len(t, msg.Edges, 2)
}

func TestStalledWebsocketDoesNotBlockRenders(t *testing.T) {
	// A star around user 0 whose names are large enough that one init message
	// overflows the socket buffers of a client that never reads.
	users := []graph.User{{ID: 0, Name: "hub"}}
	var edges []graph.Edge
	for i := 1; i <= 200; i++ {
		users = append(users, graph.User{ID: i, Name: fmt.Sprintf("%d-%s", i, strings.Repeat("x", 1<<16))})
		edges = append(edges, graph.Edge{A: 0, B: i})
	}
	g, err := graph.Build(users, edges)
	require.NoError(t, err)
	h := newHarnessFor(t, g, 100*time.Millisecond)

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.WSClients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 20 && testutil.ToFloat64(h.metrics.WSClients) > 0; i++ {
		start := time.Now()
		status, _ := h.post(t, "/api/render", `{"userName": "hub", "depth": 1}`)
		require.Equal(t, http.StatusOK, status)
		require.Less(t, time.Since(start), 5*time.Second)
		h.post(t, "/api/reset", "")
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.WSClients) == 0
	}, 2*time.Second, 10*time.Millisecond)

	status, body := h.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"users":201`)
}

func TestServeListenerShutsDown(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := config.Default().HTTP
	cfg.MaxConnections = 2

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeListener(ctx, nil, lis, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(w, bytes.NewBufferString("pong"))
		}))
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + lis.Addr().String())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
