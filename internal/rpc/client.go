package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls bmmap.v1.Explorer over conn.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Render(ctx context.Context, userName string, depth int) (*structpb.Struct, error) {
	return c.call(ctx, "Render", map[string]any{"userName": userName, "depth": depth})
}

func (c *Client) Expand(ctx context.Context, userID int) (*structpb.Struct, error) {
	return c.call(ctx, "Expand", map[string]any{"userId": userID})
}

func (c *Client) Reset(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "Reset", nil)
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}
