//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/smart-home/internal/api/grpc/house"
	"github.com/oshokin/smart-home/internal/config"
)

// Client wraps the gRPC HouseService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the house server.
	conn *grpc.ClientConn
	// api is the HouseService client stub.
	api *api.HouseServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// credentials are sent with every call when set.
	credentials *api.BasicCredentials
	// actor is attached to outgoing metadata when set.
	actor string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithBasicAuth sends the given user credentials with every call.
func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		if user != "" {
			c.credentials = &api.BasicCredentials{User: user, Password: password}
		}
	}
}

// WithActor names the caller in the server log.
func WithActor(actor Actor) Option {
	return func(c *Client) {
		c.actor = actor.String()
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errHouseRequired is returned when a house name is not provided but is required for the operation.
	errHouseRequired = errors.New("house must be provided")
)

// Dial establishes a gRPC connection to the house server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if client.credentials != nil {
		dialOptions = append(dialOptions, grpc.WithPerRPCCredentials(*client.credentials))
	}

	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial house server: %w", err)
	}

	client.conn = conn
	client.api = api.NewHouseServiceClient(conn)

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// ListHouses returns the names of the houses managed by the server.
func (c *Client) ListHouses(ctx context.Context) ([]string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListHouses(callCtx, &structpb.Struct{})
	if err != nil {
		return nil, fmt.Errorf("list houses: %w", err)
	}

	values := resp.GetFields()["houses"].GetListValue().GetValues()

	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.GetStringValue())
	}

	return names, nil
}

// GetState retrieves the current snapshot of a house.
func (c *Client) GetState(ctx context.Context, house string) (map[string]any, error) {
	if house == "" {
		return nil, errHouseRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request, err := structpb.NewStruct(map[string]any{"house": house})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.api.GetState(callCtx, request)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	return resp.AsMap(), nil
}

// SetState sends a command to a house and returns the evaluated snapshot.
func (c *Client) SetState(ctx context.Context, house string, command map[string]any) (map[string]any, error) {
	if house == "" {
		return nil, errHouseRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request, err := structpb.NewStruct(map[string]any{
		"house": house,
		"state": command,
	})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.api.SetState(callCtx, request)
	if err != nil {
		return nil, fmt.Errorf("set state: %w", err)
	}

	return resp.AsMap(), nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
// The actor, when known, travels as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.actor != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, c.actor)
	}

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
