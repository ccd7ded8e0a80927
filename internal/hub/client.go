package hub

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/oshokin/smart-home/internal/domain/house"
)

// ErrClosed is returned by calls on a closed client.
var ErrClosed = errors.New("hub connection is closed")

// Client is a connection to one hub. Calls are serialized: the protocol has
// no request IDs, so a response always belongs to the last request sent.
type Client struct {
	// addr is the hub TCP address, kept for reconnects.
	addr string
	// timeout bounds each exchange when the context has no deadline.
	timeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewClient creates a client that connects on its first call.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		addr:    addr,
		timeout: timeout,
	}
}

// Dial connects to the hub at addr.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	c := NewClient(addr, timeout)

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// Addr returns the hub address.
func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) connect(ctx context.Context) error {
	var dialer net.Dialer

	if c.timeout > 0 {
		dialer.Timeout = c.timeout
	}

	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial hub %s: %w", c.addr, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)

	return nil
}

// GetState asks the hub for its current readings.
func (c *Client) GetState(ctx context.Context) (house.State, error) {
	reply, err := c.exchange(ctx, EncodeGet())
	if err != nil {
		return house.State{}, err
	}

	return DecodeUpdate(reply)
}

// SetState pushes the actuator fields of s to the hub.
func (c *Client) SetState(ctx context.Context, s house.State) error {
	reply, err := c.exchange(ctx, EncodeSet(s))
	if err != nil {
		return err
	}

	kind, _, err := Split(reply)
	if err != nil {
		return err
	}

	if kind != OK {
		return fmt.Errorf("%w: want %s, got %s", ErrUnexpectedResponse, OK, kind)
	}

	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}

// exchange writes one request and reads one line back.
// A broken connection is dropped and re-established on the next call.
func (c *Client) exchange(ctx context.Context, request string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return "", err
		}
	}

	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		return "", c.fail(fmt.Errorf("set deadline: %w", err))
	}

	if _, err := c.conn.Write([]byte(request)); err != nil {
		return "", c.fail(fmt.Errorf("write %s: %w", request[:2], err))
	}

	reply, err := c.reader.ReadString('\n')
	if err != nil {
		return "", c.fail(fmt.Errorf("read reply to %s: %w", request[:2], err))
	}

	return reply, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}

	if c.timeout > 0 {
		return time.Now().Add(c.timeout)
	}

	return time.Time{}
}

func (c *Client) fail(err error) error {
	_ = c.conn.Close()
	c.conn = nil

	return err
}
