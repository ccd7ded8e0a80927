package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/smart-home/internal/logger"
)

const disconnectQuiesceMillis = 250

var (
	// ErrNotConnected is returned when publishing before Connect.
	ErrNotConnected = errors.New("mqtt client not connected")
	// ErrBadTopicRoot is returned for a topic root starting or ending with a slash.
	ErrBadTopicRoot = errors.New("topic root must be relative and not end with a slash")
)

// tokenPublisher is the part of paho.Client used to publish.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// Client publishes events under a topic root.
type Client struct {
	topicRoot string
	opts      *paho.ClientOptions
	client    paho.Client
	publisher tokenPublisher
}

// NewClient prepares a client for brokerURL. Connect must be called before publishing.
func NewClient(brokerURL, clientID, topicRoot string) (*Client, error) {
	if strings.HasPrefix(topicRoot, "/") || strings.HasSuffix(topicRoot, "/") {
		return nil, fmt.Errorf("%w: %q", ErrBadTopicRoot, topicRoot)
	}

	opts := paho.NewClientOptions().AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	return &Client{
		topicRoot: topicRoot,
		opts:      opts,
	}, nil
}

// Connect opens the broker connection.
func (c *Client) Connect(ctx context.Context) error {
	c.client = paho.NewClient(c.opts)

	if err := wait(ctx, c.client.Connect()); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}

	c.publisher = c.client

	logger.InfoKV(ctx, "Connected to MQTT broker", "topic_root", c.topicRoot)

	return nil
}

// Publish sends event as JSON and waits for the broker to accept it.
func (c *Client) Publish(ctx context.Context, event Event) error {
	if c.publisher == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	topic := Topic(c.topicRoot, event.House)

	if err := wait(ctx, c.publisher.Publish(topic, 0, true, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	if c.client == nil {
		return
	}

	c.client.Disconnect(disconnectQuiesceMillis)
}

func wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
