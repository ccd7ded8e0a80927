package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/common"
)

// Options configures a house-ctl invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// User and Password are sent as basic credentials when User is set.
	User     string
	Password string

	// Out receives the YAML output.
	Out io.Writer
}

// ErrBadAssignment is returned for a set argument that is not key=value.
var ErrBadAssignment = errors.New("expected key=value")

// ListHouses prints the houses managed by the server.
func ListHouses(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(ctx context.Context, c *common.Client) error {
		houses, err := c.ListHouses(ctx)
		if err != nil {
			return err
		}

		return printYAML(opts.Out, map[string]any{"houses": houses})
	})
}

// GetState prints the current state of a house.
func GetState(ctx context.Context, opts *Options, house string) error {
	return withClient(ctx, opts, func(ctx context.Context, c *common.Client) error {
		resp, err := c.GetState(ctx, house)
		if err != nil {
			return err
		}

		return printYAML(opts.Out, resp)
	})
}

// SetState sends key=value assignments to a house and prints the evaluated state.
func SetState(ctx context.Context, opts *Options, house string, assignments []string) error {
	command, err := ParseAssignments(assignments)
	if err != nil {
		return err
	}

	return withClient(ctx, opts, func(ctx context.Context, c *common.Client) error {
		logger.DebugKV(ctx, "Sending command", "house", house, "command", command)

		resp, err := c.SetState(ctx, house, command)
		if err != nil {
			return err
		}

		return printYAML(opts.Out, resp)
	})
}

// ParseAssignments converts key=value arguments into a command map.
// Integer values are sent as numbers, everything else as strings.
// Passcode values always stay strings so leading zeros survive.
func ParseAssignments(args []string) (map[string]any, error) {
	command := make(map[string]any, len(args))

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadAssignment, arg)
		}

		if n, err := strconv.Atoi(value); err == nil && !strings.HasSuffix(key, "passcode") {
			command[key] = n
			continue
		}

		command[key] = value
	}

	return command, nil
}

// withClient connects using settings and flags, runs fn and closes the connection.
func withClient(ctx context.Context, opts *Options, fn func(context.Context, *common.Client) error) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "house-ctl")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOptions := []common.Option{
		common.WithCallTimeout(cfg.Timeout),
		common.WithBasicAuth(opts.User, opts.Password),
	}

	// Identify current user and hostname for the server log.
	if actor, err := common.DetectActor(); err == nil {
		clientOptions = append(clientOptions, common.WithActor(actor))
	} else {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress, clientOptions...)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	return fn(ctx, client)
}

func printYAML(w io.Writer, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	_, err = w.Write(out)

	return err
}
