package house

import (
	"context"
	"encoding/base64"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/smart-home/internal/domain/latch"
	"github.com/oshokin/smart-home/internal/logger"
)

const (
	authorizationKey = "authorization"
	basicPrefix      = "Basic "

	// ActorMetadataKey carries the requesting user@hostname from the control client.
	ActorMetadataKey = "x-actor"
)

type userKey struct{}

// UserFromContext returns the authenticated user name, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userKey{}).(string)
	return user, ok
}

// BasicAuth returns an interceptor checking basic credentials against users (name to password).
// With no users every call is allowed.
func BasicAuth(users map[string]string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if len(users) == 0 {
			return handler(ctx, req)
		}

		user, password, ok := credentialsFromMetadata(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "basic credentials are required")
		}

		expected, known := users[user]
		if !known || !latch.Match(expected, password) {
			logger.WarnKV(ctx, "Rejected credentials", "user", user, "method", info.FullMethod)
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}

		ctx = context.WithValue(ctx, userKey{}, user)
		ctx = logger.WithKV(ctx, "user", user)

		return handler(ctx, req)
	}
}

// ActorLogging tags the request logger with the caller's actor and method.
func ActorLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.WithKV(ctx, "method", info.FullMethod)

		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if actors := md.Get(ActorMetadataKey); len(actors) > 0 {
				ctx = logger.WithKV(ctx, "actor", actors[0])
			}
		}

		return handler(ctx, req)
	}
}

func credentialsFromMetadata(ctx context.Context) (user, password string, ok bool) {
	md, found := metadata.FromIncomingContext(ctx)
	if !found {
		return "", "", false
	}

	values := md.Get(authorizationKey)
	if len(values) == 0 || !strings.HasPrefix(values[0], basicPrefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(values[0], basicPrefix))
	if err != nil {
		return "", "", false
	}

	return strings.Cut(string(decoded), ":")
}

// BasicCredentials attaches basic credentials to every call.
type BasicCredentials struct {
	User     string
	Password string
}

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (c BasicCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	token := base64.StdEncoding.EncodeToString([]byte(c.User + ":" + c.Password))

	return map[string]string{authorizationKey: basicPrefix + token}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials.
// Credentials travel in clear text; run behind TLS termination on untrusted networks.
func (BasicCredentials) RequireTransportSecurity() bool {
	return false
}
