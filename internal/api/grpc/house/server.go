package house

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/smart-home/internal/domain/house"
	"github.com/oshokin/smart-home/internal/logger"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Houses(ctx context.Context) []string
	Snapshot(ctx context.Context, name string) (domain.Snapshot, error)
	Apply(ctx context.Context, name string, overlay domain.State) (domain.Snapshot, error)
}

// Server implements HouseServiceServer.
type Server struct {
	// service provides the business logic.
	service Service
}

// NewServer wires service into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// ListHouses returns the managed house names.
func (s *Server) ListHouses(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	names := s.service.Houses(ctx)

	list := make([]any, 0, len(names))
	for _, n := range names {
		list = append(list, n)
	}

	return toStruct(ctx, map[string]any{"houses": list})
}

// GetState returns the current snapshot of a house.
func (s *Server) GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := houseName(req)
	if err != nil {
		return nil, err
	}

	snap, err := s.service.Snapshot(ctx, name)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return toStruct(ctx, Response(snap))
}

// SetState applies a user command to a house and returns the evaluated snapshot.
func (s *Server) SetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := houseName(req)
	if err != nil {
		return nil, err
	}

	raw := req.GetFields()["state"].GetStructValue()
	if raw == nil {
		return nil, status.Error(codes.InvalidArgument, "state is required")
	}

	cmd, err := DecodeCommand(raw.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	overlay, err := cmd.State()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	snap, err := s.service.Apply(ctx, name, overlay)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return toStruct(ctx, Response(snap))
}

func houseName(req *structpb.Struct) (string, error) {
	if req == nil {
		return "", status.Error(codes.InvalidArgument, "request is required")
	}

	name := req.GetFields()["house"].GetStringValue()
	if name == "" {
		return "", status.Error(codes.InvalidArgument, "house is required")
	}

	return name, nil
}

func toStatus(ctx context.Context, err error) error {
	var decodeErr *domain.DecodeError

	switch {
	case errors.Is(err, domain.ErrHouseNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &decodeErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		logger.ErrorKV(ctx, "House service call failed", "error", err)
		return status.Error(codes.Internal, "unable to process the request")
	}
}

func toStruct(ctx context.Context, m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode response", "error", err)
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return out, nil
}
