package house

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/smart-home/internal/domain/house"
)

// fakeService implements the house Service interface for unit testing the transport.
type fakeService struct {
	mu sync.Mutex
	// states holds the current state per house.
	states map[string]domain.State
	// applyErr is returned by Apply when set.
	applyErr error
}

func newFakeService(names ...string) *fakeService {
	states := make(map[string]domain.State, len(names))
	for _, n := range names {
		states[n] = domain.State{}
	}

	return &fakeService{states: states}
}

func (f *fakeService) Houses(context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.states))
	for n := range f.states {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

func (f *fakeService) Snapshot(_ context.Context, name string) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.states[name]
	if !ok {
		return domain.Snapshot{}, domain.ErrHouseNotFound
	}

	return domain.Snapshot{House: name, Connected: true, State: s}, nil
}

func (f *fakeService) Apply(_ context.Context, name string, overlay domain.State) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.applyErr != nil {
		return domain.Snapshot{}, f.applyErr
	}

	s, ok := f.states[name]
	if !ok {
		return domain.Snapshot{}, domain.ErrHouseNotFound
	}

	s = domain.Merge(s, overlay)
	f.states[name] = s

	return domain.Snapshot{House: name, Connected: true, State: s}, nil
}

func request(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()

	s, err := structpb.NewStruct(m)
	require.NoError(t, err)

	return s
}

// TestServer_Validation ensures invalid requests return InvalidArgument errors.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(newFakeService("lake"))
	ctx := context.Background()

	_, err := s.GetState(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.GetState(ctx, request(t, map[string]any{}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetState(ctx, request(t, map[string]any{"house": "lake"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetState(ctx, request(t, map[string]any{
		"house": "lake",
		"state": map[string]any{"door": "ajar"},
	}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_UnknownHouse maps a missing house to NotFound.
func TestServer_UnknownHouse(t *testing.T) {
	t.Parallel()

	s := NewServer(newFakeService("lake"))

	_, err := s.GetState(context.Background(), request(t, map[string]any{"house": "city"}))
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_InternalErrorsAreHidden keeps service failures opaque.
func TestServer_InternalErrorsAreHidden(t *testing.T) {
	t.Parallel()

	svc := newFakeService("lake")
	svc.applyErr = errors.New("hub exploded")

	s := NewServer(svc)

	_, err := s.SetState(context.Background(), request(t, map[string]any{
		"house": "lake",
		"state": map[string]any{"light": "on"},
	}))
	require.Equal(t, codes.Internal, status.Code(err))
	require.NotContains(t, err.Error(), "exploded")
}

// TestServer_Roundtrip exercises SetState, GetState and ListHouses on the server implementation.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	s := NewServer(newFakeService("lake", "city"))
	ctx := context.Background()

	list, err := s.ListHouses(ctx, &structpb.Struct{})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"houses": []any{"city", "lake"}}, list.AsMap())

	_, err = s.SetState(ctx, request(t, map[string]any{
		"house": "lake",
		"state": map[string]any{"light": "on", "target_temp": 70},
	}))
	require.NoError(t, err)

	response, err := s.GetState(ctx, request(t, map[string]any{"house": "lake"}))
	require.NoError(t, err)

	state := response.AsMap()["state"].(map[string]any) //nolint:forcetypeassert // Shape is fixed by Response.
	require.Equal(t, On, state["light"])
	require.InDelta(t, 70.0, state["target_temp"], 0.001)
}
