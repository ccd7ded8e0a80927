//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/smart-home/internal/api/grpc/house"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_callContextCarriesActor attaches the actor to outgoing metadata.
func TestClient_callContextCarriesActor(t *testing.T) {
	t.Parallel()

	c := new(Client)
	WithActor(Actor{Hostname: "den", Username: "alice"})(c)

	ctx, cancel := c.callContext(context.Background())
	defer cancel()

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	require.Equal(t, []string{"alice@den"}, md.Get(api.ActorMetadataKey))
}

// TestClient_RequiresHouse asserts that an empty house name is rejected by the client.
func TestClient_RequiresHouse(t *testing.T) {
	t.Parallel()

	c := new(Client)

	_, err := c.GetState(context.Background(), "")
	require.ErrorIs(t, err, errHouseRequired)

	_, err = c.SetState(context.Background(), "", map[string]any{"light": "on"})
	require.ErrorIs(t, err, errHouseRequired)
}

// TestWithBasicAuth_IgnoresEmptyUser keeps calls anonymous without a user.
func TestWithBasicAuth_IgnoresEmptyUser(t *testing.T) {
	t.Parallel()

	c := new(Client)
	WithBasicAuth("", "secret")(c)
	require.Nil(t, c.credentials)

	WithBasicAuth("alice", "secret")(c)
	require.NotNil(t, c.credentials)
	require.Equal(t, "alice", c.credentials.User)
}
