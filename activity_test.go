package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/innkeep/go-auth"
)

func TestActivitySinkFunc(t *testing.T) {
	var got []auth.ActivityEvent

	sink := auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		got = append(got, event)
		return nil
	})

	require.NoError(t, sink.Record(context.Background(), auth.ActivityEvent{
		EventType: auth.ActivityEventLogout,
	}))

	require.Len(t, got, 1)
	assert.Equal(t, auth.ActivityEventLogout, got[0].EventType)

	// a nil func records nothing and never panics
	var empty auth.ActivitySinkFunc
	require.NoError(t, empty.Record(context.Background(), auth.ActivityEvent{}))
}

func TestActivityEventDefaults(t *testing.T) {
	hasher := testHasher(t)
	sink := &captureSink{}

	accounts := newMemCredentialStore(
		makeAccount(t, hasher, 1, "reception", "reception@hotel.test", "front-desk-9", auth.RoleViewer, true),
	)

	authn := auth.NewAuthenticator(accounts, hasher).WithActivitySink(sink)

	_, err := authn.Authenticate(context.Background(), "reception", "front-desk-9")
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	event := sink.events[0]

	assert.Equal(t, auth.ActivityEventLoginSuccess, event.EventType)
	assert.Equal(t, "account", event.Actor.Type)
	assert.Equal(t, "1", event.Actor.ID)
	assert.Equal(t, int64(1), event.AccountID)
	assert.False(t, event.OccurredAt.IsZero())
	assert.NotNil(t, event.Metadata)
}
