package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "game:ABC123", []byte(`{"phase":"LOBBY"}`), time.Minute))

	val, ok, err := s.Get(ctx, "game:ABC123")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"phase":"LOBBY"}`, string(val))

	require.NoError(t, s.Delete(ctx, "game:ABC123"))
	_, ok, err = s.Get(ctx, "game:ABC123")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(5 * time.Millisecond)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "reconnect:tok", []byte("x"), 10*time.Millisecond))
	require.Eventually(t, func() bool {
		_, ok, _ := s.Get(ctx, "reconnect:tok")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

type failingStore struct{}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("unreachable")
}
func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unreachable")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("unreachable") }
func (failingStore) Close() error                         { return nil }

func TestDegradingStore_FallsBackOnFirstError(t *testing.T) {
	ctx := context.Background()
	fallback := NewMemoryStore(time.Hour)
	defer fallback.Close()

	ds := NewDegradingStore(nil, failingStore{}, fallback)
	require.False(t, ds.IsDegraded())

	require.NoError(t, ds.Set(ctx, "game:ROOM", []byte("state"), time.Minute))
	require.True(t, ds.IsDegraded())

	val, ok, err := ds.Get(ctx, "game:ROOM")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "state", string(val))
}

func TestGameStateKey_ReconnectTokenKey(t *testing.T) {
	require.Equal(t, "game:ABC123", GameStateKey("ABC123"))
	require.Equal(t, "reconnect:tok-1", ReconnectTokenKey("tok-1"))
}
