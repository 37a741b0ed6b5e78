package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dicearena/server/internal/store"
	"github.com/dicearena/server/pkg/game"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	mem := store.NewMemoryStore(time.Hour)
	t.Cleanup(func() { mem.Close() })
	return New(mem, nil)
}

func TestCreateRoom_SeedsHostAndToken(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	res, err := r.CreateRoom(ctx, "sess-host", "Alice", nil)
	require.NoError(t, err)
	require.Len(t, res.RoomCode, 6)
	require.NotEmpty(t, res.PlayerID)
	require.NotEmpty(t, res.ReconnectToken)
	require.Len(t, res.State.Players, 1)
	require.Equal(t, res.PlayerID, res.State.HostID)
}

func TestJoinRoom_RejectsDuplicateNameCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	created, err := r.CreateRoom(ctx, "sess-host", "Alice", nil)
	require.NoError(t, err)

	_, err = r.JoinRoom(ctx, created.RoomCode, "sess-2", "alice")
	require.ErrorIs(t, err, game.ErrNameTaken)
}

func TestJoinRoom_UnknownRoomReturnsRoomNotFound(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	_, err := r.JoinRoom(ctx, "ZZZZZZ", "sess", "Bob")
	require.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestLeaveRoom_DeletesEmptyRoom(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	created, err := r.CreateRoom(ctx, "sess-host", "Alice", nil)
	require.NoError(t, err)

	res, err := r.LeaveRoom(ctx, created.RoomCode, created.PlayerID)
	require.NoError(t, err)
	require.True(t, res.RoomDeleted)

	_, err = r.Engine(created.RoomCode)
	require.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestLeaveRoom_ReassignsHost(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	created, err := r.CreateRoom(ctx, "sess-host", "Alice", nil)
	require.NoError(t, err)
	joined, err := r.JoinRoom(ctx, created.RoomCode, "sess-2", "Bob")
	require.NoError(t, err)

	res, err := r.LeaveRoom(ctx, created.RoomCode, created.PlayerID)
	require.NoError(t, err)
	require.False(t, res.RoomDeleted)
	require.Equal(t, joined.PlayerID, res.NewHostID)
}

func TestStartGame_RequiresCanStart(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	created, err := r.CreateRoom(ctx, "sess-host", "Alice", nil)
	require.NoError(t, err)
	_, err = r.JoinRoom(ctx, created.RoomCode, "sess-2", "Bob")
	require.NoError(t, err)

	ok, err := r.CanStartGame(created.RoomCode)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = r.StartGame(ctx, created.RoomCode, created.PlayerID)
	require.ErrorIs(t, err, game.ErrCannotStart)
}

func TestReconnect_RestoresSessionHandle(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	created, err := r.CreateRoom(ctx, "sess-host", "Alice", nil)
	require.NoError(t, err)

	require.NoError(t, r.MarkPlayerDisconnected(ctx, created.RoomCode, created.PlayerID))

	res, err := r.Reconnect(ctx, created.ReconnectToken, "sess-new")
	require.NoError(t, err)
	require.Equal(t, created.PlayerID, res.PlayerID)
	require.Equal(t, created.RoomCode, res.RoomCode)

	player := res.State.PlayerByID(created.PlayerID)
	require.True(t, player.Connected)
	require.Equal(t, "sess-new", player.SessionHandle)
}

func TestReconnect_UnknownTokenFails(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	_, err := r.Reconnect(ctx, "bogus-token", "sess-new")
	require.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestCreateRoom_AppliesConfigOverrides(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	res, err := r.CreateRoom(ctx, "sess-host", "Alice", &game.GameConfig{MaxPlayers: 6, TotalRounds: 10, TurnTimerSeconds: 60})
	require.NoError(t, err)
	require.Equal(t, 6, res.State.Config.MaxPlayers)
	require.Equal(t, 10, res.State.Config.TotalRounds)
	require.Equal(t, 60, res.State.Config.TurnTimerSeconds)
}

func TestListSummaries_OnlyListsLobbyRooms(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	lobby, err := r.CreateRoom(ctx, "sess-a", "Alice", nil)
	require.NoError(t, err)
	started, err := r.CreateRoom(ctx, "sess-b", "Bob", &game.GameConfig{MaxPlayers: 2})
	require.NoError(t, err)
	guest, err := r.JoinRoom(ctx, started.RoomCode, "sess-c", "Carol")
	require.NoError(t, err)
	_, err = r.SetPlayerReady(ctx, started.RoomCode, started.PlayerID, true)
	require.NoError(t, err)
	_, err = r.SetPlayerReady(ctx, started.RoomCode, guest.PlayerID, true)
	require.NoError(t, err)
	_, err = r.StartGame(ctx, started.RoomCode, started.PlayerID)
	require.NoError(t, err)

	summaries := r.ListSummaries()
	require.Len(t, summaries, 1)
	require.Equal(t, lobby.RoomCode, summaries[0].RoomCode)
	require.Equal(t, "Alice", summaries[0].HostName)
}

func TestRoomCodesAndDeleteRoom(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	res, err := r.CreateRoom(ctx, "sess-host", "Alice", nil)
	require.NoError(t, err)

	require.Contains(t, r.RoomCodes(), res.RoomCode)

	r.DeleteRoom(ctx, res.RoomCode)
	require.NotContains(t, r.RoomCodes(), res.RoomCode)

	_, err = r.JoinRoom(ctx, res.RoomCode, "sess-guest", "Bob")
	require.ErrorIs(t, err, game.ErrRoomNotFound)
}
