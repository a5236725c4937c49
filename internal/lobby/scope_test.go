// internal/lobby/scope_test.go
package lobby

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durak-live/durak/internal/protocol"
)

func TestScopeUnassignedSeesPoolAndRoomList(t *testing.T) {
	l := newTestLobby()
	engine := NewScopeEngine(l)

	a, b, host := uuid.New(), uuid.New(), uuid.New()
	ua, err := l.Register(a, "anna")
	require.NoError(t, err)
	ub, err := l.Register(b, "boris")
	require.NoError(t, err)
	_, err = l.Register(host, "clara")
	require.NoError(t, err)
	hostPlayer, room, err := l.HostRoom(host, "Table1")
	require.NoError(t, err)

	scopes := engine.Compute()

	view := scopes[a]
	require.NotNil(t, view)
	assert.Contains(t, view, ua.ID)
	assert.Contains(t, view, ub.ID)
	assert.Contains(t, view, room.ID)
	assert.Equal(t, protocol.KindRoom, view[room.ID].Kind)

	// Players inside rooms are not part of the lobby view.
	assert.NotContains(t, view, hostPlayer.ID)
	// Both unassigned users share the same view.
	assert.Equal(t, view, scopes[b])
}

func TestScopeRoomMemberSeesRoomAndBackingUsers(t *testing.T) {
	l := newTestLobby()
	engine := NewScopeEngine(l)

	host, guest, outsider := uuid.New(), uuid.New(), uuid.New()
	uHost, err := l.Register(host, "anna")
	require.NoError(t, err)
	uGuest, err := l.Register(guest, "boris")
	require.NoError(t, err)
	uOut, err := l.Register(outsider, "clara")
	require.NoError(t, err)

	hostPlayer, room, err := l.HostRoom(host, "Table1")
	require.NoError(t, err)
	guestPlayer, err := l.JoinRoom(guest, room.ID)
	require.NoError(t, err)

	scopes := engine.Compute()
	view := scopes[host]
	require.NotNil(t, view)

	assert.Contains(t, view, room.ID)
	assert.Contains(t, view, hostPlayer.ID)
	assert.Contains(t, view, guestPlayer.ID)
	assert.Contains(t, view, uHost.ID)
	assert.Contains(t, view, uGuest.ID)
	assert.NotContains(t, view, uOut.ID)

	assert.True(t, view[hostPlayer.ID].Owner)
	assert.False(t, view[guestPlayer.ID].Owner)
	assert.Equal(t, view, scopes[guest])
}

func TestScopeHoldsNoStateBetweenTicks(t *testing.T) {
	l := newTestLobby()
	engine := NewScopeEngine(l)

	host, guest := uuid.New(), uuid.New()
	_, err := l.Register(host, "anna")
	require.NoError(t, err)
	uGuest, err := l.Register(guest, "boris")
	require.NoError(t, err)
	_, room, err := l.HostRoom(host, "Table1")
	require.NoError(t, err)
	_, err = l.JoinRoom(guest, room.ID)
	require.NoError(t, err)

	before := engine.Compute()
	assert.Contains(t, before[guest], room.ID)

	// After the guest leaves, a fresh computation reflects only current
	// membership: the guest is back to the lobby view.
	_, left := l.LeaveRoom(guest)
	require.True(t, left)
	after := engine.Compute()
	assert.Contains(t, after[guest], room.ID) // room list is visible from the pool
	assert.Contains(t, after[guest], uGuest.ID)
	for id, ent := range after[guest] {
		if ent.Kind == protocol.KindPlayer {
			t.Fatalf("lobby view should hold no players, saw %v", id)
		}
	}
}

func TestScopeOmitsUnregisteredConnections(t *testing.T) {
	l := newTestLobby()
	engine := NewScopeEngine(l)

	conn := uuid.New()
	scopes := engine.Compute()
	assert.NotContains(t, scopes, conn)
}
