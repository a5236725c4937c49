// internal/server/server_test.go
package server

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durak-live/durak/internal/lobby"
	"github.com/durak-live/durak/internal/protocol"
)

func newTestServer() *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return New(logger, lobby.New(logger), time.Millisecond)
}

// attach registers a session with the dispatcher and runs a tick so the
// attach event is applied.
func attach(s *Server) *Session {
	sess := NewSession(s.log)
	s.Attach(sess)
	s.runTick()
	return sess
}

// drain empties a session's outbound queue without blocking.
func drain(sess *Session) []protocol.ServerMessage {
	var out []protocol.ServerMessage
	for {
		select {
		case m, ok := <-sess.Out:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func ofType(msgs []protocol.ServerMessage, typ string) []protocol.ServerMessage {
	var out []protocol.ServerMessage
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func TestRegisterDeliversOwnUserAndSpawn(t *testing.T) {
	s := newTestServer()
	sess := attach(s)

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.runTick()

	msgs := drain(sess)
	own := ofType(msgs, protocol.MsgOwnUser)
	require.Len(t, own, 1)
	assert.NotEqual(t, uuid.Nil, own[0].UserID)
	assert.Equal(t, uuid.Nil, own[0].PlayerID)

	spawns := ofType(msgs, protocol.MsgSpawn)
	require.NotEmpty(t, spawns)
	found := false
	for _, m := range spawns {
		if m.Entity.ID == own[0].UserID {
			found = true
			assert.Equal(t, protocol.KindUser, m.Entity.Kind)
			assert.Equal(t, "anna", m.Entity.Name)
		}
	}
	assert.True(t, found, "own user entity should be spawned")
}

func TestDuplicateRegisterRejected(t *testing.T) {
	s := newTestServer()
	sess := attach(s)

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.runTick()
	drain(sess)

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.runTick()

	msgs := drain(sess)
	errs := ofType(msgs, protocol.MsgError)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeAlreadyRegistered, errs[0].Code)
	assert.Empty(t, ofType(msgs, protocol.MsgOwnUser))
}

func TestQuietTickSendsNothing(t *testing.T) {
	s := newTestServer()
	sess := attach(s)

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.runTick()
	drain(sess)

	s.runTick()
	assert.Empty(t, drain(sess))
}

func TestCreateRoomsInOneTickGetDistinctOwners(t *testing.T) {
	s := newTestServer()
	a := attach(s)
	b := attach(s)

	s.Enqueue(a.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.Enqueue(b.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "boris"})
	s.runTick()
	drain(a)
	drain(b)

	// Both create_room intents land in the same tick.
	s.Enqueue(a.ConnID, protocol.Intent{Type: protocol.IntentCreateRoom, Name: "Table1"})
	s.Enqueue(b.ConnID, protocol.Intent{Type: protocol.IntentCreateRoom, Name: "Table2"})
	s.runTick()

	rooms := s.lobby.Rooms()
	require.Len(t, rooms, 2)
	for _, info := range rooms {
		require.Len(t, info.Members, 1)
		assert.True(t, info.Members[0].Owner)
	}

	ownA := ofType(drain(a), protocol.MsgOwnUser)
	ownB := ofType(drain(b), protocol.MsgOwnUser)
	require.Len(t, ownA, 1)
	require.Len(t, ownB, 1)
	assert.NotEqual(t, uuid.Nil, ownA[0].PlayerID)
	assert.NotEqual(t, uuid.Nil, ownB[0].PlayerID)
	assert.NotEqual(t, ownA[0].PlayerID, ownB[0].PlayerID)
}

func TestJoinStaleRoomIsBenign(t *testing.T) {
	s := newTestServer()
	sess := attach(s)

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.runTick()
	drain(sess)

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentJoinRoom, RoomID: uuid.New()})
	s.runTick()

	errs := ofType(drain(sess), protocol.MsgError)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeRoomNotFound, errs[0].Code)

	// Still registered and unassigned.
	_, ok := s.lobby.LookupUser(sess.ConnID)
	assert.True(t, ok)
	_, seated := s.lobby.PlayerFor(sess.ConnID)
	assert.False(t, seated)
}

func TestDisconnectPromotesRemainingMember(t *testing.T) {
	s := newTestServer()
	host := attach(s)
	guest := attach(s)

	s.Enqueue(host.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.Enqueue(guest.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "boris"})
	s.runTick()
	s.Enqueue(host.ConnID, protocol.Intent{Type: protocol.IntentCreateRoom, Name: "Table1"})
	s.runTick()

	rooms := s.lobby.Rooms()
	require.Len(t, rooms, 1)
	s.Enqueue(guest.ConnID, protocol.Intent{Type: protocol.IntentJoinRoom, RoomID: rooms[0].Room.ID})
	s.runTick()
	drain(host)
	drain(guest)

	hostUser, ok := s.lobby.LookupUser(host.ConnID)
	require.True(t, ok)

	s.Disconnect(host.ConnID)
	s.runTick()

	// Room survives with the guest as sole owner.
	rooms = s.lobby.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "Table1", rooms[0].Room.Name)
	require.Len(t, rooms[0].Members, 1)
	assert.True(t, rooms[0].Members[0].Owner)

	msgs := drain(guest)
	updates := ofType(msgs, protocol.MsgUpdate)
	promoted := false
	for _, m := range updates {
		if m.Entity.Kind == protocol.KindPlayer && m.Entity.Owner {
			promoted = true
		}
	}
	assert.True(t, promoted, "guest should see the ownership update")

	// Host's user and player fall out of scope without explicit teardown
	// messages from the core.
	despawns := ofType(msgs, protocol.MsgDespawn)
	despawned := make(map[uuid.UUID]bool, len(despawns))
	for _, m := range despawns {
		despawned[m.EntityID] = true
	}
	assert.True(t, despawned[hostUser.ID], "host user should despawn")

	// Host session is torn down.
	_, alive := s.sessions[host.ConnID]
	assert.False(t, alive)
}

func TestDoubleDisconnectIsIdempotent(t *testing.T) {
	s := newTestServer()
	sess := attach(s)

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.runTick()
	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentCreateRoom, Name: "Table1"})
	s.runTick()

	s.Disconnect(sess.ConnID)
	s.Disconnect(sess.ConnID)
	s.runTick()
	s.runTick()

	assert.Empty(t, s.lobby.Rooms())
	_, ok := s.lobby.LookupUser(sess.ConnID)
	assert.False(t, ok)
}

func TestLeaveRoomDespawnsRoomForWatchers(t *testing.T) {
	s := newTestServer()
	host := attach(s)
	watcher := attach(s)

	s.Enqueue(host.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.Enqueue(watcher.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "boris"})
	s.runTick()
	s.Enqueue(host.ConnID, protocol.Intent{Type: protocol.IntentCreateRoom, Name: "Table1"})
	s.runTick()

	rooms := s.lobby.Rooms()
	require.Len(t, rooms, 1)
	roomID := rooms[0].Room.ID

	spawns := ofType(drain(watcher), protocol.MsgSpawn)
	seenRoom := false
	for _, m := range spawns {
		if m.Entity.ID == roomID {
			seenRoom = true
		}
	}
	require.True(t, seenRoom, "watcher should see the room spawn")

	s.Enqueue(host.ConnID, protocol.Intent{Type: protocol.IntentLeaveRoom})
	s.runTick()

	assert.Empty(t, s.lobby.Rooms(), "tidy should remove the emptied room")
	despawns := ofType(drain(watcher), protocol.MsgDespawn)
	gone := false
	for _, m := range despawns {
		if m.EntityID == roomID {
			gone = true
		}
	}
	assert.True(t, gone, "watcher should see the room despawn")
}

func TestRoomSnapshotPublishedPerTick(t *testing.T) {
	s := newTestServer()
	sess := attach(s)

	assert.Empty(t, s.RoomSnapshot())

	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentRegister, Name: "anna"})
	s.runTick()
	s.Enqueue(sess.ConnID, protocol.Intent{Type: protocol.IntentCreateRoom, Name: "Table1"})
	s.runTick()

	snap := s.RoomSnapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "Table1", snap[0].Room.Name)
}
