// internal/lobby/scope.go
package lobby

import (
	"github.com/google/uuid"

	"github.com/durak-live/durak/internal/protocol"
)

// ScopeSet is the include-set of replicated entities for one connection on
// one tick, keyed by entity ID.
type ScopeSet map[uuid.UUID]protocol.Entity

// ScopeEngine recomputes per-connection visibility from current membership.
// It is a pure function of the lobby: it keeps no state of its own between
// ticks, so an entity absent from a connection's set is implicitly despawned
// by the replication diff without any explicit message from the core.
type ScopeEngine struct {
	lobby *Lobby
}

func NewScopeEngine(l *Lobby) *ScopeEngine {
	return &ScopeEngine{lobby: l}
}

// Compute returns the include-set for every registered connection.
//
// Unassigned users share the global lobby view: every unassigned user plus
// the display entity of every active room (the room list). Seated users see
// their room, its players, and the users backing those players.
func (e *ScopeEngine) Compute() map[uuid.UUID]ScopeSet {
	l := e.lobby
	out := make(map[uuid.UUID]ScopeSet, len(l.users))

	lobbyView := make(ScopeSet, len(l.unassigned)+len(l.rooms))
	for connID := range l.unassigned {
		if u, ok := l.users[connID]; ok {
			lobbyView[u.ID] = protocol.UserEntity(u)
		}
	}
	for _, rs := range l.rooms {
		lobbyView[rs.room.ID] = protocol.RoomEntity(rs.room)
	}
	for connID := range l.unassigned {
		out[connID] = lobbyView
	}

	for _, rs := range l.rooms {
		view := make(ScopeSet, 2*len(rs.members)+1)
		view[rs.room.ID] = protocol.RoomEntity(rs.room)
		for _, p := range rs.members {
			view[p.ID] = protocol.PlayerEntity(p)
			if u, ok := l.byUserID[p.UserID]; ok {
				view[u.ID] = protocol.UserEntity(u)
			}
		}
		for connID := range rs.members {
			out[connID] = view
		}
	}

	return out
}
