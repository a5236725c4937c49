// internal/server/server.go
package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/durak-live/durak/internal/cache"
	"github.com/durak-live/durak/internal/lobby"
	"github.com/durak-live/durak/internal/models"
	"github.com/durak-live/durak/internal/protocol"
)

// DefaultTickInterval is used when no TICK_INTERVAL is configured.
const DefaultTickInterval = 50 * time.Millisecond

// Error codes surfaced to clients.
const (
	CodeAlreadyRegistered = "already_registered"
	CodeNotRegistered     = "not_registered"
	CodeRoomNotFound      = "room_not_found"
	CodeInvalidReference  = "invalid_reference"
)

type eventKind int

const (
	eventAttach eventKind = iota
	eventIntent
)

// event is one queued item for the tick loop: either a session attaching or
// a decoded intent (including the transport-synthesized disconnect).
type event struct {
	kind   eventKind
	connID uuid.UUID
	sess   *Session
	intent protocol.Intent
}

// Server is the dispatcher: it owns the Lobby, drains the event queue once
// per tick, applies each event as a lobby operation in arrival order, then
// recomputes visibility scopes and flushes replication deltas to every
// attached session. All lobby state is confined to the Run goroutine;
// transports only ever enqueue.
type Server struct {
	log   *logrus.Logger
	lobby *lobby.Lobby
	scope *lobby.ScopeEngine
	tick  time.Duration

	events   chan event
	sessions map[uuid.UUID]*Session
	prev     map[uuid.UUID]lobby.ScopeSet

	// roomSnap is a copy of the room registry published at the end of every
	// tick so HTTP handlers can list rooms without touching lobby state.
	mu       sync.RWMutex
	roomSnap []lobby.RoomInfo
}

// New builds a dispatcher around the given lobby. A zero tick falls back to
// DefaultTickInterval.
func New(log *logrus.Logger, l *lobby.Lobby, tick time.Duration) *Server {
	if log == nil {
		log = logrus.New()
	}
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Server{
		log:      log,
		lobby:    l,
		scope:    lobby.NewScopeEngine(l),
		tick:     tick,
		events:   make(chan event, 1024),
		sessions: make(map[uuid.UUID]*Session),
		prev:     make(map[uuid.UUID]lobby.ScopeSet),
	}
}

// Attach registers an authorized session with the tick loop. Must be called
// before any intents for the same connection are enqueued.
func (s *Server) Attach(sess *Session) {
	s.events <- event{kind: eventAttach, connID: sess.ConnID, sess: sess}
}

// Enqueue hands a decoded client intent to the tick loop. Blocks only when
// the event queue is full, which backpressures the read pump.
func (s *Server) Enqueue(connID uuid.UUID, in protocol.Intent) {
	s.events <- event{kind: eventIntent, connID: connID, intent: in}
}

// Disconnect enqueues the transport-level teardown for a connection. Safe to
// call for a connection that was already torn down; the lobby operation is
// idempotent.
func (s *Server) Disconnect(connID uuid.UUID) {
	s.events <- event{kind: eventIntent, connID: connID, intent: protocol.Intent{Type: protocol.IntentDisconnect}}
}

// Run drives the tick loop until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	s.log.Infof("dispatcher running, tick interval %s", s.tick)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("dispatcher stopping")
			return
		case <-ticker.C:
			s.runTick()
		}
	}
}

// runTick is one full cycle: drain queued events, recompute scopes, flush
// deltas, publish the room snapshot.
func (s *Server) runTick() {
	for {
		select {
		case ev := <-s.events:
			s.apply(ev)
		default:
			s.replicate()
			s.publishRooms()
			return
		}
	}
}

func (s *Server) apply(ev event) {
	if ev.kind == eventAttach {
		s.sessions[ev.sess.ConnID] = ev.sess
		s.log.WithField("conn", ev.sess.ConnID).Debug("session attached")
		return
	}

	sess := s.sessions[ev.connID]
	switch ev.intent.Type {
	case protocol.IntentRegister:
		user, err := s.lobby.Register(ev.connID, ev.intent.Name)
		if err != nil {
			s.reject(sess, CodeAlreadyRegistered)
			return
		}
		if sess != nil {
			sess.Write(protocol.OwnUser(user.ID, uuid.Nil))
		}
		s.journal(cache.SessionEventRecord{
			EventType: cache.EventUserRegistered,
			ConnID:    ev.connID,
			UserID:    user.ID,
			Name:      user.Name,
		})

	case protocol.IntentCreateRoom:
		player, room, err := s.lobby.HostRoom(ev.connID, ev.intent.Name)
		if err != nil {
			s.reject(sess, CodeNotRegistered)
			return
		}
		if sess != nil {
			sess.Write(protocol.OwnUser(player.UserID, player.ID))
		}
		s.journal(cache.SessionEventRecord{
			EventType: cache.EventRoomCreated,
			ConnID:    ev.connID,
			UserID:    player.UserID,
			RoomID:    room.ID,
			PlayerID:  player.ID,
			Name:      room.Name,
		})

	case protocol.IntentJoinRoom:
		player, err := s.lobby.JoinRoom(ev.connID, ev.intent.RoomID)
		switch err {
		case nil:
		case lobby.ErrRoomNotFound:
			// Stale room reference: a legitimate race, not a fault. The
			// client is told and stays unassigned.
			s.reject(sess, CodeRoomNotFound)
			return
		default:
			s.reject(sess, CodeNotRegistered)
			return
		}
		if sess != nil {
			sess.Write(protocol.OwnUser(player.UserID, player.ID))
		}
		s.journal(cache.SessionEventRecord{
			EventType: cache.EventRoomJoined,
			ConnID:    ev.connID,
			UserID:    player.UserID,
			RoomID:    player.RoomID,
			PlayerID:  player.ID,
		})

	case protocol.IntentLeaveRoom:
		successor, left := s.lobby.LeaveRoom(ev.connID)
		if !left {
			return
		}
		s.promote(successor)
		if user, ok := s.lobby.LookupUser(ev.connID); ok && sess != nil {
			sess.Write(protocol.OwnUser(user.ID, uuid.Nil))
		}
		s.journal(cache.SessionEventRecord{EventType: cache.EventRoomLeft, ConnID: ev.connID})

	case protocol.IntentDisconnect:
		successor := s.lobby.DisconnectUser(ev.connID)
		s.promote(successor)
		if old, ok := s.sessions[ev.connID]; ok {
			delete(s.sessions, ev.connID)
			close(old.Out)
		}
		delete(s.prev, ev.connID)
		s.journal(cache.SessionEventRecord{EventType: cache.EventDisconnected, ConnID: ev.connID})

	case protocol.IntentAuthorize:
		// The transport validates the shared secret before attaching the
		// session; a repeat authorize after that carries no state change.
		s.log.WithField("conn", ev.connID).Debug("ignoring authorize on established session")

	default:
		s.log.WithFields(logrus.Fields{"conn": ev.connID, "type": ev.intent.Type}).
			Warn("dropping unhandled intent")
	}
}

// promote attaches the owner marker to a leave/disconnect successor. Kept as
// its own dispatcher step so the ownership change lands in the same tick's
// replication diff as the departure.
func (s *Server) promote(successor *models.Player) {
	if successor == nil {
		return
	}
	if err := s.lobby.MarkOwner(successor); err != nil {
		s.log.WithField("player", successor.ID).Warnf("owner promotion failed: %v", err)
		return
	}
	s.journal(cache.SessionEventRecord{
		EventType: cache.EventOwnerMigrated,
		UserID:    successor.UserID,
		RoomID:    successor.RoomID,
		PlayerID:  successor.ID,
	})
}

func (s *Server) reject(sess *Session, code string) {
	if sess != nil {
		sess.Write(protocol.ErrorMessage(code))
	}
}

// replicate diffs each attached session's current scope against the previous
// tick and sends spawn/update/despawn deltas. Entities simply absent from the
// new scope become despawns; leaving a room needs no explicit despawn
// messages from the core.
func (s *Server) replicate() {
	scopes := s.scope.Compute()
	for connID, sess := range s.sessions {
		cur := scopes[connID]
		old := s.prev[connID]

		for id, ent := range cur {
			before, seen := old[id]
			if !seen {
				sess.Write(protocol.Spawn(ent))
			} else if before != ent {
				sess.Write(protocol.Update(ent))
			}
		}
		for id := range old {
			if _, still := cur[id]; !still {
				sess.Write(protocol.Despawn(id))
			}
		}

		if cur == nil {
			delete(s.prev, connID)
		} else {
			s.prev[connID] = cur
		}
	}
}

// publishRooms copies the registry for lock-free reads by HTTP handlers and
// logs the per-room membership dump at trace level.
func (s *Server) publishRooms() {
	snap := s.lobby.Rooms()
	s.mu.Lock()
	s.roomSnap = snap
	s.mu.Unlock()

	if s.log.IsLevelEnabled(logrus.TraceLevel) {
		for _, info := range snap {
			s.log.WithFields(logrus.Fields{
				"room":    info.Room.ID,
				"name":    info.Room.Name,
				"members": len(info.Members),
			}).Trace("room state")
		}
	}
}

// RoomSnapshot returns the registry as of the end of the last tick.
func (s *Server) RoomSnapshot() []lobby.RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomSnap
}

func (s *Server) journal(rec cache.SessionEventRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cache.PublishSessionEvent(ctx, rec); err != nil {
		s.log.Warnf("session journal publish failed: %v", err)
	}
}
