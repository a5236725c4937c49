// internal/lobby/lobby.go
package lobby

import (
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/durak-live/durak/internal/models"
)

// Lobby is the authoritative session state: the identity directory, the pool
// of unassigned users, and the registry of active rooms.
//
// A Lobby is exclusively owned by the tick loop and is not safe for
// concurrent use. Transport goroutines hand decoded intents to the dispatch
// queue instead of touching it directly; the invariants therefore only need
// to hold at operation boundaries.
type Lobby struct {
	log *logrus.Logger

	// users is the identity directory: connection ID -> User, from register
	// until disconnect.
	users map[uuid.UUID]*models.User
	// byUserID resolves the weak Player.UserID back-reference. Entries are
	// removed together with the directory entry, so a stale reference reads
	// as absent rather than dangling.
	byUserID map[uuid.UUID]*models.User

	// unassigned holds the connection IDs whose user currently sits in the
	// global lobby room rather than in any game room.
	unassigned map[uuid.UUID]struct{}

	rooms map[uuid.UUID]*roomState
	// seated maps a connection to the room its player occupies. A connection
	// is in unassigned or in seated, never both.
	seated map[uuid.UUID]uuid.UUID
}

// roomState is one registry entry: the room's display entity plus its
// membership table, keyed by connection ID.
type roomState struct {
	room    *models.Room
	members map[uuid.UUID]*models.Player

	// ownerID is the player currently holding the owner marker, uuid.Nil
	// only inside the leave/promote transition window.
	ownerID  uuid.UUID
	nextSeat int
}

// RoomInfo is a by-value snapshot of one room, safe to hand to other
// goroutines. Members are ordered by seat.
type RoomInfo struct {
	Room    models.Room     `json:"room"`
	Members []models.Player `json:"members"`
}

// New returns an empty lobby.
func New(log *logrus.Logger) *Lobby {
	if log == nil {
		log = logrus.New()
	}
	return &Lobby{
		log:        log,
		users:      make(map[uuid.UUID]*models.User),
		byUserID:   make(map[uuid.UUID]*models.User),
		unassigned: make(map[uuid.UUID]struct{}),
		rooms:      make(map[uuid.UUID]*roomState),
		seated:     make(map[uuid.UUID]uuid.UUID),
	}
}

// Register creates a User for the connection and places it in the unassigned
// pool. The caller is expected to emit an own-identity notice afterwards.
func (l *Lobby) Register(connID uuid.UUID, name string) (*models.User, error) {
	if _, exists := l.users[connID]; exists {
		return nil, ErrAlreadyRegistered
	}
	user := &models.User{ID: uuid.New(), Name: name}
	l.users[connID] = user
	l.byUserID[user.ID] = user
	l.unassigned[connID] = struct{}{}
	l.log.WithFields(logrus.Fields{"conn": connID, "user": user.ID, "name": name}).Info("user registered")
	return user, nil
}

// HostRoom moves an unassigned user into a freshly created room and marks its
// player as owner. The returned room has exactly one member.
func (l *Lobby) HostRoom(connID uuid.UUID, roomName string) (*models.Player, *models.Room, error) {
	user, ok := l.users[connID]
	if !ok {
		return nil, nil, ErrNotRegistered
	}
	if _, free := l.unassigned[connID]; !free {
		return nil, nil, ErrNotRegistered
	}

	room := &models.Room{ID: uuid.New(), Name: roomName}
	player := &models.Player{
		ID:     uuid.New(),
		UserID: user.ID,
		RoomID: room.ID,
		Owner:  true,
		Seat:   0,
	}
	l.rooms[room.ID] = &roomState{
		room:     room,
		members:  map[uuid.UUID]*models.Player{connID: player},
		ownerID:  player.ID,
		nextSeat: 1,
	}
	delete(l.unassigned, connID)
	l.seated[connID] = room.ID

	l.log.WithFields(logrus.Fields{"conn": connID, "room": room.ID, "name": roomName}).Info("room hosted")
	return player, room, nil
}

// JoinRoom seats an unassigned user in an existing room. The room's owner is
// unaffected.
func (l *Lobby) JoinRoom(connID uuid.UUID, roomID uuid.UUID) (*models.Player, error) {
	rs, ok := l.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	user, ok := l.users[connID]
	if !ok {
		return nil, ErrNotRegistered
	}
	if _, free := l.unassigned[connID]; !free {
		return nil, ErrNotRegistered
	}

	player := &models.Player{
		ID:     uuid.New(),
		UserID: user.ID,
		RoomID: roomID,
		Seat:   rs.nextSeat,
	}
	rs.nextSeat++
	rs.members[connID] = player
	delete(l.unassigned, connID)
	l.seated[connID] = roomID

	l.log.WithFields(logrus.Fields{"conn": connID, "room": roomID}).Info("room joined")
	return player, nil
}

// LeaveRoom destroys the connection's player and returns the user to the
// unassigned pool. If the departing player held the owner marker and members
// remain, the chosen successor is returned unmarked: attaching the marker is
// the caller's next step (via MarkOwner) so the promotion stays observable to
// the replication layer. A connection that is not in a room is a no-op.
func (l *Lobby) LeaveRoom(connID uuid.UUID) (successor *models.Player, left bool) {
	roomID, ok := l.seated[connID]
	if !ok {
		return nil, false
	}
	rs := l.rooms[roomID]
	player := rs.members[connID]

	delete(rs.members, connID)
	delete(l.seated, connID)
	l.unassigned[connID] = struct{}{}

	if rs.ownerID == player.ID {
		rs.ownerID = uuid.Nil
		successor = nextOwner(rs)
	}

	l.log.WithFields(logrus.Fields{"conn": connID, "room": roomID, "was_owner": player.Owner}).Info("room left")
	l.tidy()
	return successor, true
}

// MarkOwner attaches the owner marker to the given player. It fails with
// ErrInvalidReference when the player's room no longer exists or the player
// is no longer seated in it.
func (l *Lobby) MarkOwner(p *models.Player) error {
	rs, ok := l.rooms[p.RoomID]
	if !ok {
		return ErrInvalidReference
	}
	seatedStill := false
	for _, member := range rs.members {
		if member.ID == p.ID {
			seatedStill = true
			break
		}
	}
	if !seatedStill {
		return ErrInvalidReference
	}
	p.Owner = true
	rs.ownerID = p.ID
	l.log.WithFields(logrus.Fields{"room": p.RoomID, "player": p.ID}).Info("owner marked")
	return nil
}

// DisconnectUser is the full teardown for a connection: leave-room semantics
// plus removal from the directory and the unassigned pool. It is idempotent;
// tearing down an unknown connection is a no-op.
func (l *Lobby) DisconnectUser(connID uuid.UUID) (successor *models.Player) {
	user, ok := l.users[connID]
	if !ok {
		return nil
	}
	successor, _ = l.LeaveRoom(connID)
	delete(l.unassigned, connID)
	delete(l.users, connID)
	delete(l.byUserID, user.ID)
	l.log.WithFields(logrus.Fields{"conn": connID, "user": user.ID}).Info("user disconnected")
	return successor
}

// LookupUser returns the directory entry for a connection, if any. Pure read.
func (l *Lobby) LookupUser(connID uuid.UUID) (*models.User, bool) {
	u, ok := l.users[connID]
	return u, ok
}

// UserByID resolves a Player's weak user back-reference. Returns false when
// the user has since disconnected.
func (l *Lobby) UserByID(userID uuid.UUID) (*models.User, bool) {
	u, ok := l.byUserID[userID]
	return u, ok
}

// PlayerFor returns the connection's live player, if it is seated in a room.
func (l *Lobby) PlayerFor(connID uuid.UUID) (*models.Player, bool) {
	roomID, ok := l.seated[connID]
	if !ok {
		return nil, false
	}
	p, ok := l.rooms[roomID].members[connID]
	return p, ok
}

// Rooms returns a by-value snapshot of the registry, ordered by room name
// then ID for stable listings.
func (l *Lobby) Rooms() []RoomInfo {
	out := make([]RoomInfo, 0, len(l.rooms))
	for _, rs := range l.rooms {
		info := RoomInfo{Room: *rs.room, Members: make([]models.Player, 0, len(rs.members))}
		for _, p := range rs.members {
			info.Members = append(info.Members, *p)
		}
		sort.Slice(info.Members, func(i, j int) bool { return info.Members[i].Seat < info.Members[j].Seat })
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Room.Name != out[j].Room.Name {
			return out[i].Room.Name < out[j].Room.Name
		}
		return out[i].Room.ID.String() < out[j].Room.ID.String()
	})
	return out
}

// tidy removes every room whose membership dropped to zero. It runs after
// each operation that can shrink a room, never after ones that only add
// members.
func (l *Lobby) tidy() {
	for id, rs := range l.rooms {
		if len(rs.members) == 0 {
			delete(l.rooms, id)
			l.log.WithFields(logrus.Fields{"room": id, "name": rs.room.Name}).Info("empty room tidied")
		}
	}
}
