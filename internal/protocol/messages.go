// internal/protocol/messages.go
package protocol

import (
	"github.com/google/uuid"

	"github.com/durak-live/durak/internal/models"
)

// Entity kinds replicated to clients.
const (
	KindUser   = "user"
	KindPlayer = "player"
	KindRoom   = "room"
)

// Entity is the wire form of a replicated object. It is a flat comparable
// value so the dispatcher can diff one tick's scope against the previous one
// with a plain equality check.
type Entity struct {
	ID     uuid.UUID `json:"id"`
	Kind   string    `json:"kind"`
	Name   string    `json:"name,omitempty"`
	UserID uuid.UUID `json:"user_id,omitempty"`
	RoomID uuid.UUID `json:"room_id,omitempty"`
	Owner  bool      `json:"owner,omitempty"`
}

// UserEntity builds the replicated form of a User.
func UserEntity(u *models.User) Entity {
	return Entity{ID: u.ID, Kind: KindUser, Name: u.Name}
}

// PlayerEntity builds the replicated form of a Player.
func PlayerEntity(p *models.Player) Entity {
	return Entity{ID: p.ID, Kind: KindPlayer, UserID: p.UserID, RoomID: p.RoomID, Owner: p.Owner}
}

// RoomEntity builds the replicated form of a Room.
func RoomEntity(r *models.Room) Entity {
	return Entity{ID: r.ID, Kind: KindRoom, Name: r.Name}
}

// Server message types.
const (
	MsgOwnUser = "own_user"
	MsgSpawn   = "spawn"
	MsgUpdate  = "update"
	MsgDespawn = "despawn"
	MsgError   = "error"
)

// ServerMessage is a single outbound frame. Entities leave a client's world by
// despawn when they fall out of that client's scope; there is no broader
// world-state message.
type ServerMessage struct {
	Type string `json:"type"`

	Entity   *Entity   `json:"entity,omitempty"`    // spawn, update
	EntityID uuid.UUID `json:"entity_id,omitempty"` // despawn

	UserID   uuid.UUID `json:"user_id,omitempty"`   // own_user
	PlayerID uuid.UUID `json:"player_id,omitempty"` // own_user, when seated

	Code string `json:"code,omitempty"` // error
}

// OwnUser builds the "this is you" notice. playerID is uuid.Nil while the
// user is unassigned.
func OwnUser(userID, playerID uuid.UUID) ServerMessage {
	return ServerMessage{Type: MsgOwnUser, UserID: userID, PlayerID: playerID}
}

func Spawn(e Entity) ServerMessage {
	return ServerMessage{Type: MsgSpawn, Entity: &e}
}

func Update(e Entity) ServerMessage {
	return ServerMessage{Type: MsgUpdate, Entity: &e}
}

func Despawn(id uuid.UUID) ServerMessage {
	return ServerMessage{Type: MsgDespawn, EntityID: id}
}

// ErrorMessage reports a named, non-fatal failure back to the client.
func ErrorMessage(code string) ServerMessage {
	return ServerMessage{Type: MsgError, Code: code}
}
