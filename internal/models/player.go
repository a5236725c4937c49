package models

import "github.com/google/uuid"

// Player represents one user's occupancy of one room. It is created when the
// user hosts or joins a room and destroyed when that user leaves it.
//
// UserID is a weak back-reference: it is resolved through the lobby directory
// on demand and never keeps the User alive. Seat is the join order within the
// room and doubles as the owner-succession tie-break.
type Player struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	RoomID uuid.UUID `json:"room_id"`
	Owner  bool      `json:"owner"`
	Seat   int       `json:"seat"`
}
