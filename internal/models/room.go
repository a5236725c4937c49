package models

import "github.com/google/uuid"

// Room is the display entity for a named grouping of players. A room exists
// from the moment a user hosts it until the tidy pass removes it on its last
// member leaving.
type Room struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
