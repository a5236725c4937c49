package models

import "github.com/google/uuid"

// User is the identity created for a connection at registration. It lives in
// the directory from register until disconnect and carries the display name
// shown to other users.
type User struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
