// internal/protocol/intents.go
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// IntentType identifies a decoded client intent.
type IntentType string

const (
	IntentAuthorize  IntentType = "authorize"
	IntentRegister   IntentType = "register"
	IntentCreateRoom IntentType = "create_room"
	IntentJoinRoom   IntentType = "join_room"
	IntentLeaveRoom  IntentType = "leave_room"

	// IntentDisconnect is synthesized by the transport when a connection
	// closes. Clients never send it.
	IntentDisconnect IntentType = "disconnect"
)

// Intent is a single decoded client message. Only the fields relevant to the
// given Type are populated; the rest stay zero.
type Intent struct {
	Type IntentType `json:"type"`

	Key    string    `json:"key,omitempty"`     // authorize: shared server secret
	Name   string    `json:"name,omitempty"`    // register: display name; create_room: room name
	RoomID uuid.UUID `json:"room_id,omitempty"` // join_room: target room reference
}

// DecodeIntent parses a raw client frame into a typed Intent. Unknown or
// missing intent types are rejected so the dispatch loop only ever sees
// well-formed intents.
func DecodeIntent(data []byte) (Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return Intent{}, fmt.Errorf("malformed intent: %w", err)
	}
	switch in.Type {
	case IntentAuthorize, IntentRegister, IntentCreateRoom, IntentJoinRoom, IntentLeaveRoom:
		return in, nil
	case IntentDisconnect:
		return Intent{}, fmt.Errorf("intent %q is transport-internal", in.Type)
	default:
		return Intent{}, fmt.Errorf("unknown intent type %q", in.Type)
	}
}
