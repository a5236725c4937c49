// internal/server/session.go
package server

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/durak-live/durak/internal/protocol"
)

// Session is one authorized transport connection registered with the
// dispatcher. The transport owns the websocket; the dispatcher owns the
// session's lifetime in the tick loop and is the only goroutine that sends on
// Out or closes it.
type Session struct {
	ConnID uuid.UUID
	Out    chan protocol.ServerMessage

	log *logrus.Logger
}

// NewSession allocates a session with a fresh connection ID and a buffered
// outbound queue drained by the transport's write pump.
func NewSession(log *logrus.Logger) *Session {
	return &Session{
		ConnID: uuid.New(),
		Out:    make(chan protocol.ServerMessage, 64),
		log:    log,
	}
}

// Write pushes a message onto the session's outbound queue non-blockingly.
// A full queue means the client's write pump has stalled; the message is
// dropped and logged rather than stalling the tick loop.
func (s *Session) Write(msg protocol.ServerMessage) {
	select {
	case s.Out <- msg:
	default:
		s.log.WithFields(logrus.Fields{"conn": s.ConnID, "type": msg.Type}).
			Warn("outbound queue full, dropping message")
	}
}
