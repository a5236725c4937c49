// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/durak-live/durak/internal/auth"
	"github.com/durak-live/durak/internal/middleware"
	"github.com/durak-live/durak/internal/protocol"
	"github.com/durak-live/durak/internal/server"
)

// authorizeTimeout bounds how long a fresh connection may sit unauthenticated
// before the handshake read gives up.
const authorizeTimeout = 10 * time.Second

// WSHandler upgrades the connection, runs the shared-secret authorize
// handshake, then bridges frames between the websocket and the dispatcher:
// the read pump decodes intents onto the event queue, the write pump drains
// the session's outbound queue. The handler never touches lobby state.
func WSHandler(logger *logrus.Logger, srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"durak"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "durak" {
			c.Close(BadSubprotocolError, "client must speak the durak subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// First frame must be an authorize intent carrying the server key.
		// Anything else closes the connection before a session exists.
		authCtx, authCancel := context.WithTimeout(ctx, authorizeTimeout)
		_, data, err := c.Read(authCtx)
		authCancel()
		if err != nil {
			logger.Warnf("connection from %s closed before authorize: %v", remoteAddr, err)
			return
		}
		in, err := protocol.DecodeIntent(data)
		if err != nil || in.Type != protocol.IntentAuthorize {
			c.Close(AuthorizationRejectedError, "authorize required")
			return
		}
		if err := auth.VerifyServerKey(in.Key); err != nil {
			logger.Warnf("authorization rejected for %s", remoteAddr)
			c.Close(AuthorizationRejectedError, "authorization rejected")
			return
		}

		sess := server.NewSession(logger)
		srv.Attach(sess)
		logger.Infof("connection %v authorized from %s", sess.ConnID, remoteAddr)

		// Disconnect must reach the dispatcher exactly once, whichever pump
		// fails first.
		var once sync.Once
		disconnect := func() {
			once.Do(func() { srv.Disconnect(sess.ConnID) })
		}
		defer disconnect()

		go writePump(ctx, c, sess, logger)
		readPump(ctx, c, sess, srv, logger)

		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
	}
}

// maxInvalidIntents is how many undecodable frames in a row a connection may
// send before it is closed.
const maxInvalidIntents = 5

// readPump decodes inbound frames into typed intents and enqueues them for
// the tick loop. Returns when the connection closes or errors.
func readPump(ctx context.Context, c *websocket.Conn, sess *server.Session, srv *server.Server, logger *logrus.Logger) {
	invalid := 0
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("connection %v closed normally", sess.ConnID)
			} else {
				logger.Warnf("connection %v read error: %v", sess.ConnID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("connection %v sent non-text frame, ignoring", sess.ConnID)
			continue
		}

		in, err := protocol.DecodeIntent(data)
		if err != nil {
			logger.Warnf("connection %v sent invalid intent: %v", sess.ConnID, err)
			invalid++
			if invalid >= maxInvalidIntents {
				c.Close(InvalidIntentError, "too many invalid intents")
				return
			}
			sess.Write(protocol.ErrorMessage("invalid_intent"))
			continue
		}
		invalid = 0
		if in.Type == protocol.IntentAuthorize {
			// Already authorized during the handshake.
			continue
		}
		srv.Enqueue(sess.ConnID, in)
	}
}

// writePump serializes the session's outbound queue onto the websocket and
// keeps the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, sess *server.Session, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sess.Out:
			if !ok {
				// Dispatcher tore the session down.
				c.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("connection %v failed to marshal outbound %s: %v", sess.ConnID, msg.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("connection %v write failed: %v", sess.ConnID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("connection %v ping failed, assuming disconnect: %v", sess.ConnID, err)
				return
			}
		}
	}
}
