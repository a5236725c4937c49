// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the session transport. These provide
// more specific reasons for closure than standard codes.
const (
	BadSubprotocolError        = 3000 // Client connected with an unsupported subprotocol.
	AuthorizationRejectedError = 3001 // Authorize handshake missing, malformed, or carrying a bad key.
	InvalidIntentError         = 3002 // Client sent frames the intent decoder repeatedly rejected.
)
