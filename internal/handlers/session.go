// internal/handlers/session.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/durak-live/durak/internal/auth"
)

// CreateSessionHandler mints an ephemeral session token for dashboard-style
// HTTP clients (room listing). No account exists behind it: the subject is a
// throwaway ID and the token dies with the process that signed it.
func CreateSessionHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := uuid.New()
		token, err := auth.CreateJWT(subject.String())
		if err != nil {
			logger.Errorf("failed to create session token: %v", err)
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			HttpOnly: true,
			Path:     "/",
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"session_id": subject.String(),
			"token":      token,
		})
	}
}
