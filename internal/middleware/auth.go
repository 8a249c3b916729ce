package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pliu/entradas/internal/auth"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"
)

// SessionCookie carries the signed id of the logged-in user.
const SessionCookie = "session"

// AuthMiddleware rejects requests without a valid signed session cookie and
// stores the user id in the request context.
func AuthMiddleware(signer *auth.Signer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				unauthorized(w)
				return
			}

			userIDStr, err := signer.Verify(cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			userID, err := strconv.ParseInt(userIDStr, 10, 64)
			if err != nil || userID <= 0 {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the id stored by AuthMiddleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "No autorizado", "kind": "unauthorized"})
}
