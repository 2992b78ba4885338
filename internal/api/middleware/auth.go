package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/idozri/vidto-listen/internal/auth"
	"github.com/idozri/vidto-listen/internal/session"
)

type contextKey string

const (
	ClaimsKey  contextKey = "session_claims"
	SessionKey contextKey = "session"
)

// SessionAuth resolves the bearer token to a live session. Browsers cannot
// set headers on WebSocket or <video> requests, so a ?token= query
// parameter is accepted as well.
func SessionAuth(jwtService *auth.JWTService, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			s, err := sessions.Get(claims.SessionID)
			if err != nil {
				writeError(w, "session expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, SessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, nil
		}
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}

func GetClaims(r *http.Request) *auth.Claims {
	claims, ok := r.Context().Value(ClaimsKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetSession returns the session resolved by SessionAuth.
func GetSession(r *http.Request) *session.Session {
	s, ok := r.Context().Value(SessionKey).(*session.Session)
	if !ok {
		return nil
	}
	return s
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
