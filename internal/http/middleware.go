package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pushpak01/pushtoys-render/internal/session"
)

type contextKey string

const (
	sessionContextKey   contextKey = "session"
	requestIDContextKey contextKey = "request_id"
)

const (
	sessionCookieName = "session_id"
	sessionCookieAge  = 14 * 24 * time.Hour
	userSessionKey    = "user_id"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware attaches the visitor's session to the request context.
// First-time visitors get a fresh session id cookie. A session that cannot
// be loaded starts empty rather than failing the request, and any session
// the handlers modified is written back after they return.
func SessionMiddleware(store session.Store, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(sessionCookieName); err == nil {
				sessionID = cookie.Value
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionCookieAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			values, err := store.Load(r.Context(), sessionID)
			if err != nil {
				// covers both brand new visitors and an unreachable store
				values = nil
			}
			sess := session.New(sessionID, values)

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))

			if sess.Modified() {
				if err := store.Save(r.Context(), sessionID, sess.Values()); err != nil {
					log.Warnw("session save failed", "session_id", sessionID, "err", err)
				}
			}
		})
	}
}

// RequireUser rejects requests whose session carries no logged-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getUserIDFromContext(r.Context()) == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getSessionFromContext(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(sessionContextKey).(*session.Session); ok {
		return sess
	}
	return nil
}

func getUserIDFromContext(ctx context.Context) string {
	sess := getSessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	var userID string
	if !sess.Get(userSessionKey, &userID) {
		return ""
	}
	return userID
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok {
		return requestID
	}
	return ""
}
