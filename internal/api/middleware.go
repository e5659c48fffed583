package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bobarin/aistudio/internal/db"
	"github.com/bobarin/aistudio/internal/models"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type ctxKey string

const userKey ctxKey = "user"

// RequireUser resolves the bearer token to a user. Missing, invalid or
// expired tokens and unknown users are all rejected with 401.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}

		email, err := h.tokens.Verify(token)
		if err != nil {
			unauthorized(w)
			return
		}

		user, err := h.store.GetUserByEmail(r.Context(), email)
		if errors.Is(err, db.ErrNotFound) {
			unauthorized(w)
			return
		}
		if err != nil {
			h.log.Error().Err(err).Msg("failed to load user for token")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondError(w, http.StatusUnauthorized, "Could not validate credentials")
}

// currentUser is only valid behind RequireUser.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}

// RequestLogger writes one access log line per request and attaches a
// request-scoped logger to the context for zerolog.Ctx.
func RequestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := l.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(reqLog.WithContext(r.Context()))
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			l.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}
