package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/weft/internal/auth"
	"github.com/yanizio/weft/internal/session"
)

// Identity resolves the session's user id and attaches it to the
// request context.  Store errors degrade to anonymous rather than
// failing the request; the session backend being down should not take
// public pages with it.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := session.ID(w, r)
		uid, err := session.Default().Get(r.Context(), sid, session.KeyUserID)
		if err != nil {
			zap.S().Warnw("identity lookup failed", "err", err)
		}
		if uid != "" {
			r = r.WithContext(auth.WithUser(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}
