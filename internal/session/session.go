// internal/session/session.go
//
// Session cookie helpers.
//
// Context
//   The cookie carries only an opaque session id; every value lives in the
//   Store keyed by that id.  ID is called by the dispatcher on each request
//   and mints a new id on first contact, so handlers can always assume a
//   usable session.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

const cookieName = "weft_session"

// ID returns the request's session id, issuing a fresh one (and the cookie
// that carries it) when none exists.
func ID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	sid := newID()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
	return sid
}

// Clear expires the session cookie.  Stored values age out via the store's
// own TTL; logout callers should also delete KeyActiveTeam explicitly.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// newID returns 32 hex chars of crypto randomness.
func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
