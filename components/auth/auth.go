// components/auth/auth.go
//
// Auth component: login and logout.
//
// Context
// -------
// Login verifies an email/password pair against the user table, binds
// the user id to the session, and raises the one-shot login flag the
// dispatcher consumes on the next request.  Logout drops the identity
// and the active-team binding together, so a returning user re-resolves
// their team from scratch.
//
// Notes
// -----
// • Password hashes are bcrypt; the cost lives in the stored hash.
// • Failed logins re-render the form with a generic error notice, never
//   revealing whether the email exists.
// • Oxford commas, two spaces after periods.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/weft/internal/component"
	"github.com/yanizio/weft/internal/config"
	"github.com/yanizio/weft/internal/dispatch"
	"github.com/yanizio/weft/internal/fragment"
	"github.com/yanizio/weft/internal/session"
)

func init() { component.Register(&Auth{}) }

// Auth is the login/logout component.
type Auth struct{}

func (*Auth) Name() string { return "auth" }

func (*Auth) Templates() []string { return []string{"auth/login"} }

func (*Auth) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/login", loginForm)
	r.Post("/login", login)
	r.Post("/logout", logout)
	return r
}

//
// credential lookup
//

const credentialQuery = `SELECT id, password_hash FROM user WHERE email = ? LIMIT 1`

type credentials struct {
	ID           string `db:"id"`
	PasswordHash string `db:"password_hash"`
}

// loginInput is validated before any database work happens.
type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// authenticate returns the user id for a valid email/password pair, or
// "" when either the user is unknown or the password does not match.
func authenticate(ctx context.Context, db *sqlx.DB, in loginInput) (string, error) {
	var c credentials
	err := db.GetContext(ctx, &c, credentialQuery, in.Email)
	if errors.Is(err, sql.ErrNoRows) {
		// Burn a comparison anyway so unknown emails cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
			[]byte(in.Password))
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(in.Password)) != nil {
		return "", nil
	}
	return c.ID, nil
}

//
// handlers
//

func loginForm(w http.ResponseWriter, r *http.Request) {
	vc := dispatch.Open(w, r)
	_ = dispatch.Render(w, vc, "auth/login")
}

func login(w http.ResponseWriter, r *http.Request) {
	vc := dispatch.Open(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := loginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	uid := ""
	if err := config.Validate(in); err == nil {
		var aerr error
		uid, aerr = authenticate(r.Context(), db(), in)
		if aerr != nil {
			zap.S().Errorw("credential lookup failed", "err", aerr)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	if uid == "" {
		vc.Set("LoginError", "That email and password combination was not recognized.")
		vc.Set("Email", in.Email)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = dispatch.Render(w, vc, "auth/login")
		return
	}

	store := session.Default()
	if err := store.Set(r.Context(), vc.SessionID, session.KeyUserID, uid); err != nil {
		zap.S().Errorw("session write failed", "key", session.KeyUserID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := store.Set(r.Context(), vc.SessionID, session.KeyJustAuthenticated, "1"); err != nil {
		zap.S().Errorw("session write failed", "key", session.KeyJustAuthenticated, "err", err)
	}

	redirect(w, r, "/dashboard")
}

func logout(w http.ResponseWriter, r *http.Request) {
	sid := session.ID(w, r)
	store := session.Default()

	// Drop identity and team binding; everything else in the session is
	// harmless without them.
	for _, key := range []string{session.KeyUserID, session.KeyActiveTeam, session.KeyJustAuthenticated} {
		if err := store.Delete(r.Context(), sid, key); err != nil {
			zap.S().Warnw("session delete failed", "key", key, "err", err)
		}
	}
	session.Clear(w)

	redirect(w, r, "/auth/login")
}

// redirect issues a full navigation, speaking the fragment protocol when
// the request came from the fragment client.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if fragment.IsFragment(r) {
		w.Header().Set(fragment.RedirectHeader, url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

//
// wiring
//

var userDB *sqlx.DB

// Configure hands the component its database pool.  Called once from
// main before the server starts.
func Configure(d *sqlx.DB) { userDB = d }

func db() *sqlx.DB { return userDB }
