// components/teams/teams.go
//
// Teams component: team switching and creation.
//
// Context
// -------
// POST /teams/{team}/switch is fragment-only: it re-resolves the team
// context with the URL taking priority, persists the new binding, and
// composes the team indicator plus navigation with the address bar
// pushed to the new team's canonical URL.  GET /teams/new is the full
// page every blocked resolution redirects to.
//
// Notes
// -----
// • A switch to a team the caller is not a member of silently falls
//   back down the resolution ladder; the composed indicator shows the
//   team that actually bound.
// • Oxford commas, two spaces after periods.
package teams

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/weft/internal/auth"
	"github.com/yanizio/weft/internal/component"
	"github.com/yanizio/weft/internal/dispatch"
	"github.com/yanizio/weft/internal/fragment"
	"github.com/yanizio/weft/internal/team"
)

func init() { component.Register(&Teams{}) }

// Teams is the team-management component.
type Teams struct{}

func (*Teams) Name() string { return "teams" }

func (*Teams) Templates() []string { return []string{"teams/current", "teams/new"} }

func (*Teams) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", create)
	r.Post("/{team}/switch", fragment.Require(switchTeam))
	r.Get("/new", createForm)
	return r
}

func switchTeam(w http.ResponseWriter, r *http.Request) {
	vc := dispatch.Open(w, r)

	tc, err := team.Resolve(r.Context(), vc.SessionID, auth.NumericID(r.Context()), team.Param(r))
	if err != nil {
		zap.S().Errorw("team resolution failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !team.Require(w, r, vc, tc) {
		return
	}

	if tc.ID != team.Param(r) {
		vc.Notices.Warning("You are not a member of that team; staying on your current team.")
	}
	vc.Set("TeamID", tc.ID)
	vc.Set("TeamSource", tc.State.String())

	err = fragment.Compose(w, r, vc,
		fragment.Descriptor{Target: "team-current", Template: "teams/current"},
		fragment.Options{
			ActiveSection: "teams",
			PushURL:       fmt.Sprintf("/teams/%d/", tc.ID),
		})
	if err != nil {
		fragment.WriteError(w)
	}
}

func createForm(w http.ResponseWriter, r *http.Request) {
	vc := dispatch.Open(w, r)
	vc.Set("ActiveSection", "teams")
	_ = dispatch.Render(w, vc, "teams/new")
}

//
// creation
//

const (
	insertTeamQuery   = `INSERT INTO team (name) VALUES (?)`
	insertMemberQuery = `INSERT INTO membership (user_id, team_id) VALUES (?, ?)`
)

func create(w http.ResponseWriter, r *http.Request) {
	uid := auth.NumericID(r.Context())
	if uid == 0 {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		http.Redirect(w, r, "/teams/new", http.StatusSeeOther)
		return
	}

	// Team plus founding membership in one transaction: a team without a
	// member is unreachable by every resolution path.
	err := withTx(r.Context(), func(tx *sqlx.Tx) error {
		res, err := tx.Exec(insertTeamQuery, name)
		if err != nil {
			return err
		}
		teamID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		_, err = tx.Exec(insertMemberQuery, uid, teamID)
		return err
	})
	if err != nil {
		zap.S().Errorw("team creation failed", "user", uid, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

//
// wiring
//

var teamDB *sqlx.DB

// Configure hands the component its database pool.
func Configure(d *sqlx.DB) { teamDB = d }

func db() *sqlx.DB { return teamDB }
