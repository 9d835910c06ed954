// components/dashboard/dashboard.go
//
// Dashboard component: the landing page and its activity fragment.
//
// Context
// -------
// GET /dashboard serves the full page; GET /dashboard/activity is
// fragment-only and re-renders the main column, its stats sidebar, and
// the navigation highlight in one composed response.  Both endpoints
// require a bound team and delegate the no-team case to the resolver's
// redirect.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/weft/internal/auth"
	"github.com/yanizio/weft/internal/component"
	"github.com/yanizio/weft/internal/dispatch"
	"github.com/yanizio/weft/internal/fragment"
	"github.com/yanizio/weft/internal/team"
	"github.com/yanizio/weft/internal/view"
)

func init() { component.Register(&Dashboard{}) }

// Dashboard is the landing-page component.
type Dashboard struct{}

func (*Dashboard) Name() string { return "dashboard" }

func (*Dashboard) Templates() []string {
	return []string{"dashboard/index", "dashboard/activity", "dashboard/stats"}
}

func (*Dashboard) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", index)
	r.Get("/activity", fragment.Require(activity))
	return r
}

//
// activity feed
//

const activityQuery = `
SELECT id, body, created_at
FROM activity
WHERE team_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 20`

// Activity is one feed row.
type Activity struct {
	ID        int64     `db:"id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

func recentActivity(ctx context.Context, teamID int64) ([]Activity, error) {
	var rows []Activity
	err := db().SelectContext(ctx, &rows, activityQuery, teamID)
	return rows, err
}

//
// handlers
//

func index(w http.ResponseWriter, r *http.Request) {
	vc := dispatch.Open(w, r)

	tc, err := resolveTeam(w, r, vc)
	if tc == nil {
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if !populate(w, r, vc, tc) {
		return
	}
	vc.Set("ActiveSection", "dashboard")
	_ = dispatch.Render(w, vc, "dashboard/index")
}

func activity(w http.ResponseWriter, r *http.Request) {
	vc := dispatch.Open(w, r)

	tc, err := resolveTeam(w, r, vc)
	if tc == nil {
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if !populate(w, r, vc, tc) {
		return
	}

	err = fragment.Compose(w, r, vc,
		fragment.Descriptor{Target: "weft-main", Template: "dashboard/activity"},
		fragment.Options{
			Secondary:     []fragment.Descriptor{{Target: "dash-stats", Template: "dashboard/stats"}},
			ActiveSection: "dashboard",
		})
	if err != nil {
		fragment.WriteError(w)
	}
}

// resolveTeam runs the resolver and the mandatory-team gate.  A nil
// return with nil error means the gate already answered the request.
func resolveTeam(w http.ResponseWriter, r *http.Request, vc *view.Context) (*team.Context, error) {
	tc, err := team.Resolve(r.Context(), vc.SessionID, callerID(r), team.Param(r))
	if err != nil {
		zap.S().Errorw("team resolution failed", "err", err)
		return nil, err
	}
	if !team.Require(w, r, vc, tc) {
		return nil, nil
	}
	return tc, nil
}

// populate loads the feed and derived stats into the context.  Returns
// false after answering the request on a load failure.
func populate(w http.ResponseWriter, r *http.Request, vc *view.Context, tc *team.Context) bool {
	rows, err := recentActivity(r.Context(), tc.ID)
	if err != nil {
		zap.S().Errorw("activity load failed", "team", tc.ID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	vc.Set("TeamID", tc.ID)
	vc.Set("Activity", rows)
	vc.Set("ActivityCount", len(rows))
	return true
}

// callerID maps the request identity onto the resolver's numeric caller
// id.  Anonymous requests resolve as caller 0, which never has
// memberships and therefore lands in the blocked state.
func callerID(r *http.Request) int64 {
	return auth.NumericID(r.Context())
}

//
// wiring
//

var activityDB *sqlx.DB

// Configure hands the component its database pool.
func Configure(d *sqlx.DB) { activityDB = d }

func db() *sqlx.DB { return activityDB }
