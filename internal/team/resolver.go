// internal/team/resolver.go
//
// Active-team resolution.
//
// Context
// -------
// Every request that needs team context resolves it through one state
// machine, evaluated in order:
//
//   1. URL parameter, if the caller is a member        → FromURL, persisted.
//   2. Session value, if the caller is still a member  → FromSession.
//   3. First membership (earliest created)             → FromFallback, persisted.
//   4. Nothing                                         → Blocked.
//
// A team id supplied in the URL for a team the caller does not belong to
// behaves exactly as if no id was supplied: it falls through to the
// session and fallback steps.  URL manipulation never grants access.
//
// The resolver is the single writer of the session's active-team key.
// Persisting is idempotent: re-writing an unchanged value is skipped, so
// the common steady-state request performs zero session writes.
//
// Notes
// -----
// • Membership data is read-only here; callers own caching upstream.
// • Oxford commas, two spaces after periods.

package team

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/weft/internal/fragment"
	"github.com/yanizio/weft/internal/metrics"
	"github.com/yanizio/weft/internal/session"
	"github.com/yanizio/weft/internal/view"
)

// CreatePath is where callers without any membership are sent when an
// endpoint declares team context mandatory.
const CreatePath = "/teams/new"

//
// states
//

// State records how the active team was determined.
type State int

const (
	NoTeam State = iota
	FromURL
	FromSession
	FromFallback
	Blocked
)

func (s State) String() string {
	switch s {
	case FromURL:
		return "url"
	case FromSession:
		return "session"
	case FromFallback:
		return "fallback"
	case Blocked:
		return "blocked"
	default:
		return "none"
	}
}

// Context is the resolved team binding handed to handlers.  Handlers pass
// it explicitly; nothing is injected through request state.
type Context struct {
	ID    int64
	State State
}

// Bound reports whether a team is attached.
func (tc *Context) Bound() bool { return tc.ID != 0 }

//
// resolver
//

// MembershipSource supplies the caller's team memberships.  List returns
// team ids ordered by membership creation (earliest first); the order is
// the fallback contract.
type MembershipSource interface {
	List(ctx context.Context, callerID int64) ([]int64, error)
	IsMember(ctx context.Context, callerID, teamID int64) (bool, error)
}

// Resolver runs the state machine against one membership source and one
// session store.
type Resolver struct {
	Members  MembershipSource
	Sessions session.Store
}

// Resolve evaluates the transitions for one request.  urlTeam == 0 means
// the URL supplied no team id.
func (rs *Resolver) Resolve(ctx context.Context, sid string, callerID, urlTeam int64) (*Context, error) {
	tc, err := rs.resolve(ctx, sid, callerID, urlTeam)
	if err != nil {
		return nil, err
	}
	metrics.TeamResolutionTotal.WithLabelValues(tc.State.String()).Inc()
	return tc, nil
}

func (rs *Resolver) resolve(ctx context.Context, sid string, callerID, urlTeam int64) (*Context, error) {
	// 1. URL parameter, membership-validated.
	if urlTeam != 0 {
		ok, err := rs.Members.IsMember(ctx, callerID, urlTeam)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := rs.persist(ctx, sid, urlTeam); err != nil {
				return nil, err
			}
			return &Context{ID: urlTeam, State: FromURL}, nil
		}
		// Non-member id in the URL falls through as if absent.
		zap.S().Debugw("url team rejected, caller not a member",
			"caller", callerID, "team", urlTeam)
	}

	// 2. Previously chosen team, membership re-validated every request.
	if stored, err := rs.Sessions.Get(ctx, sid, session.KeyActiveTeam); err != nil {
		return nil, err
	} else if stored != "" {
		if id, err := strconv.ParseInt(stored, 10, 64); err == nil && id > 0 {
			ok, err := rs.Members.IsMember(ctx, callerID, id)
			if err != nil {
				return nil, err
			}
			if ok {
				return &Context{ID: id, State: FromSession}, nil
			}
		}
		// Stale or corrupt value: fall through and let the fallback
		// step persist a corrected one.
	}

	// 3. First membership, stable order.
	teams, err := rs.Members.List(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(teams) > 0 {
		if err := rs.persist(ctx, sid, teams[0]); err != nil {
			return nil, err
		}
		return &Context{ID: teams[0], State: FromFallback}, nil
	}

	// 4. Nothing to bind.
	return &Context{State: Blocked}, nil
}

// persist writes the chosen team to the session, skipping the write when
// the stored value already matches.
func (rs *Resolver) persist(ctx context.Context, sid string, teamID int64) error {
	val := strconv.FormatInt(teamID, 10)
	cur, err := rs.Sessions.Get(ctx, sid, session.KeyActiveTeam)
	if err != nil {
		return err
	}
	if cur == val {
		return nil
	}
	return rs.Sessions.Set(ctx, sid, session.KeyActiveTeam, val)
}

//
// request helpers
//

// Param extracts the team id from the chi route parameter or, failing
// that, the query string.  0 means absent or malformed.
func Param(r *http.Request) int64 {
	s := chi.URLParam(r, "team")
	if s == "" {
		s = r.URL.Query().Get("team")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// Require enforces mandatory team context.  A Blocked resolution is a
// designed redirect, never a 4xx or 5xx: it queues one informational
// notice and sends the caller to team creation.  Returns true when the
// handler may proceed.
func Require(w http.ResponseWriter, r *http.Request, vc *view.Context, tc *Context) bool {
	if tc.State != Blocked {
		return true
	}
	vc.Notices.Info("Create a team to get started.")
	Redirect(w, r, CreatePath)
	return false
}

// Redirect issues a full navigation, speaking the fragment protocol when
// the request came from the fragment client.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if fragment.IsFragment(r) {
		w.Header().Set(fragment.RedirectHeader, url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

//
// package-level default
//

var defaultResolver atomic.Pointer[Resolver]

// Configure installs the process-wide resolver.  Called once from main.
func Configure(members MembershipSource, sessions session.Store) {
	defaultResolver.Store(&Resolver{Members: members, Sessions: sessions})
}

// Resolve runs the default resolver.  Panics before Configure; team-aware
// endpoints cannot operate without one.
func Resolve(ctx context.Context, sid string, callerID, urlTeam int64) (*Context, error) {
	rs := defaultResolver.Load()
	if rs == nil {
		panic("team: resolver not configured")
	}
	return rs.Resolve(ctx, sid, callerID, urlTeam)
}
