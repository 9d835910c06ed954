package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/weft/internal/auth"
	"github.com/yanizio/weft/internal/session"
	"github.com/yanizio/weft/internal/team"
	"github.com/yanizio/weft/internal/view"
)

type fakeMembers struct {
	teams []int64
}

func (f fakeMembers) List(context.Context, int64) ([]int64, error) {
	return f.teams, nil
}

func (f fakeMembers) IsMember(_ context.Context, _ int64, teamID int64) (bool, error) {
	for _, id := range f.teams {
		if id == teamID {
			return true, nil
		}
	}
	return false, nil
}

// setup wires the package-level singletons the handlers read: template
// registry, session store, team resolver, and the mocked activity pool.
func setup(t *testing.T, teams []int64) sqlmock.Sqlmock {
	t.Helper()

	mdb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mdb.Close() })
	Configure(sqlx.NewDb(mdb, "sqlmock"))

	reg := view.NewRegistry(false)
	for ref, src := range map[string]string{
		"dashboard/index":    `<h1>dash {{ .TeamID }}</h1>`,
		"dashboard/activity": `<p>feed {{ .ActivityCount }}</p>`,
		"dashboard/stats":    `<b>{{ .ActivityCount }}</b>`,
		"core/nav":           `<nav>{{ .ActiveSection }}</nav>`,
		"core/notices":       `{{ range .Notices }}<i>{{ .Text }}</i>{{ end }}`,
	} {
		if err := reg.AddString(ref, src); err != nil {
			t.Fatal(err)
		}
	}
	view.SetDefault(reg)

	store := session.NewMemoryStore()
	session.Configure(store)
	team.Configure(fakeMembers{teams: teams}, store)

	return mock
}

func request(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: "weft_session", Value: "sid-dash"})
	return req.WithContext(auth.WithUser(req.Context(), "42"))
}

func activityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "body", "created_at"}).
		AddRow(2, "deploy finished", time.Now()).
		AddRow(1, "build started", time.Now())
}

func TestIndexFullPage(t *testing.T) {
	mock := setup(t, []int64{7})
	mock.ExpectQuery("SELECT id, body, created_at").
		WithArgs(int64(7)).
		WillReturnRows(activityRows())

	rec := httptest.NewRecorder()
	(&Dashboard{}).Routes().ServeHTTP(rec, request("GET", "/"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dash 7") {
		t.Fatalf("body missing team id: %q", rec.Body.String())
	}
}

func TestActivityFragmentComposes(t *testing.T) {
	mock := setup(t, []int64{7})
	mock.ExpectQuery("SELECT id, body, created_at").
		WithArgs(int64(7)).
		WillReturnRows(activityRows())

	req := request("GET", "/activity")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	(&Dashboard{}).Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<p>feed 2</p>") {
		t.Fatalf("primary fragment not first: %q", body)
	}
	for _, want := range []string{
		`<div id="dash-stats" hx-swap-oob="innerHTML"><b>2</b></div>`,
		`<div id="weft-nav" hx-swap-oob="innerHTML"><nav>dashboard</nav></div>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q: %q", want, body)
		}
	}
}

func TestActivityRejectsBareNavigation(t *testing.T) {
	setup(t, []int64{7})

	rec := httptest.NewRecorder()
	(&Dashboard{}).Routes().ServeHTTP(rec, request("GET", "/activity"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestIndexBlockedRedirectsToTeamCreation(t *testing.T) {
	setup(t, nil)

	rec := httptest.NewRecorder()
	(&Dashboard{}).Routes().ServeHTTP(rec, request("GET", "/"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/teams/new" {
		t.Fatalf("location = %q", loc)
	}
}
