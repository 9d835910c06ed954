package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/weft/internal/auth"
	"github.com/yanizio/weft/internal/session"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	for _, h := range []string{
		"Strict-Transport-Security",
		"Content-Security-Policy",
		"X-Frame-Options",
		"X-Content-Type-Options",
		"Referrer-Policy",
		"Permissions-Policy",
	} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestSecurityKeepsExistingHeader(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Security(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
		t.Fatalf("handler value overwritten: %q", got)
	}
}

func TestForceHTTPSRedirects(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/teams/new?x=1", nil)
	rec := httptest.NewRecorder()
	ForceHTTPS(true, okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("status = %d, want 308", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/teams/new?x=1" {
		t.Fatalf("location = %q", loc)
	}
}

func TestForceHTTPSSkipsLocalhost(t *testing.T) {
	req := httptest.NewRequest("GET", "http://localhost:8080/", nil)
	rec := httptest.NewRecorder()
	ForceHTTPS(true, okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestForceHTTPSDisabledPassesThrough(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	rec := httptest.NewRecorder()
	ForceHTTPS(false, okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestIdentityBindsUser(t *testing.T) {
	store := session.NewMemoryStore()
	session.Configure(store)
	if err := store.Set(context.Background(), "sid-1", session.KeyUserID, "42"); err != nil {
		t.Fatal(err)
	}

	var got string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.UserID(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "weft_session", Value: "sid-1"})
	Identity(inner).ServeHTTP(httptest.NewRecorder(), req)

	if got != "42" {
		t.Fatalf("user id = %q, want 42", got)
	}
}

func TestIdentityAnonymous(t *testing.T) {
	session.Configure(session.NewMemoryStore())

	var got string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.UserID(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "weft_session", Value: "sid-unknown"})
	Identity(inner).ServeHTTP(httptest.NewRecorder(), req)

	if got != "" {
		t.Fatalf("anonymous request got user id %q", got)
	}
}
