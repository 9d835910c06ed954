package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/weft/internal/session"
)

func setup(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	mdb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mdb.Close() })
	Configure(sqlx.NewDb(mdb, "sqlmock"))

	session.Configure(session.NewMemoryStore())
	return mock
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	mock := setup(t)
	stored := hash(t, "correct horse")

	mock.ExpectQuery("SELECT id, password_hash FROM user").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("42", stored))

	uid, err := authenticate(context.Background(), db(), loginInput{
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatal(err)
	}
	if uid != "42" {
		t.Fatalf("uid = %q, want 42", uid)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	mock := setup(t)
	stored := hash(t, "correct horse")

	mock.ExpectQuery("SELECT id, password_hash FROM user").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("42", stored))

	uid, err := authenticate(context.Background(), db(), loginInput{
		Email:    "ada@example.com",
		Password: "wrong battery staple",
	})
	if err != nil {
		t.Fatal(err)
	}
	if uid != "" {
		t.Fatalf("wrong password authenticated as %q", uid)
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	mock := setup(t)

	mock.ExpectQuery("SELECT id, password_hash FROM user").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}))

	uid, err := authenticate(context.Background(), db(), loginInput{
		Email:    "nobody@example.com",
		Password: "whatever works",
	})
	if err != nil {
		t.Fatal(err)
	}
	if uid != "" {
		t.Fatalf("unknown email authenticated as %q", uid)
	}
}

func TestLoginBindsSessionAndRaisesFlag(t *testing.T) {
	mock := setup(t)
	stored := hash(t, "correct horse")

	mock.ExpectQuery("SELECT id, password_hash FROM user").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("42", stored))

	form := url.Values{"email": {"ada@example.com"}, "password": {"correct horse"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "weft_session", Value: "sid-login"})

	rec := httptest.NewRecorder()
	(&Auth{}).Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	store := session.Default()
	if uid, _ := store.Get(context.Background(), "sid-login", session.KeyUserID); uid != "42" {
		t.Fatalf("session user id = %q, want 42", uid)
	}
	if flag, _ := store.Get(context.Background(), "sid-login", session.KeyJustAuthenticated); flag != "1" {
		t.Fatalf("login flag = %q, want 1", flag)
	}
}

func TestLogoutClearsIdentity(t *testing.T) {
	setup(t)
	store := session.Default()
	for _, kv := range [][2]string{
		{session.KeyUserID, "42"},
		{session.KeyActiveTeam, "7"},
	} {
		if err := store.Set(context.Background(), "sid-out", kv[0], kv[1]); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "weft_session", Value: "sid-out"})
	rec := httptest.NewRecorder()
	(&Auth{}).Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if uid, _ := store.Get(context.Background(), "sid-out", session.KeyUserID); uid != "" {
		t.Fatalf("user id survived logout: %q", uid)
	}
	if team, _ := store.Get(context.Background(), "sid-out", session.KeyActiveTeam); team != "" {
		t.Fatalf("active team survived logout: %q", team)
	}
}
