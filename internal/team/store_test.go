// internal/team/store_test.go
//
// Unit-tests for the SQL membership source using sqlmock.
//
// Run: go test ./internal/team -v

package team

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestListOrderedByCreation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"team_id"}).AddRow(5).AddRow(9))

	got, err := store.List(context.Background(), 42)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 9 {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestIsMember(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(memberQuery)).
		WithArgs(int64(42), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := store.IsMember(context.Background(), 42, 9)
	if err != nil {
		t.Fatalf("IsMember error: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok = true, got false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestIsMemberNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(memberQuery)).
		WithArgs(int64(42), int64(777)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := store.IsMember(context.Background(), 42, 777)
	if err != nil {
		t.Fatalf("IsMember error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok = false for a non-member")
	}
}
