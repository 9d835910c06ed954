// internal/team/store.go
//
// SQL-backed membership source.
//
// Context
// -------
// Memberships live in one table:
//
//	CREATE TABLE membership (
//	    id         BIGINT PRIMARY KEY AUTO_INCREMENT,
//	    user_id    BIGINT NOT NULL,
//	    team_id    BIGINT NOT NULL,
//	    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    UNIQUE KEY uq_membership (user_id, team_id)
//	);
//
// List orders by (created_at, id) so the fallback step always picks the
// caller's earliest membership, with the id as a deterministic tiebreaker.
// Concurrent List calls for the same caller collapse through singleflight;
// nothing is cached, so every request still sees current rows.

package team

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
)

const (
	listQuery = `SELECT team_id FROM membership WHERE user_id = ? ORDER BY created_at, id`

	memberQuery = `SELECT 1 FROM membership WHERE user_id = ? AND team_id = ? LIMIT 1`
)

// SQLStore implements MembershipSource on a sqlx pool.
type SQLStore struct {
	db  *sqlx.DB
	sfg singleflight.Group
}

// NewSQLStore wraps db.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// List implements MembershipSource.
func (s *SQLStore) List(ctx context.Context, callerID int64) ([]int64, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(callerID, 10), func() (any, error) {
		var ids []int64
		if err := s.db.SelectContext(ctx, &ids, listQuery, callerID); err != nil {
			return nil, err
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]int64), nil
}

// IsMember implements MembershipSource.
func (s *SQLStore) IsMember(ctx context.Context, callerID, teamID int64) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one, memberQuery, callerID, teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
