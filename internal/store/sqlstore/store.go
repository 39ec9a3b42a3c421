// Package sqlstore implements the store contracts on database/sql. The same
// queries run on MySQL (go-sql-driver) and SQLite (modernc).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/store"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// queries implements every record store against one querier, either the pool
// or an open transaction.
type queries struct {
	q querier
}

func (r *queries) Users() store.UserStore                 { return r }
func (r *queries) Teams() store.TeamStore                 { return r }
func (r *queries) Notifications() store.NotificationStore { return r }
func (r *queries) Chats() store.ChatStore                 { return r }

// Store is a store.Store on a *sql.DB.
type Store struct {
	*queries
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an already migrated database handle.
func New(db *sql.DB) *Store {
	return &Store{queries: &queries{q: db}, db: db}
}

// WithinTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("begin transaction", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	if err := fn(ctx, &queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Store("commit transaction", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// isUniqueViolation recognises duplicate-key errors from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

// mustAffect turns a zero-row update into a not-found error.
func mustAffect(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Store("rows affected", err)
	}
	if n == 0 {
		return apperrors.NotFound(notFound)
	}
	return nil
}

func storeErr(op string, err error) error {
	return apperrors.Store(op, err)
}
