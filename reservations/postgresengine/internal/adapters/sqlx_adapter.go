package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

// Query executes a query using the sqlx.DB and returns wrapped rows.
func (s *SQLXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	return stdQuery(ctx, s.db, query)
}

// QueryReplica has no replica to use, sqlx connections are primary only.
func (s *SQLXAdapter) QueryReplica(ctx context.Context, query string) (DBRows, error) {
	return stdQuery(ctx, s.db, query)
}

// Exec executes a query using the sqlx.DB and returns wrapped result.
func (s *SQLXAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return stdExec(ctx, s.db, query)
}

// BeginTx opens a sqlx transaction.
func (s *SQLXAdapter) BeginTx(ctx context.Context) (DBTx, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}

	return &stdTx{querier: tx, commit: tx.Commit, rollback: tx.Rollback}, nil
}
