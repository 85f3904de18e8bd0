package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB.
type SQLAdapter struct {
	db      *sql.DB
	replica *sql.DB
}

// NewSQLAdapter creates a new SQL adapter.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// NewSQLAdapterWithReplica creates a new SQL adapter with a primary and a replica connection.
func NewSQLAdapterWithReplica(db *sql.DB, replica *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, replica: replica}
}

func (s *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	return stdQuery(ctx, s.db, query)
}

func (s *SQLAdapter) QueryReplica(ctx context.Context, query string) (DBRows, error) {
	if s.replica != nil {
		return stdQuery(ctx, s.replica, query)
	}

	return stdQuery(ctx, s.db, query)
}

func (s *SQLAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return stdExec(ctx, s.db, query)
}

func (s *SQLAdapter) BeginTx(ctx context.Context) (DBTx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}

	return &stdTx{querier: tx, commit: tx.Commit, rollback: tx.Rollback}, nil
}
