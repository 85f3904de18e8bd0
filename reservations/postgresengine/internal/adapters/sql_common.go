package adapters

import (
	"context"
	"database/sql"
)

// stdQuerier is the part of *sql.DB, *sql.Tx, *sqlx.DB, and *sqlx.Tx the adapters use.
type stdQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func stdQuery(ctx context.Context, querier stdQuerier, query string) (DBRows, error) {
	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

func stdExec(ctx context.Context, querier stdQuerier, query string) (DBResult, error) {
	result, err := querier.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

// stdTx wraps a database/sql based transaction. The context of Commit and Rollback is unused,
// database/sql binds the transaction to the context given to BeginTx.
type stdTx struct {
	querier  stdQuerier
	commit   func() error
	rollback func() error
}

func (s *stdTx) Query(ctx context.Context, query string) (DBRows, error) {
	return stdQuery(ctx, s.querier, query)
}

func (s *stdTx) Exec(ctx context.Context, query string) (DBResult, error) {
	return stdExec(ctx, s.querier, query)
}

func (s *stdTx) Commit(_ context.Context) error {
	return s.commit()
}

func (s *stdTx) Rollback(_ context.Context) error {
	return s.rollback()
}

// stdRows wraps standard library sql.Rows to implement DBRows interface.
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps standard library sql.Result to implement DBResult interface.
type stdResult struct {
	result sql.Result
}

func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}
