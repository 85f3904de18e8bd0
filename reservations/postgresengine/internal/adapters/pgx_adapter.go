package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXAdapter implements DBAdapter for pgxpool.Pool.
type PGXAdapter struct {
	pool        *pgxpool.Pool
	replicaPool *pgxpool.Pool // optional replica for read operations
}

// NewPGXAdapter creates a new PGX adapter with a primary pool.
func NewPGXAdapter(pool *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{pool: pool}
}

// NewPGXAdapterWithReplica creates a new PGX adapter with a primary pool and a replica pool.
func NewPGXAdapterWithReplica(pool *pgxpool.Pool, replica *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{pool: pool, replicaPool: replica}
}

// Query executes a query on the primary pool.
func (p *PGXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	return pgxQuery(ctx, p.pool, query)
}

// QueryReplica executes a query using the replica pool if available, otherwise the primary pool.
func (p *PGXAdapter) QueryReplica(ctx context.Context, query string) (DBRows, error) {
	if p.replicaPool != nil {
		return pgxQuery(ctx, p.replicaPool, query)
	}

	return pgxQuery(ctx, p.pool, query)
}

// Exec executes a statement on the primary pool.
func (p *PGXAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return pgxExec(ctx, p.pool, query)
}

// BeginTx opens a transaction on the primary pool.
func (p *PGXAdapter) BeginTx(ctx context.Context) (DBTx, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}

	return &pgxTx{tx: tx}, nil
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgxQuery(ctx context.Context, querier pgxQuerier, query string) (DBRows, error) {
	rows, err := querier.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

func pgxExec(ctx context.Context, querier pgxQuerier, query string) (DBResult, error) {
	tag, err := querier.Exec(ctx, query)
	if err != nil {
		return nil, err
	}

	return &pgxResult{tag: tag}, nil
}

// pgxTx wraps pgx.Tx to implement the DBTx interface.
type pgxTx struct {
	tx pgx.Tx
}

func (p *pgxTx) Query(ctx context.Context, query string) (DBRows, error) {
	return pgxQuery(ctx, p.tx, query)
}

func (p *pgxTx) Exec(ctx context.Context, query string) (DBResult, error) {
	return pgxExec(ctx, p.tx, query)
}

func (p *pgxTx) Commit(ctx context.Context) error {
	return p.tx.Commit(ctx)
}

func (p *pgxTx) Rollback(ctx context.Context) error {
	return p.tx.Rollback(ctx)
}

// pgxRows wraps pgx.Rows to implement the DBRows interface.
type pgxRows struct {
	rows pgx.Rows
}

// Next advances to the next row.
func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

// Scan copies row values into provided destinations.
func (p *pgxRows) Scan(dest ...any) error {
	return p.rows.Scan(dest...)
}

// Err returns the error, if any, that was encountered during iteration.
func (p *pgxRows) Err() error {
	return p.rows.Err()
}

// Close closes the rows iterator.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}

// pgxResult wraps pgconn.CommandTag to implement the DBResult interface.
type pgxResult struct {
	tag pgconn.CommandTag
}

// RowsAffected returns the number of rows affected by the command.
func (p *pgxResult) RowsAffected() (int64, error) {
	return p.tag.RowsAffected(), nil
}
