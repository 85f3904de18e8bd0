package adapters

import "context"

// DBExecutor runs plain SQL strings. Both a connection pool and an open transaction are executors.
type DBExecutor interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the record store.
type DBAdapter interface {
	DBExecutor

	// QueryReplica runs a read on the replica if one is configured, otherwise on the primary.
	QueryReplica(ctx context.Context, query string) (DBRows, error)

	// BeginTx opens a READ COMMITTED transaction on the primary.
	BeginTx(ctx context.Context) (DBTx, error)
}

// DBTx is an open transaction.
type DBTx interface {
	DBExecutor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
