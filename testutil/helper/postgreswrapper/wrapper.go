// Package postgreswrapper creates postgres-backed reservation stores for tests.
// The driver is selected with the ADAPTER_TYPE environment variable.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell/config"
	"github.com/AntonStoeckl/book-reservations-go/reservations/postgresengine"
)

// Adapter type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLX    = "sqlx.db"
)

const truncateAll = "TRUNCATE TABLE reservation_books, reservations, books, users"

// Wrapper abstracts over the different driver types.
type Wrapper interface {
	GetStore() *postgresengine.Store
	Exec(ctx context.Context, sqlQuery string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *postgresengine.Store
}

func (w *PGXPoolWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, sqlQuery string) error {
	_, err := w.pool.Exec(ctx, sqlQuery)
	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db    *sql.DB
	store *postgresengine.Store
}

func (w *SQLDBWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *SQLDBWrapper) Exec(ctx context.Context, sqlQuery string) error {
	_, err := w.db.ExecContext(ctx, sqlQuery)
	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close()
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db    *sqlx.DB
	store *postgresengine.Store
}

func (w *SQLXWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *SQLXWrapper) Exec(ctx context.Context, sqlQuery string) error {
	_, err := w.db.ExecContext(ctx, sqlQuery)
	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close()
}

// CreateWrapperWithTestConfig connects to the test database with the driver selected by ADAPTER_TYPE,
// migrates the schema, and returns the wrapper. Options are passed on to the store.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	ctx := context.Background()
	dsn := config.PostgresTestDSN()
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	var wrapper Wrapper

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		pool, err := config.NewPGXPool(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")
		store, err := postgresengine.NewStoreFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating the store in test setup")
		wrapper = &PGXPoolWrapper{pool: pool, store: store}

	case typeSQLDB:
		db, err := config.NewSQLDB(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating the store in test setup")
		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLX:
		db, err := config.NewSQLX(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating the store in test setup")
		wrapper = &SQLXWrapper{db: db, store: store}

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}

	require.NoError(t, wrapper.GetStore().Migrate(ctx), "error migrating the schema in test setup")

	return wrapper
}

// CleanUp removes all rows from all tables.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	require.NoError(t, wrapper.Exec(context.Background(), truncateAll), "error cleaning up the tables")
}
