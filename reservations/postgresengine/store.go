package postgresengine

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/postgresengine/internal/adapters"
)

const defaultTransactionTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// Store is the PostgreSQL reservations.Store.
type Store struct {
	db               adapters.DBAdapter
	clock            func() time.Time
	txTimeout        time.Duration
	logger           reservations.Logger
	contextualLogger reservations.ContextualLogger
	metricsCollector reservations.MetricsCollector
	tracingCollector reservations.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, reservations.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromPGXPoolAndReplica creates a new Store using a primary pgx Pool and a replica pool.
// Reads run on the replica only when the context asks for reservations.EventualConsistency.
func NewStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil || replica == nil {
		return nil, reservations.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, reservations.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLDBAndReplica creates a new Store using a primary sql.DB and a replica sql.DB.
func NewStoreFromSQLDBAndReplica(db *sql.DB, replica *sql.DB, options ...Option) (*Store, error) {
	if db == nil || replica == nil {
		return nil, reservations.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, reservations.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	store := &Store{
		db:        db,
		clock:     time.Now,
		txTimeout: defaultTransactionTimeout,
	}

	for _, option := range options {
		if err := option(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, statement := range strings.Split(schemaSQL, ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}

		if _, err := s.db.Exec(ctx, statement); err != nil {
			s.logError(ctx, logMsgMigrationFailed, err, logAttrQuery, statement)
			return errors.Join(reservations.ErrExecFailed, err)
		}
	}

	s.logOperation(ctx, logMsgMigrated)

	return nil
}

// WithinTx runs fn in one READ COMMITTED transaction bounded by the transaction timeout.
// The transaction is rolled back when fn fails, fn's error is returned unchanged.
func (s *Store) WithinTx(ctx context.Context, fn reservations.TxFunc) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	ctx, span := s.startTraceSpan(ctx, spanNameTx, nil)
	start := time.Now()

	dbTx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(ctx, logMsgBeginTxFailed, beginErr)
		s.recordErrorMetrics(ctx, operationBeginTx)
		s.finishTraceSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeBeginTx})

		return errors.Join(reservations.ErrBeginTxFailed, classify(beginErr))
	}

	txView := &tx{
		reader: reader{store: s, query: dbTx.Query},
		exec:   dbTx,
	}

	if fnErr := fn(ctx, txView); fnErr != nil {
		s.rollback(ctx, dbTx)
		s.recordDurationMetrics(ctx, MetricTxDuration, time.Since(start), operationTx, statusRolledBack)
		s.finishTraceSpan(span, statusRolledBack, nil)

		return fnErr
	}

	if commitErr := dbTx.Commit(ctx); commitErr != nil {
		s.rollback(ctx, dbTx)
		s.logError(ctx, logMsgCommitFailed, commitErr)
		s.recordErrorMetrics(ctx, operationCommit)
		s.finishTraceSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeCommit})

		return errors.Join(reservations.ErrCommitFailed, classify(commitErr))
	}

	duration := time.Since(start)
	s.recordDurationMetrics(ctx, MetricTxDuration, duration, operationTx, statusSuccess)
	s.finishTraceSpan(span, statusSuccess, nil)
	s.logOperation(ctx, logMsgTxCommitted, logAttrDurationMS, toMilliseconds(duration))

	return nil
}

func (s *Store) rollback(ctx context.Context, dbTx adapters.DBTx) {
	if err := dbTx.Rollback(context.WithoutCancel(ctx)); err != nil {
		s.logWarn(ctx, logMsgRollbackFailed, logAttrError, err.Error())
	}
}

// readerFor picks the primary or, for eventual consistency, the replica.
func (s *Store) readerFor(ctx context.Context) reader {
	if reservations.GetConsistencyLevel(ctx) == reservations.EventualConsistency {
		return reader{store: s, query: s.db.QueryReplica}
	}

	return reader{store: s, query: s.db.Query}
}

func (s *Store) GetBook(ctx context.Context, bookID uuid.UUID) (reservations.Book, error) {
	return s.readerFor(ctx).GetBook(ctx, bookID)
}

func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (reservations.Book, error) {
	return s.readerFor(ctx).GetBookByISBN(ctx, isbn)
}

func (s *Store) ListBooks(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.Book], error) {
	return s.readerFor(ctx).ListBooks(ctx, page)
}

func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (reservations.User, error) {
	return s.readerFor(ctx).GetUser(ctx, userID)
}

func (s *Store) ListUsers(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.User], error) {
	return s.readerFor(ctx).ListUsers(ctx, page)
}

func (s *Store) GetReservation(ctx context.Context, reservationID uuid.UUID) (reservations.Reservation, error) {
	return s.readerFor(ctx).GetReservation(ctx, reservationID)
}

func (s *Store) ListReservations(
	ctx context.Context,
	page reservations.PageRequest,
) (reservations.Page[reservations.Reservation], error) {
	return s.readerFor(ctx).ListReservations(ctx, page)
}

func (s *Store) FindActiveReservationsCreatedBefore(ctx context.Context, cutoff time.Time) (reservations.Reservations, error) {
	return s.readerFor(ctx).FindActiveReservationsCreatedBefore(ctx, cutoff)
}

func (s *Store) FindReservationsByUser(ctx context.Context, userID uuid.UUID) (reservations.Reservations, error) {
	return s.readerFor(ctx).FindReservationsByUser(ctx, userID)
}
