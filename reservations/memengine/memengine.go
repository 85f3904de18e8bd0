package memengine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	tableBooks        = "books"
	tableUsers        = "users"
	tableReservations = "reservations"
	indexID           = "id"
	indexISBN         = "isbn"
	indexUsername     = "username"
	indexEmail        = "email"
	indexUserID       = "user_id"
	indexStatus       = "status"
	logMsgTxRollback  = "memengine transaction rolled back"
	logMsgTxCommitted = "memengine transaction committed"
	logAttrError      = "error"
	logAttrDurationMS = "duration_ms"
)

// Store is an in-memory reservations.Store.
//
// Write transactions are serialized by go-memdb, so every conditional update is trivially atomic.
// Read operations outside a transaction run on an immutable snapshot.
type Store struct {
	db     *memdb.MemDB
	clock  func() time.Time
	logger reservations.Logger
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithClock sets the time source used for counter update timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) error {
		s.clock = clock
		return nil
	}
}

// WithLogger sets the logger for the Store. Debug level only.
func WithLogger(logger reservations.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStore creates an empty in-memory Store.
func NewStore(options ...Option) (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}

	store := &Store{
		db:    db,
		clock: time.Now,
	}

	for _, option := range options {
		if optErr := option(store); optErr != nil {
			return nil, optErr
		}
	}

	return store, nil
}

// WithinTx runs fn in one write transaction. Concurrent calls are executed one after the other.
func (s *Store) WithinTx(ctx context.Context, fn reservations.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	txn := s.db.Txn(true)
	defer txn.Abort() // no-op after Commit

	if err := fn(ctx, &tx{reader: reader{txn: txn}, clock: s.clock}); err != nil {
		s.logDebug(logMsgTxRollback, logAttrError, err.Error())
		return err
	}

	if err := ctx.Err(); err != nil {
		s.logDebug(logMsgTxRollback, logAttrError, err.Error())
		return err
	}

	txn.Commit()
	s.logDebug(logMsgTxCommitted, logAttrDurationMS, float64(time.Since(start).Microseconds())/1000)

	return nil
}

func (s *Store) snapshot() reader {
	return reader{txn: s.db.Txn(false)}
}

func (s *Store) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableBooks: {
				Name: tableBooks,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexISBN: {
						Name:    indexISBN,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ISBN"},
					},
				},
			},
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexUsername: {
						Name:    indexUsername,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Username"},
					},
					indexEmail: {
						Name:    indexEmail,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
			tableReservations: {
				Name: tableReservations,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexUserID: {
						Name:    indexUserID,
						Indexer: &memdb.StringFieldIndex{Field: "UserID"},
					},
					indexStatus: {
						Name:    indexStatus,
						Indexer: &memdb.StringFieldIndex{Field: "Status"},
					},
				},
			},
		},
	}
}

func (s *Store) GetBook(ctx context.Context, bookID uuid.UUID) (reservations.Book, error) {
	return s.snapshot().GetBook(ctx, bookID)
}

func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (reservations.Book, error) {
	return s.snapshot().GetBookByISBN(ctx, isbn)
}

func (s *Store) ListBooks(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.Book], error) {
	return s.snapshot().ListBooks(ctx, page)
}

func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (reservations.User, error) {
	return s.snapshot().GetUser(ctx, userID)
}

func (s *Store) ListUsers(ctx context.Context, page reservations.PageRequest) (reservations.Page[reservations.User], error) {
	return s.snapshot().ListUsers(ctx, page)
}

func (s *Store) GetReservation(ctx context.Context, reservationID uuid.UUID) (reservations.Reservation, error) {
	return s.snapshot().GetReservation(ctx, reservationID)
}

func (s *Store) ListReservations(
	ctx context.Context,
	page reservations.PageRequest,
) (reservations.Page[reservations.Reservation], error) {
	return s.snapshot().ListReservations(ctx, page)
}

func (s *Store) FindActiveReservationsCreatedBefore(ctx context.Context, cutoff time.Time) (reservations.Reservations, error) {
	return s.snapshot().FindActiveReservationsCreatedBefore(ctx, cutoff)
}

func (s *Store) FindReservationsByUser(ctx context.Context, userID uuid.UUID) (reservations.Reservations, error) {
	return s.snapshot().FindReservationsByUser(ctx, userID)
}
