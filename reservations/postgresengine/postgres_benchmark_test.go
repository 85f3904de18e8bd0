package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/inventory"
	"github.com/AntonStoeckl/book-reservations-go/testutil/fixtures"
	"github.com/AntonStoeckl/book-reservations-go/testutil/helper/postgreswrapper"
)

func Benchmark_ReserveAndRelease_ThreeBooks(b *testing.B) {
	// setup
	ctx := context.Background()
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(b)
	defer wrapper.Close()
	postgreswrapper.CleanUp(b, wrapper)
	store := wrapper.GetStore()

	ledger, err := inventory.NewLedger()
	require.NoError(b, err)

	// arrange
	bookIDs := []uuid.UUID{
		fixtures.GivenBook(b, store, 1).ID,
		fixtures.GivenBook(b, store, 1).ID,
		fixtures.GivenBook(b, store, 1).ID,
	}

	// act
	b.Run("reserve and release 3 books", func(b *testing.B) {
		b.ResetTimer()
		var txTime time.Duration

		for i := 0; i < b.N; i++ {
			start := time.Now()

			reserveErr := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
				return ledger.ReserveMany(ctx, tx, bookIDs)
			})

			releaseErr := store.WithinTx(ctx, func(ctx context.Context, tx reservations.Tx) error {
				for _, bookID := range bookIDs {
					if err := ledger.Release(ctx, tx, bookID, 1); err != nil {
						return err
					}
				}

				return nil
			})

			txTime += time.Since(start)

			b.StopTimer()
			assert.NoError(b, reserveErr)
			assert.NoError(b, releaseErr)
			b.StartTimer()
		}

		b.ReportMetric(float64(txTime.Microseconds())/float64(b.N)/2, "us/tx")
	})
}
