package store_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Skotchmaster/easystore/internal/models"
	"github.com/Skotchmaster/easystore/internal/store"
)

// Concurrent votes must all land; run against each real backend.
func exerciseConcurrentIncrement(t *testing.T, s *store.Stores) {
	t.Helper()
	ctx := context.Background()

	p := &models.ProductSeries{Name: "n", Brand: "b", Category: "c", About: "a", IsAvailable: true}
	require.NoError(t, s.Products.Insert(ctx, p))

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Products.Increment(ctx, p.ID, map[string]int64{
				models.FieldRatingSum:  4,
				models.FieldNumRatings: 1,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, voters*4, got.RatingSum)
	require.EqualValues(t, voters, got.NumRatings)

	toggled, err := s.Products.Toggle(ctx, p.ID, models.FieldIsAvailable)
	require.NoError(t, err)
	require.False(t, toggled.IsAvailable)

	require.NoError(t, s.Products.Delete(ctx, p.ID))
	require.ErrorIs(t, s.Products.Delete(ctx, p.ID), store.ErrNotFound)
}

func TestPostgresStores(t *testing.T) {
	if os.Getenv("STORE_INTEGRATION") == "" {
		t.Skip("set STORE_INTEGRATION=1 to run against a postgres container")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("easystore_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.Open(ctx, store.Options{Driver: "postgres", DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	exerciseConcurrentIncrement(t, s)

	require.NoError(t, s.Users.Insert(ctx, &models.User{Username: "ann", PasswordHash: "x"}))
	require.ErrorIs(t, s.Users.Insert(ctx, &models.User{Username: "ann", PasswordHash: "y"}), store.ErrDuplicate)
}

func TestMongoStores(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("set MONGO_TEST_URI to run against MongoDB")
	}
	ctx := context.Background()

	s, err := store.Open(ctx, store.Options{
		Driver:   store.DriverMongo,
		MongoURI: uri,
		MongoDB:  "easystore_test_" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	exerciseConcurrentIncrement(t, s)

	_, err = s.Orders.FindByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users.Insert(ctx, &models.User{Username: "ann", PasswordHash: "x"}))
	require.ErrorIs(t, s.Users.Insert(ctx, &models.User{Username: "ann", PasswordHash: "y"}), store.ErrDuplicate)

	got, err := s.Users.Find(ctx, store.Query{Where: store.Fields{models.FieldUsername: "ann"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
