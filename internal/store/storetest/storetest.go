// Package storetest provides in-memory stores and fault injection for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/easystore/internal/store"
	pkgdb "github.com/Skotchmaster/easystore/pkg/db"
)

// NewSQLite returns gorm-backed stores over a private in-memory database.
func NewSQLite(t *testing.T) *store.Stores {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))

	stores := store.NewGormStores(db)
	t.Cleanup(func() { _ = stores.Close(context.Background()) })
	return stores
}

// Faulty wraps a collection and fails selected operations.
type Faulty[T any] struct {
	store.Collection[T]

	FindErr      error
	InsertErr    error
	IncrementErr map[string]error
	Inserts      int
}

func (f *Faulty[T]) Find(ctx context.Context, q store.Query) ([]T, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	return f.Collection.Find(ctx, q)
}

func (f *Faulty[T]) Insert(ctx context.Context, rec *T) error {
	f.Inserts++
	if f.InsertErr != nil {
		return f.InsertErr
	}
	return f.Collection.Insert(ctx, rec)
}

func (f *Faulty[T]) Increment(ctx context.Context, id string, deltas map[string]int64) (*T, error) {
	if err, ok := f.IncrementErr[id]; ok {
		return nil, err
	}
	return f.Collection.Increment(ctx, id, deltas)
}
