// Package store holds the persistence contract shared by the catalog, order
// and account services, with a gorm (postgres/sqlite) and a MongoDB backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/easystore/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Fields maps column (and bson key) names to values.
type Fields map[string]any

// Query is an equality filter plus an optional sort column.
type Query struct {
	Where  Fields
	SortBy string
	Desc   bool
}

// Collection is the access contract every service is written against.
// Increment and Toggle are applied inside the database so concurrent callers
// never lose each other's updates.
type Collection[T any] interface {
	Find(ctx context.Context, q Query) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, rec *T) error
	UpdateFields(ctx context.Context, id string, fields Fields) (*T, error)
	Increment(ctx context.Context, id string, deltas map[string]int64) (*T, error)
	Toggle(ctx context.Context, id string, field string) (*T, error)
	Delete(ctx context.Context, id string) error
}

type stamper interface {
	Stamp(now time.Time)
}

func stamp(rec any) {
	if s, ok := rec.(stamper); ok {
		s.Stamp(time.Now().UTC())
	}
}

// Stores bundles the collections of one backend.
type Stores struct {
	Products Collection[models.ProductSeries]
	Orders   Collection[models.Order]
	Users    Collection[models.User]
	Tokens   Collection[models.RefreshToken]

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Newest is the listing order used by the admin panel and the storefront.
var Newest = Query{SortBy: models.FieldCreatedAt, Desc: true}
