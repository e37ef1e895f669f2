package store

import (
	"context"
	"fmt"

	pkgdb "github.com/Skotchmaster/easystore/pkg/db"
)

const DriverMongo = "mongo"

type Options struct {
	Driver      string
	DatabaseURL string
	MongoURI    string
	MongoDB     string
}

// Open connects the configured backend and prepares its schema or indexes.
func Open(ctx context.Context, opts Options) (*Stores, error) {
	if opts.Driver == DriverMongo {
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDB)
	}

	db, err := pkgdb.Open(ctx, opts.Driver, opts.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewGormStores(db), nil
}
