// Package store persists prompt rules across restarts. Three drivers are
// available: an in-process map, sqlite and redis.
package store

import (
	"context"
	"fmt"

	"imagemeta-server-go/internal/domain/metadata"
	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/errors"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Store is the prompt rule repository. Property names are unique keys;
// Put overwrites. List returns rules in no particular order.
type Store interface {
	Put(ctx context.Context, rule metadata.PromptRule) error
	Get(ctx context.Context, property string) (metadata.PromptRule, error)
	List(ctx context.Context) ([]metadata.PromptRule, error)
	Remove(ctx context.Context, property string) error
	Close(ctx context.Context) error
}

// ErrNotFound is returned by Get for an unknown property.
var ErrNotFound = errors.New(errors.KindStorage, "store.Get", "prompt rule not found")

// New builds a store from configuration. An empty driver defaults to the
// in-memory implementation.
func New(conf config.StoreConfig) (Store, error) {
	switch conf.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(conf.SQLite)
	case DriverRedis:
		return NewRedisStore(conf.Redis)
	default:
		return nil, errors.New(errors.KindStorage, "store.New",
			fmt.Sprintf("unknown store driver %q", conf.Driver))
	}
}
