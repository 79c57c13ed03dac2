// Package engine wires the metadata store and the services built on it.
package engine

import (
	"github.com/melkeydev/formengine/config"
	"github.com/melkeydev/formengine/databases"
	"github.com/melkeydev/formengine/introspect"
	"github.com/melkeydev/formengine/metadata"
	"github.com/melkeydev/formengine/query"
	"github.com/melkeydev/formengine/structure"
)

type Engine struct {
	Pool      *databases.Pool
	Store     *metadata.Store
	Schema    *introspect.Service
	Structure *structure.Service
	Query     *query.Builder
}

// New builds an engine over a lazily opened pool for cfg. No connection is
// made until the first request needs one.
func New(cfg *config.Config) (*Engine, error) {
	return NewWithPool(databases.NewPool(databases.OpenerFor(cfg.Database)), cfg)
}

func NewWithPool(pool *databases.Pool, cfg *config.Config) (*Engine, error) {
	store := metadata.NewStore(pool, cfg.Metadata)
	schema := introspect.NewService(store)

	builder, err := query.NewBuilder(store, schema, cfg.Cache)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Pool:      pool,
		Store:     store,
		Schema:    schema,
		Structure: structure.NewService(store),
		Query:     builder,
	}, nil
}

func (e *Engine) Close() error {
	e.Query.Close()
	return e.Pool.Close()
}
