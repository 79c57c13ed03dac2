package databases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/melkeydev/formengine/errs"
	"golang.org/x/sync/singleflight"
)

type Opener func(ctx context.Context) (Database, error)

// Pool is the process-wide store handle. It is opened on first use; callers
// racing the first open all wait on the same attempt. A failed attempt is not
// remembered, so the next caller tries again.
type Pool struct {
	open  Opener
	group singleflight.Group

	mu sync.RWMutex
	db Database
}

func NewPool(open Opener) *Pool {
	return &Pool{open: open}
}

func (p *Pool) Get(ctx context.Context) (Database, error) {
	if db := p.current(); db != nil {
		return db, nil
	}

	v, err, _ := p.group.Do("open", func() (any, error) {
		if db := p.current(); db != nil {
			return db, nil
		}

		// the attempt is shared, so one caller's cancellation must not fail the others
		db, err := p.open(context.WithoutCancel(ctx))
		if err != nil {
			slog.Error("database open failed", "error", err)
			return nil, err
		}

		p.mu.Lock()
		p.db = db
		p.mu.Unlock()

		slog.Info("database pool ready")
		return db, nil
	})
	if err != nil {
		return nil, errs.Connection(err)
	}

	return v.(Database), nil
}

func (p *Pool) current() Database {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
