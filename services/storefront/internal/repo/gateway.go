package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/domain"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/models"
	"gorm.io/gorm"
)

// Opener establishes the store connection. pkg/db.Open satisfies it.
type Opener func(ctx context.Context, dsn string) (*gorm.DB, error)

type Options struct {
	OwnerOpenID string
	AutoMigrate bool
	Now         func() time.Time
}

// Gateway is the only component that talks to the relational store. It
// connects on first use and remembers the outcome for the process lifetime:
// either a shared handle or "unavailable". Reads degrade to empty results
// while unavailable, writes fail with domain.ErrUnavailable.
type Gateway struct {
	dsn  string
	open Opener
	opts Options

	once sync.Once
	db   *gorm.DB
}

func NewGateway(dsn string, open Opener, opts Options) *Gateway {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Gateway{dsn: dsn, open: open, opts: opts}
}

// NewGatewayWithDB wraps an already opened handle.
func NewGatewayWithDB(db *gorm.DB, opts Options) *Gateway {
	g := NewGateway("", nil, opts)
	g.once.Do(func() { g.db = db })
	return g
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{})
}

// Connect returns the shared handle, establishing it on the first call.
func (g *Gateway) Connect(ctx context.Context) (*gorm.DB, bool) {
	g.once.Do(func() {
		g.db = g.connect(ctx)
	})
	return g.db, g.db != nil
}

func (g *Gateway) connect(ctx context.Context) *gorm.DB {
	l := logging.FromContext(ctx).With("component", "db.gateway")

	if g.dsn == "" || g.open == nil {
		l.Warn("database_unavailable", "reason", "DATABASE_URL is not configured")
		return nil
	}

	openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	db, err := g.open(openCtx, g.dsn)
	if err != nil {
		l.Warn("database_unavailable", "reason", "connect failed", "error", err)
		return nil
	}

	if g.opts.AutoMigrate {
		if err := Migrate(db.WithContext(openCtx)); err != nil {
			l.Warn("database_unavailable", "reason", "migration failed", "error", err)
			return nil
		}
	}

	l.Info("database_connected")
	return db
}

func (g *Gateway) Available(ctx context.Context) bool {
	_, ok := g.Connect(ctx)
	return ok
}

// Close releases the pool. Only used on process shutdown.
func (g *Gateway) Close() error {
	if g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *Gateway) writer(ctx context.Context, op string) (*gorm.DB, error) {
	db, ok := g.Connect(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: cannot %s: database not available", domain.ErrUnavailable, op)
	}
	return db.WithContext(ctx), nil
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
