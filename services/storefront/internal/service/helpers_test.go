package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/notify"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/repo"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	full bool
}

func (n *fakeNotifier) Enqueue(msg notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.full {
		return false
	}
	n.msgs = append(n.msgs, msg)
	return true
}

func (n *fakeNotifier) sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

func newTestGateway(t *testing.T, owner string) (*repo.Gateway, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repo.Migrate(db))
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return repo.NewGatewayWithDB(db, repo.Options{
		OwnerOpenID: owner,
		Now:         func() time.Time { return clock },
	}), db
}

func unavailableGateway() *repo.Gateway {
	return repo.NewGateway("", nil, repo.Options{})
}

func int64Ptr(v int64) *int64 { return &v }

func bg() context.Context { return context.Background() }
