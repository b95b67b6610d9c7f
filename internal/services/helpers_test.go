package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. A single connection keeps
// every query, including transactions, on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.AddIndexes(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, mutate ...func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type publishedEvent struct {
	OwnerID uint64
	Kind    realtime.EventKind
	Payload interface{}
}

// recordingPublisher captures broadcasts instead of delivering them.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ownerID uint64, kind realtime.EventKind, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{OwnerID: ownerID, Kind: kind, Payload: payload})
}

func (p *recordingPublisher) kinds() []realtime.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()

	kinds := make([]realtime.EventKind, len(p.events))
	for i, e := range p.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (p *recordingPublisher) last(kind realtime.EventKind) (publishedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Kind == kind {
			return p.events[i], true
		}
	}
	return publishedEvent{}, false
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

var errDiskFull = errors.New("disk full")

// failingAuditStore makes every audit append inside a transaction fail.
type failingAuditStore struct {
	repository.Store
}

func (s failingAuditStore) AuditLogs() repository.AuditLogRepository {
	return failingAuditRepo{AuditLogRepository: s.Store.AuditLogs()}
}

func (s failingAuditStore) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTransaction(ctx, func(tx repository.Store) error {
		return fn(failingAuditStore{Store: tx})
	})
}

type failingAuditRepo struct {
	repository.AuditLogRepository
}

func (failingAuditRepo) Create(*models.AuditLog) error {
	return errDiskFull
}

// memoryAuditRepo collects appended entries.
type memoryAuditRepo struct {
	repository.AuditLogRepository
	entries []models.AuditLog
}

func (r *memoryAuditRepo) Create(entry *models.AuditLog) error {
	entry.ID = uint64(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}
