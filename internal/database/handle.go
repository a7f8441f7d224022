package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sjperalta/dealer-ledger/pkg/logger"
	"gorm.io/gorm"
)

// ErrClosed is returned when the handle could not be reopened after an
// exclusive section and no connection is available.
var ErrClosed = errors.New("database handle is closed")

type contextKey string

const txKey contextKey = "gorm_tx"

// Handle owns the storage connection and serializes access to it. Every
// mutation runs under the single write lock; reads share a read lock;
// an exclusive section closes the connection so the underlying file can
// be swapped, and always reopens it afterwards.
type Handle struct {
	opts       Options
	mu         sync.RWMutex
	db         *gorm.DB
	generation atomic.Uint64
}

// Open connects, migrates and wraps the database
func Open(opts Options) (*Handle, error) {
	db, err := Connect(opts)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}
	return &Handle{opts: opts, db: db}, nil
}

// Write runs fn inside one transaction while holding the write lock.
// Repositories called with the context fn receives join that transaction.
func (h *Handle) Write(ctx context.Context, fn func(txCtx context.Context) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db == nil {
		return ErrClosed
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
	if err == nil {
		h.generation.Add(1)
	}
	return err
}

// Read runs fn under the shared lock; concurrent reads are allowed but
// none overlap a write or an exclusive section.
func (h *Handle) Read(ctx context.Context, fn func(ctx context.Context) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.db == nil {
		return ErrClosed
	}
	return fn(ctx)
}

// Exclusive closes the connection, runs fn, and reopens the database on
// every path. fn must not touch the database through this handle.
func (h *Handle) Exclusive(ctx context.Context, fn func() error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != nil {
		closeDB(h.db)
		h.db = nil
	}

	defer func() {
		db, openErr := Connect(h.opts)
		if openErr == nil {
			openErr = Migrate(db)
		}
		if openErr != nil {
			logger.Error("Failed to reopen database after exclusive section", "error", openErr)
			err = errors.Join(err, fmt.Errorf("reopen database: %w", openErr))
			return
		}
		h.db = db
		h.generation.Add(1)
	}()

	return fn()
}

// DB returns the root connection for callers outside a transaction
func (h *Handle) DB() *gorm.DB {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.db
}

// Conn returns the transaction carried by ctx, or the root connection
func (h *Handle) Conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	// Callers already hold a lock, so read the field directly.
	return h.db.WithContext(ctx)
}

// Generation increments after every committed write and every exclusive
// section; equal values mean the stored data has not changed.
func (h *Handle) Generation() uint64 {
	return h.generation.Load()
}

// FilePath is the database file backing the handle, or "" when the
// store is not file-based.
func (h *Handle) FilePath() string {
	if h.opts.Driver == "sqlite" {
		return h.opts.Path
	}
	return ""
}

// Ping checks the connection under the read lock
func (h *Handle) Ping(ctx context.Context) error {
	return h.Read(ctx, func(ctx context.Context) error {
		sqlDB, err := h.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

// Close releases the connection
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	err := closeDB(h.db)
	h.db = nil
	return err
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
