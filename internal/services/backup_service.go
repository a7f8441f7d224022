package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/storage"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

const (
	backupIDLayout = "20060102_150405"
	auditSuffix    = "_audit.log.backup"
	databaseSuffix = "_database.db.backup"
)

var backupIDPattern = regexp.MustCompile(`^\d{8}_\d{6}(_\d+)?$`)

// Completeness says whether a backup can restore the database too
type Completeness string

const (
	BackupFull    Completeness = "Full"
	BackupPartial Completeness = "Partial"
)

// BackupInfo describes one stored backup
type BackupInfo struct {
	ID           string       `json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	LogSizeBytes int64        `json:"log_size_bytes"`
	DBSizeBytes  int64        `json:"db_size_bytes"`
	EntryCount   int          `json:"entry_count"`
	Completeness Completeness `json:"completeness"`
}

// BackupStore is the storage handle seen by backups: exclusive access
// around a file swap, and the file to copy.
type BackupStore interface {
	Exclusive(ctx context.Context, fn func() error) error
	FilePath() string
}

// BackupService snapshots and restores the database file and the audit
// trail as one unit.
type BackupService struct {
	mu    sync.Mutex
	store BackupStore
	trail *audit.Trail
	dir   string
	now   func() time.Time
}

func NewBackupService(store BackupStore, trail *audit.Trail, dir string) *BackupService {
	return &BackupService{store: store, trail: trail, dir: dir, now: time.Now}
}

// Create copies the database and rotates the audit trail into a new
// backup. The database stays live; only the trail starts over.
func (s *BackupService) Create(ctx context.Context, actor models.Actor) (string, error) {
	s.mu.Lock()
	id, err := s.create(ctx)
	s.mu.Unlock()

	s.record(ctx, actor, audit.EventBackupCreate, "backup "+id, err)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *BackupService) create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create backup directory: %w", ErrStorage, err)
	}
	id := s.newID()

	err := s.store.Exclusive(ctx, func() error {
		dbCopy := ""
		if db := s.store.FilePath(); db != "" && fileExists(db) {
			dbCopy = s.databasePath(id)
			if err := storage.CopyFile(db, dbCopy); err != nil {
				return fmt.Errorf("copy database: %w", err)
			}
		}
		if err := s.trail.Rotate(s.auditPath(id)); err != nil {
			if dbCopy != "" {
				os.Remove(dbCopy)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: backup %s: %w", ErrStorage, id, err)
	}
	logger.Info("Backup created", "id", id, "dir", s.dir)
	return id, nil
}

// newID derives the id from the clock, adding a suffix when a backup
// already exists for the same second.
func (s *BackupService) newID() string {
	base := s.now().Format(backupIDLayout)
	id := base
	for n := 2; fileExists(s.auditPath(id)) || fileExists(s.databasePath(id)); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

// Restore takes a safety backup of the current state, then replaces the
// database file (when the backup has one) and the audit trail.
func (s *BackupService) Restore(ctx context.Context, id string, actor models.Actor) error {
	s.mu.Lock()
	safetyID, err := s.restore(ctx, id)
	s.mu.Unlock()

	desc := "restore " + id
	if safetyID != "" {
		desc += " (safety backup " + safetyID + ")"
	}
	s.record(ctx, actor, audit.EventBackupRestore, desc, err)
	return err
}

func (s *BackupService) restore(ctx context.Context, id string) (string, error) {
	if err := validateBackupID(id); err != nil {
		return "", err
	}
	logCopy := s.auditPath(id)
	if !fileExists(logCopy) {
		return "", fmt.Errorf("backup %s: %w", id, ErrNotFound)
	}

	safetyID, err := s.create(ctx)
	if err != nil {
		return "", fmt.Errorf("safety backup failed, nothing restored: %w", err)
	}

	db := s.store.FilePath()
	dbCopy := s.databasePath(id)
	restoreDB := db != "" && fileExists(dbCopy)

	err = s.store.Exclusive(ctx, func() error {
		if restoreDB {
			if err := storage.CopyFile(dbCopy, db); err != nil {
				return fmt.Errorf("restore database: %w", err)
			}
		}
		if err := s.trail.ReplaceWith(logCopy); err != nil {
			if restoreDB {
				if rbErr := storage.CopyFile(s.databasePath(safetyID), db); rbErr != nil {
					return errors.Join(err, fmt.Errorf("roll back database: %w", rbErr))
				}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return safetyID, fmt.Errorf("%w: restore %s: %w", ErrStorage, id, err)
	}

	logger.Info("Backup restored", "id", id, "database", restoreDB, "safety_backup", safetyID)
	return safetyID, nil
}

// List returns the stored backups, newest first
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read backup directory: %w", ErrStorage, err)
	}

	backups := []BackupInfo{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, auditSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, auditSuffix)
		if !backupIDPattern.MatchString(id) {
			continue
		}

		info := BackupInfo{ID: id, Completeness: BackupPartial}
		if created, err := time.ParseInLocation(backupIDLayout, id[:len(backupIDLayout)], time.Local); err == nil {
			info.CreatedAt = created
		}
		info.LogSizeBytes, _ = storage.FileSize(s.auditPath(id))
		info.EntryCount, _ = audit.CountEntries(s.auditPath(id))
		if size, err := storage.FileSize(s.databasePath(id)); err == nil {
			info.DBSizeBytes = size
			info.Completeness = BackupFull
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].ID > backups[j].ID
	})
	return backups, nil
}

// Delete removes both files of a backup
func (s *BackupService) Delete(ctx context.Context, id string, actor models.Actor) error {
	s.mu.Lock()
	err := s.delete(id)
	s.mu.Unlock()

	s.record(ctx, actor, audit.EventBackupDelete, "backup "+id, err)
	return err
}

func (s *BackupService) delete(id string) error {
	if err := validateBackupID(id); err != nil {
		return err
	}

	removed := 0
	for _, path := range []string{s.auditPath(id), s.databasePath(id)} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case !os.IsNotExist(err):
			return fmt.Errorf("%w: delete %s: %w", ErrStorage, filepath.Base(path), err)
		}
	}
	if removed == 0 {
		return fmt.Errorf("backup %s: %w", id, ErrNotFound)
	}
	return nil
}

// record writes into whatever trail is live after the operation
func (s *BackupService) record(ctx context.Context, actor models.Actor, event, desc string, err error) {
	s.trail.Record(ctx, actor, event, desc, err)
}

func (s *BackupService) auditPath(id string) string {
	return filepath.Join(s.dir, id+auditSuffix)
}

func (s *BackupService) databasePath(id string) string {
	return filepath.Join(s.dir, id+databaseSuffix)
}

func validateBackupID(id string) error {
	if !backupIDPattern.MatchString(id) {
		return invalid("id", "malformed backup id")
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
