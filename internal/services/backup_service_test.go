package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) recordIncome(t *testing.T, category string) {
	t.Helper()
	_, err := h.svc.Ledger.Record(context.Background(), LedgerInput{
		EntryType: models.EntryTypeIncome, Category: category, Amount: money("10"), Date: models.NewDate(2024, 3, 1),
	}, testActor)
	require.NoError(t, err)
}

func TestBackupService_CreateAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.Backup.now = func() time.Time { return time.Date(2024, 3, 5, 14, 2, 11, 0, time.Local) }

	h.recordIncome(t, "Commissions")

	id, err := h.svc.Backup.Create(ctx, testActor)
	require.NoError(t, err)
	assert.Equal(t, "20240305_140211", id)
	assert.FileExists(t, filepath.Join(h.dir, "backups", id+"_audit.log.backup"))
	assert.FileExists(t, filepath.Join(h.dir, "backups", id+"_database.db.backup"))

	// The live trail starts over after a backup.
	assert.Empty(t, h.events(t, audit.EventLedgerRecord))
	assert.Len(t, h.events(t, audit.EventBackupCreate), 1)

	second, err := h.svc.Backup.Create(ctx, testActor)
	require.NoError(t, err)
	assert.Equal(t, "20240305_140211_2", second)

	backups, err := h.svc.Backup.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0].ID)
	for _, b := range backups {
		assert.Equal(t, BackupFull, b.Completeness)
		assert.Positive(t, b.DBSizeBytes)
	}
	assert.Equal(t, 1, backups[1].EntryCount)
}

func TestBackupService_RestoreRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.recordIncome(t, "Before backup")
	id, err := h.svc.Backup.Create(ctx, testActor)
	require.NoError(t, err)

	h.recordIncome(t, "After backup")
	require.Len(t, h.ledgerEntries(t), 2)

	generation := h.handle.Generation()
	require.NoError(t, h.svc.Backup.Restore(ctx, id, testActor))
	assert.Greater(t, h.handle.Generation(), generation)

	entries := h.ledgerEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "Before backup", entries[0].Category)

	// The trail is the backed up one plus the restore itself.
	records := h.events(t, audit.EventLedgerRecord)
	require.Len(t, records, 1)
	restores := h.events(t, audit.EventBackupRestore)
	require.Len(t, restores, 1)
	assert.Equal(t, audit.Success, restores[0].Outcome)
	assert.Contains(t, restores[0].Description, "safety backup")

	// A safety backup of the pre-restore state was taken.
	backups, err := h.svc.Backup.List(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 2)

	// The store keeps working after the swap.
	h.recordIncome(t, "After restore")
	assert.Len(t, h.ledgerEntries(t), 2)
}

func TestBackupService_RestorePartialKeepsDatabase(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id, err := h.svc.Backup.Create(ctx, testActor)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(h.dir, "backups", id+"_database.db.backup")))

	backups, err := h.svc.Backup.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, BackupPartial, backups[0].Completeness)

	h.recordIncome(t, "Kept")
	require.NoError(t, h.svc.Backup.Restore(ctx, id, testActor))
	assert.Len(t, h.ledgerEntries(t), 1, "a log-only backup leaves the database alone")
}

func TestBackupService_RestoreUnknownOrMalformed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.svc.Backup.Restore(ctx, "20240101_000000", testActor)
	assert.ErrorIs(t, err, ErrNotFound)

	err = h.svc.Backup.Restore(ctx, "../../etc/passwd", testActor)
	assert.ErrorIs(t, err, ErrValidation)

	backups, err := h.svc.Backup.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups, "no safety backup when nothing is restored")

	failed, err := h.trail.Read(audit.Filter{EventType: audit.EventBackupRestore, FailedOnly: true})
	require.NoError(t, err)
	assert.Len(t, failed, 2)
}

func TestBackupService_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id, err := h.svc.Backup.Create(ctx, testActor)
	require.NoError(t, err)

	require.NoError(t, h.svc.Backup.Delete(ctx, id, testActor))
	backups, err := h.svc.Backup.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups)

	assert.ErrorIs(t, h.svc.Backup.Delete(ctx, id, testActor), ErrNotFound)
	assert.ErrorIs(t, h.svc.Backup.Delete(ctx, "latest", testActor), ErrValidation)
}

func TestBackupService_ListWithoutDirectory(t *testing.T) {
	h := newHarness(t)
	backups, err := h.svc.Backup.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)
}
