package services

import (
	"context"

	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/jobs"
	"github.com/sjperalta/dealer-ledger/internal/render"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/storage"
)

// Store serializes access to the database. Writes run in one transaction
// under an exclusive lock; reads share a lock. database.Handle is the
// production implementation.
type Store interface {
	Write(ctx context.Context, fn func(ctx context.Context) error) error
	Read(ctx context.Context, fn func(ctx context.Context) error) error
	Generation() uint64
}

// storeErrors classifies failures of the store itself, such as a closed
// handle or a failed commit, as ErrStorage.
type storeErrors struct {
	Store
}

func (s storeErrors) Write(ctx context.Context, fn func(ctx context.Context) error) error {
	return classify("write", s.Store.Write(ctx, fn))
}

func (s storeErrors) Read(ctx context.Context, fn func(ctx context.Context) error) error {
	return classify("read", s.Store.Read(ctx, fn))
}

// Handle is what NewServices needs from the database: the serialized
// store plus the exclusive section used by backups.
type Handle interface {
	Store
	BackupStore
}

// Services holds all service instances
type Services struct {
	Auth        *AuthService
	User        *UserService
	Inventory   *InventoryService
	Ledger      *LedgerService
	Installment *InstallmentService
	Invoice     *InvoiceService
	Report      *ReportService
	Export      *ExportService
	Audit       *AuditService
	Backup      *BackupService
	Job         *JobService
}

// NewServices creates all service instances
func NewServices(
	handle Handle,
	repos *repository.Repositories,
	trail *audit.Trail,
	worker *jobs.Worker,
	renderer render.Renderer,
	files *storage.LocalStorage,
	cfg *config.Config,
) *Services {
	store := storeErrors{handle}
	ledgerSvc := NewLedgerService(store, repos.Ledger, trail)
	inventorySvc := NewInventoryService(store, repos.Car, repos.Client)
	installmentSvc := NewInstallmentService(store, repos.Installment, inventorySvc, ledgerSvc, trail)
	exportSvc := NewExportService()

	return &Services{
		Auth:        NewAuthService(store, repos.User, trail, cfg),
		User:        NewUserService(store, repos.User, trail),
		Inventory:   inventorySvc,
		Ledger:      ledgerSvc,
		Installment: installmentSvc,
		Invoice:     NewInvoiceService(store, repos.Invoice, inventorySvc, repos.Report, ledgerSvc, renderer, files, worker, trail, cfg),
		Report:      NewReportService(store, repos.Ledger, repos.Report, cfg.ReportCacheTTL),
		Export:      exportSvc,
		Audit:       NewAuditService(trail, exportSvc),
		Backup:      NewBackupService(handle, trail, cfg.BackupDir),
		Job:         NewJobService(worker, installmentSvc),
	}
}
