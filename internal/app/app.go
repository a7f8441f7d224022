// Package app assembles the storage handle, audit trail, worker and
// services shared by the API server and the maintenance CLI.
package app

import (
	"fmt"

	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/database"
	"github.com/sjperalta/dealer-ledger/internal/jobs"
	"github.com/sjperalta/dealer-ledger/internal/render"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"github.com/sjperalta/dealer-ledger/internal/services"
	"github.com/sjperalta/dealer-ledger/internal/storage"
	"github.com/sjperalta/dealer-ledger/pkg/logger"
)

type App struct {
	Config   *config.Config
	Handle   *database.Handle
	Trail    *audit.Trail
	Files    *storage.LocalStorage
	Worker   *jobs.Worker
	Services *services.Services
}

// New opens every resource named by cfg. Close releases them.
func New(cfg *config.Config, workers int) (*App, error) {
	handle, err := database.Open(database.Options{
		Driver:      cfg.DBDriver,
		Path:        cfg.DatabasePath,
		URL:         cfg.DatabaseURL,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("Connected to database", "driver", cfg.DBDriver)

	trail, err := audit.NewTrail(cfg.AuditLogPath)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	files, err := storage.NewLocalStorage(cfg.InvoiceDir)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("initialize invoice storage: %w", err)
	}

	renderer, err := render.New(cfg, files)
	if err != nil {
		_ = handle.Close()
		return nil, err
	}

	worker := jobs.NewWorker(workers)
	repos := repository.NewRepositories(handle)

	return &App{
		Config:   cfg,
		Handle:   handle,
		Trail:    trail,
		Files:    files,
		Worker:   worker,
		Services: services.NewServices(handle, repos, trail, worker, renderer, files, cfg),
	}, nil
}

// Close drains the worker before closing the database
func (a *App) Close() {
	a.Worker.Shutdown()
	if err := a.Handle.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}
}
