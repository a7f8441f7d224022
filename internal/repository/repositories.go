package repository

import (
	"context"

	"gorm.io/gorm"
)

// ErrNoRows is returned by lookups that bypass First; it matches
// gorm.ErrRecordNotFound so callers check a single sentinel.
var ErrNoRows = gorm.ErrRecordNotFound

// Connector hands out the connection for a call. database.Handle
// implements it; inside a write it returns the open transaction.
type Connector interface {
	Conn(ctx context.Context) *gorm.DB
}

// Repositories holds all repository instances
type Repositories struct {
	User        UserRepository
	Car         CarRepository
	Client      ClientRepository
	Ledger      LedgerRepository
	Installment InstallmentRepository
	Invoice     InvoiceRepository
	Report      ReportRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db Connector) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Car:         NewCarRepository(db),
		Client:      NewClientRepository(db),
		Ledger:      NewLedgerRepository(db),
		Installment: NewInstallmentRepository(db),
		Invoice:     NewInvoiceRepository(db),
		Report:      NewReportRepository(db),
	}
}
