package services

import (
	"context"

	"github.com/sjperalta/dealer-ledger/internal/audit"
)

// AuditService exposes the audit trail to operators
type AuditService struct {
	trail  *audit.Trail
	export *ExportService
}

func NewAuditService(trail *audit.Trail, export *ExportService) *AuditService {
	return &AuditService{trail: trail, export: export}
}

// List returns matching events, newest first
func (s *AuditService) List(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	events, err := s.trail.Read(filter)
	if err != nil {
		return nil, classify("read audit trail", err)
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}

// ExportCSV writes the matching events as CSV
func (s *AuditService) ExportCSV(ctx context.Context, filter audit.Filter) ([]byte, string, error) {
	events, err := s.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	return s.export.AuditCSV(events)
}
