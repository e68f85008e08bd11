package services

import (
	"context"

	"github.com/custodia-labs/invoicedb/internal/core/domain"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driven"
	"github.com/custodia-labs/invoicedb/internal/core/ports/driving"
	"github.com/custodia-labs/invoicedb/internal/logger"
)

// Ensure MaintenanceService implements the interface.
var _ driving.MaintenanceService = (*MaintenanceService)(nil)

// MaintenanceService exposes store lifecycle operations.
type MaintenanceService struct {
	lifecycle driven.StoreLifecycle
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(lifecycle driven.StoreLifecycle) *MaintenanceService {
	return &MaintenanceService{lifecycle: lifecycle}
}

// Status reports the schema version and row counts.
func (s *MaintenanceService) Status(ctx context.Context) (*domain.SchemaStatus, error) {
	return s.lifecycle.Status(ctx)
}

// Reset destroys and recreates the store. Every row is lost.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	logger.Warn("resetting store")
	return s.lifecycle.Reset(ctx)
}
