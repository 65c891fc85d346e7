package application

import (
	"context"
	"fmt"
	"log/slog"
)

// BackupStore captures the export and import operations on the whole store.
type BackupStore interface {
	ExportData(ctx context.Context) ([]byte, error)
	ImportData(ctx context.Context, data []byte) error
}

// BackupService exposes whole-store export and import for administrators.
type BackupService struct {
	store  BackupStore
	logger *slog.Logger
}

// NewBackupService wires dependencies for the backup service.
func NewBackupService(store BackupStore, logger *slog.Logger) *BackupService {
	return &BackupService{store: store, logger: defaultLogger(logger)}
}

// Export returns the store as one JSON document.
func (s *BackupService) Export(ctx context.Context, principal Principal) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("BackupService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.store == nil {
		return nil, fmt.Errorf("backup store not configured")
	}

	data, err := s.store.ExportData(ctx)
	if err != nil {
		serviceLogger(ctx, s.logger, "BackupService", "Export").ErrorContext(ctx, "export failed", "error", err)
		return nil, err
	}
	return data, nil
}

// Import replaces the collections present in the document. Keys absent from
// the document leave the stored data untouched.
func (s *BackupService) Import(ctx context.Context, principal Principal, data []byte) error {
	if s == nil {
		return fmt.Errorf("BackupService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.store == nil {
		return fmt.Errorf("backup store not configured")
	}

	logger := serviceLogger(ctx, s.logger, "BackupService", "Import")
	if err := s.store.ImportData(ctx, data); err != nil {
		logger.ErrorContext(ctx, "import failed", "error", err)
		return err
	}
	logger.InfoContext(ctx, "import applied")
	return nil
}
