package storage

import (
	"context"

	"admissions_backend/platform/logger"
)

// NoopStore is used when MinIO is not configured. Imports still run; file
// archiving and report downloads are simply unavailable.
type NoopStore struct {
	log *logger.Logger
}

func NewNoopStore(log *logger.Logger) *NoopStore {
	return &NoopStore{log: log}
}

func (s *NoopStore) SaveImportFile(_ context.Context, name string, _ []byte) (string, error) {
	s.log.Info("storage_disabled_skipping_archive", "file", name)
	return "", nil
}

func (s *NoopStore) SaveErrorReport(_ context.Context, name string, _ []byte) (string, error) {
	s.log.Info("storage_disabled_skipping_report", "file", name)
	return "", nil
}
