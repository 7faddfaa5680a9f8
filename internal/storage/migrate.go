package storage

import (
	"context"
	"fmt"
)

// Models lists the tables managed by Migrate, for operator reporting.
var Models = []string{userModel{}.TableName(), assessmentModel{}.TableName()}

// Migrate installs the vector extension and creates or updates the
// application tables and their indexes.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	if err := db.AutoMigrate(&userModel{}, &assessmentModel{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
