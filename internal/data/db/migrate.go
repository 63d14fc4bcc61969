package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
)

// Migrate ensures the uuid extension and auto-migrates every table.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("create uuid extension: %w", err)
	}
	if err := gdb.AutoMigrate(
		&domain.User{},
		&domain.Subject{},
		&domain.Unit{},
		&domain.Topic{},
		&domain.File{},
		&domain.Chunk{},
		&domain.TopicSummary{},
		&domain.UnitSummary{},
		&domain.UnitProcessingState{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
