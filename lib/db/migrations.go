package db

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cinedash/cinedash/models"
)

// RunMigrations creates the schema and indexes in the freshly opened
// in-memory database.
func RunMigrations(db *gorm.DB, logger *slog.Logger) error {
	ctx := context.Background()

	if err := applyPragmas(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to apply SQLite pragmas: %w", err)
	}

	if err := db.AutoMigrate(&models.Movie{}, &models.CastCredit{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := createIndexes(ctx, db, logger); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// applyPragmas tunes SQLite for an in-memory, read-mostly workload.
func applyPragmas(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA cache_size=1000",
	}

	for _, pragma := range pragmas {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("Failed to execute pragma", slog.String("pragma", pragma), slog.Any("error", err))
		} else {
			logger.Debug("Executed pragma", slog.String("pragma", pragma))
		}
	}

	return nil
}

// createIndexes adds composite indexes for the dashboard's common queries.
func createIndexes(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_movies_studio_franchise ON movies(studio, franchise)",
		"CREATE INDEX IF NOT EXISTS idx_movies_release_date ON movies(release_date)",
		"CREATE INDEX IF NOT EXISTS idx_cast_credits_actor_roi ON cast_credits(actor, roi)",
	}

	for _, indexSQL := range indexes {
		if err := db.WithContext(ctx).Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		logger.Debug("Created index", slog.String("sql", indexSQL))
	}

	return nil
}
