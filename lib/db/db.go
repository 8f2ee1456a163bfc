// Package db opens and prepares the in-memory SQLite database backing the
// dashboard. Nothing is ever written to disk; the database lives and dies
// with the process.
package db

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to a named in-memory SQLite database. The shared cache keeps
// every pooled connection pointed at the same database; a bare ":memory:"
// DSN would give each connection its own empty copy.
func Open(name string, logger *slog.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return gdb, nil
}
