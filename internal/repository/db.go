package repository

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"telofy/internal/model"
)

// NewDB opens the SQLite database backing the local stores and migrates the
// blob table. An empty dsn means telofy.db in the working directory. out
// receives gorm's slow-query and error lines; nil sends them to stdout.
func NewDB(dsn string, out *log.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "telofy.db"
	}
	if out == nil {
		out = log.New(os.Stdout, "[db] ", log.LstdFlags)
	}

	if path, ok := sqlitePath(dsn); ok {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}

	dbLogger := logger.New(
		out,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if isMemoryDSN(dsn) {
		// Every pooled connection would otherwise open its own empty database.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&model.Blob{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

// sqlitePath returns the database file named by dsn. In-memory DSNs have
// none.
func sqlitePath(dsn string) (string, bool) {
	if isMemoryDSN(dsn) {
		return "", false
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path, path != ""
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// isMemoryDSN reports whether dsn opens a private in-memory database, either
// the ":memory:" shorthand or a file: URI with mode=memory.
func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
