// Package testutil provides shared test doubles and fixtures for vibez tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"unicode"

	"vibez/internal/config"
	"vibez/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Uint64

// NewSQLiteDB returns a migrated, isolated in-memory database with foreign
// keys enforced. It is closed when the test ends.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open(sqlite.Open(database.SQLiteDSN(dsn)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// A single connection keeps the shared in-memory database alive and
	// serialises transactions the way the driver expects.
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// TestConfig returns a valid development configuration for wiring tests.
func TestConfig() *config.Config {
	return &config.Config{
		Port:                 "0",
		Env:                  "test",
		DBDriver:             "sqlite",
		JWTSecret:            "test-secret-that-is-at-least-32-chars",
		JWTIssuer:            "vibez-api",
		JWTAudience:          "vibez-client",
		EditWindowMinutes:    20,
		MediaMaxUploadSizeMB: 5,
		BlobBackend:          "minio",
		MinIOEndpoint:        "localhost:9000",
		MinIOBucket:          "media",
	}
}
