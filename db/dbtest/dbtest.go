// Package dbtest opens throwaway in-memory databases for package tests.
package dbtest

import (
	"fmt"
	"io"
	"testing"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/KAsare1/Postly-server/db"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Logger discards output unless the test runs verbosely.
func Logger(t testing.TB) *logrus.Logger {
	log := logrus.New()
	if !testing.Verbose() {
		log.SetOutput(io.Discard)
	}
	return log
}

// Open returns a migrated database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	log := Logger(t)
	cfg := config.Config{
		DBDriver: "sqlite",
		DBURL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	conn, err := db.NewStorage(cfg, log)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Migrate(conn, log); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}
