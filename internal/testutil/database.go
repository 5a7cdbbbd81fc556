package testutil

import (
	"testing"

	"sip-go/internal/database"
	"sip-go/internal/sip"
)

// NewTestDatabase creates a new in-memory SQLite database with schema applied.
// Row timestamps come from clock; pass nil for the real clock.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T, clock sip.Clock) sip.Database {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB, clock, nil)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
