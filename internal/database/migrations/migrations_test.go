package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"users", "intake_events", "daily_snapshots", "operations", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus(t *testing.T) {
	t.Run("fresh database needs migration", func(t *testing.T) {
		db := openTestDB(t)

		err := CheckDBMigrationStatus(db)
		if !errors.Is(err, ErrNoVersion) {
			t.Errorf("CheckDBMigrationStatus() error = %v, want ErrNoVersion", err)
		}
	})

	t.Run("migrated database is current", func(t *testing.T) {
		db := openTestDB(t)
		if err := MigrateUp(db); err != nil {
			t.Fatalf("MigrateUp() failed: %v", err)
		}

		if err := CheckDBMigrationStatus(db); err != nil {
			t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
		}
	})
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	version, dirty, err := Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	latest, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if version != latest || dirty {
		t.Errorf("Version() = %d (dirty=%v), want %d clean", version, dirty, latest)
	}
}

func TestLatestVersion(t *testing.T) {
	latest, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if latest != 2 {
		t.Errorf("LatestVersion() = %d, want 2", latest)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO intake_events (user_id, amount_ml, logged_at, logical_date)
		VALUES ('nobody', 250, datetime('now'), '2024-01-15')
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_Constraints(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO users (id, created_at) VALUES ('u1', datetime('now'))"); err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	t.Run("user defaults", func(t *testing.T) {
		var isGuest bool
		var goal int64
		if err := db.QueryRow("SELECT is_guest, default_goal FROM users WHERE id = 'u1'").Scan(&isGuest, &goal); err != nil {
			t.Fatalf("Failed to read user: %v", err)
		}
		if !isGuest || goal != 2500 {
			t.Errorf("user = (guest=%v, goal=%d), want (true, 2500)", isGuest, goal)
		}
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := db.Exec("INSERT INTO intake_events (user_id, amount_ml, logged_at, logical_date) VALUES ('u1', 0, datetime('now'), '2024-01-15')")
		if err == nil {
			t.Error("Expected check constraint violation for zero amount")
		}
	})

	t.Run("one snapshot per user and date", func(t *testing.T) {
		insert := "INSERT INTO daily_snapshots (user_id, date, goal_for_day, total_intake, goal_met, updated_at) VALUES ('u1', '2024-01-15', 2500, 0, 0, datetime('now'))"
		if _, err := db.Exec(insert); err != nil {
			t.Fatalf("Failed to insert first snapshot: %v", err)
		}
		if _, err := db.Exec(insert); err == nil {
			t.Error("Expected unique constraint violation for duplicate snapshot")
		}
	})
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	return db
}
