package database

import (
	"fmt"
	"os"
	"path/filepath"

	"sip-go/internal/config"
	"sip-go/internal/database/migrations"
	"sip-go/internal/sip"
)

// NewDatabaseFromConfig creates a Database implementation based on the database config type.
// The sqlite type stores one file per instance under data_dir; memory databases are
// migrated on open since nothing else can initialize them.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, instanceID string, clock sip.Clock, logger sip.Logger) (sip.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		db, err := NewSQLiteDatabase(DatabasePath(cfg, instanceID), clock, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "memory":
		db, err := NewSQLiteDatabase(":memory:", clock, logger)
		if err != nil {
			return nil, err
		}
		if err := migrations.MigrateUp(db.db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// DatabasePath returns the file an sqlite database config stores instanceID's data in.
func DatabasePath(cfg config.DatabaseConfig, instanceID string) string {
	return filepath.Join(cfg.DataDir, instanceID+".db")
}

// InitDatabase creates (or upgrades) the sqlite database for an instance.
func InitDatabase(cfg config.DatabaseConfig, instanceID string) error {
	if cfg.Type != "sqlite" {
		return nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	db, err := OpenConnection(DatabasePath(cfg, instanceID))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}
