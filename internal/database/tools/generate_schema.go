// Command generate_schema migrates an empty database to the latest version and
// writes the resulting DDL to internal/database/sqlc/schema.sql, where sqlc and
// the test helpers read it. Run it from the module root via go generate.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sip-go/internal/database"
	"sip-go/internal/database/migrations"
)

var schemaPath = filepath.Join("internal", "database", "sqlc", "schema.sql")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	version, _, err := migrations.Version(db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	ddl, err := dumpDDL(db)
	if err != nil {
		return err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "-- Generated by `go generate ./internal/database` from migrations up to %06d.\n", version)
	out.WriteString("-- Edit internal/database/migrations/files instead of this file.\n\n")
	for _, stmt := range ddl {
		out.WriteString(stmt)
		out.WriteString(";\n\n")
	}

	if err := os.WriteFile(schemaPath, []byte(out.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}
	fmt.Printf("wrote %s (schema version %d, %d statements)\n", schemaPath, version, len(ddl))
	return nil
}

// dumpDDL returns the CREATE statements for the ledger's tables and indexes,
// tables first. SQLite's own objects and migrate's bookkeeping table are left out.
func dumpDDL(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT sql
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY type = 'index', name`)
	if err != nil {
		return nil, fmt.Errorf("listing schema objects: %w", err)
	}
	defer rows.Close()

	var ddl []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return nil, fmt.Errorf("scanning schema object: %w", err)
		}
		ddl = append(ddl, stmt)
	}
	return ddl, rows.Err()
}
