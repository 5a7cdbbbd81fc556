package sip

import (
	"time"

	"sip-go/internal/database/sqlc"
)

// Database provides the durable storage behind the intake ledger and the snapshot store.
// Lookups return nil (and no error) when the record does not exist. Every storage
// failure is reported wrapped with ErrStorageUnavailable.
type Database interface {
	// User operations

	// EnsureUser creates the user record if absent. New users start as guests
	// with the default goal.
	EnsureUser(userID string) (*sqlc.User, error)

	// FindUser returns a user by ID.
	FindUser(userID string) (*sqlc.User, error)

	// SetDefaultGoal changes the goal used when a caller does not supply one.
	SetDefaultGoal(userID string, goal int64) error

	// MarkRegistered clears the guest flag on a user.
	MarkRegistered(userID string) error

	// ListUserIDs returns every known user ID.
	ListUserIDs() ([]string, error)

	// Intake ledger operations

	// AppendIntake records one intake event, creating the user if needed.
	AppendIntake(userID string, amountMl int64, loggedAt time.Time, logicalDate string) (*sqlc.IntakeEvent, error)

	// ImportIntake records an intake event unless one with the same user, amount
	// and timestamp already exists. Reports whether a row was inserted.
	ImportIntake(userID string, amountMl int64, loggedAt time.Time, logicalDate string) (bool, error)

	// FindIntake returns an intake event by ID.
	FindIntake(eventID int64) (*sqlc.IntakeEvent, error)

	// DeleteIntake removes an intake event.
	DeleteIntake(eventID int64) error

	// SumIntakeForDate totals a user's intake attributed to a logical date.
	SumIntakeForDate(userID string, date string) (int64, error)

	// SumIntakeSince totals a user's intake logged at or after since.
	SumIntakeSince(userID string, since time.Time) (int64, error)

	// ListIntakeForDate returns a logical date's events, newest first.
	ListIntakeForDate(userID string, date string) ([]*sqlc.IntakeEvent, error)

	// DailyIntakeTotals returns per-date totals for dates in [from, to].
	// Dates without intake are absent from the map.
	DailyIntakeTotals(userID string, from string, to string) (map[string]int64, error)

	// TransferIntake reassigns every event of fromUserID to toUserID and returns
	// the number moved and the distinct logical dates they cover.
	TransferIntake(fromUserID string, toUserID string) (int64, []string, error)

	// Snapshot store operations

	// FindSnapshot returns the snapshot for a user and date.
	FindSnapshot(userID string, date string) (*sqlc.DailySnapshot, error)

	// FindSnapshotBefore returns the snapshot with the greatest date strictly before date.
	FindSnapshotBefore(userID string, date string) (*sqlc.DailySnapshot, error)

	// HasSnapshotAfter reports whether a snapshot exists for a date later than date.
	HasSnapshotAfter(userID string, date string) (bool, error)

	// UpsertSnapshot writes the snapshot for a user and date. goal_met is derived
	// from the totals; the user is created if absent. Idempotent.
	UpsertSnapshot(userID string, date string, goalForDay int64, totalIntake int64) (*sqlc.DailySnapshot, error)

	// ReconcileSnapshot totals the ledger for a date and writes the snapshot with
	// goalForDay in one transaction.
	ReconcileSnapshot(userID string, date string, goalForDay int64) (*sqlc.DailySnapshot, error)

	// ListSnapshots returns up to limit snapshots for a user, newest date first.
	// A non-positive limit returns all of them.
	ListSnapshots(userID string, limit int) ([]*sqlc.DailySnapshot, error)

	// ListSnapshotsThrough is ListSnapshots restricted to snapshots dated on or
	// before date.
	ListSnapshotsThrough(userID string, date string, limit int) ([]*sqlc.DailySnapshot, error)

	// ListAllSnapshots returns every snapshot for every user. Maintenance only.
	ListAllSnapshots() ([]*sqlc.DailySnapshot, error)

	// MergeSnapshot moves fromUserID's snapshot for date to toUserID. When the
	// destination already has one, totals are added against the destination's goal
	// and the source is discarded. Returns nil when the source has no snapshot.
	MergeSnapshot(fromUserID string, toUserID string, date string) (*sqlc.DailySnapshot, error)

	// Operation tracking

	// CreateOperation records the start of a mutating command.
	CreateOperation(operation string, parameters string) (*sqlc.Operation, error)

	// FinishOperation stamps the finish time and final status of an operation.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*sqlc.Operation, error)

	// MaxOperationID returns the highest operation ID, or 0 if none exist.
	MaxOperationID() (int64, error)

	// CheckMigrations verifies the schema is at the latest migration.
	CheckMigrations() error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}
