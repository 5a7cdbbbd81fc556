package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sip-go/internal/database/migrations"
	"sip-go/internal/database/sqlc"
	"sip-go/internal/sip"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the sip.Database interface using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	clock   sip.Clock
	logger  sip.Logger
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
// A nil clock uses the real clock; a nil logger discards output.
func NewSQLiteDatabase(path string, clock sip.Clock, logger sip.Logger) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	s := NewSQLiteDatabaseFromDB(db, clock, logger)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock sip.Clock, logger sip.Logger) *SQLiteDatabase {
	if clock == nil {
		clock = sip.RealClock{}
	}
	if logger == nil {
		logger = sip.NewNopLogger()
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		clock:   clock,
		logger:  logger,
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: an in-memory database lives per connection, and snapshot
	// reconciliation relies on writes being serialized.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// storageError tags a driver failure as a storage outage.
func storageError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", sip.ErrStorageUnavailable, action, err)
}

// now returns the clock's time in UTC so stored DATETIME values compare as text.
func (s *SQLiteDatabase) now() time.Time {
	return s.clock.Now().UTC()
}

// withTx runs fn inside a transaction and commits when fn succeeds.
func (s *SQLiteDatabase) withTx(ctx context.Context, fn func(qtx *sqlc.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("starting transaction", err)
	}
	defer tx.Rollback()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageError("committing transaction", err)
	}
	return nil
}

// User operations

func (s *SQLiteDatabase) EnsureUser(userID string) (*sqlc.User, error) {
	ctx := context.Background()
	var user sqlc.User
	err := s.withTx(ctx, func(qtx *sqlc.Queries) error {
		if err := s.ensureUser(ctx, qtx, userID); err != nil {
			return err
		}
		var err error
		user, err = qtx.GetUser(ctx, userID)
		if err != nil {
			return storageError("loading user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLiteDatabase) ensureUser(ctx context.Context, qtx *sqlc.Queries, userID string) error {
	err := qtx.InsertUserIfMissing(ctx, sqlc.InsertUserIfMissingParams{
		ID:          userID,
		IsGuest:     true,
		DefaultGoal: sip.DefaultGoal,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return storageError("creating user", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindUser(userID string) (*sqlc.User, error) {
	user, err := s.queries.GetUser(context.Background(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError("finding user", err)
	}
	return &user, nil
}

func (s *SQLiteDatabase) SetDefaultGoal(userID string, goal int64) error {
	err := s.queries.UpdateUserDefaultGoal(context.Background(), sqlc.UpdateUserDefaultGoalParams{
		DefaultGoal: goal,
		ID:          userID,
	})
	if err != nil {
		return storageError("updating default goal", err)
	}
	return nil
}

func (s *SQLiteDatabase) MarkRegistered(userID string) error {
	err := s.queries.UpdateUserGuest(context.Background(), sqlc.UpdateUserGuestParams{
		IsGuest: false,
		ID:      userID,
	})
	if err != nil {
		return storageError("updating guest flag", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListUserIDs() ([]string, error) {
	ids, err := s.queries.ListUserIDs(context.Background())
	if err != nil {
		return nil, storageError("listing users", err)
	}
	return ids, nil
}

// Intake ledger operations

func (s *SQLiteDatabase) AppendIntake(userID string, amountMl int64, loggedAt time.Time, logicalDate string) (*sqlc.IntakeEvent, error) {
	ctx := context.Background()
	var event sqlc.IntakeEvent
	err := s.withTx(ctx, func(qtx *sqlc.Queries) error {
		if err := s.ensureUser(ctx, qtx, userID); err != nil {
			return err
		}
		var err error
		event, err = qtx.InsertIntakeEvent(ctx, sqlc.InsertIntakeEventParams{
			UserID:      userID,
			AmountMl:    amountMl,
			LoggedAt:    loggedAt.UTC(),
			LogicalDate: logicalDate,
		})
		if err != nil {
			return storageError("inserting intake event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *SQLiteDatabase) ImportIntake(userID string, amountMl int64, loggedAt time.Time, logicalDate string) (bool, error) {
	ctx := context.Background()
	inserted := false
	err := s.withTx(ctx, func(qtx *sqlc.Queries) error {
		dupes, err := qtx.CountIntakeDuplicates(ctx, sqlc.CountIntakeDuplicatesParams{
			UserID:   userID,
			AmountMl: amountMl,
			LoggedAt: loggedAt.UTC(),
		})
		if err != nil {
			return storageError("checking for duplicate intake", err)
		}
		if dupes > 0 {
			return nil
		}

		if err := s.ensureUser(ctx, qtx, userID); err != nil {
			return err
		}
		_, err = qtx.InsertIntakeEvent(ctx, sqlc.InsertIntakeEventParams{
			UserID:      userID,
			AmountMl:    amountMl,
			LoggedAt:    loggedAt.UTC(),
			LogicalDate: logicalDate,
		})
		if err != nil {
			return storageError("inserting intake event", err)
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *SQLiteDatabase) FindIntake(eventID int64) (*sqlc.IntakeEvent, error) {
	event, err := s.queries.GetIntakeEvent(context.Background(), eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError("finding intake event", err)
	}
	return &event, nil
}

func (s *SQLiteDatabase) DeleteIntake(eventID int64) error {
	if err := s.queries.DeleteIntakeEvent(context.Background(), eventID); err != nil {
		return storageError("deleting intake event", err)
	}
	return nil
}

func (s *SQLiteDatabase) SumIntakeForDate(userID string, date string) (int64, error) {
	total, err := s.queries.SumIntakeForDate(context.Background(), sqlc.SumIntakeForDateParams{
		UserID:      userID,
		LogicalDate: date,
	})
	if err != nil {
		return 0, storageError("summing intake for date", err)
	}
	return total, nil
}

func (s *SQLiteDatabase) SumIntakeSince(userID string, since time.Time) (int64, error) {
	total, err := s.queries.SumIntakeSince(context.Background(), sqlc.SumIntakeSinceParams{
		UserID:   userID,
		LoggedAt: since.UTC(),
	})
	if err != nil {
		return 0, storageError("summing intake since", err)
	}
	return total, nil
}

func (s *SQLiteDatabase) ListIntakeForDate(userID string, date string) ([]*sqlc.IntakeEvent, error) {
	events, err := s.queries.ListIntakeForDate(context.Background(), sqlc.ListIntakeForDateParams{
		UserID:      userID,
		LogicalDate: date,
	})
	if err != nil {
		return nil, storageError("listing intake for date", err)
	}

	result := make([]*sqlc.IntakeEvent, len(events))
	for i := range events {
		result[i] = &events[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) DailyIntakeTotals(userID string, from string, to string) (map[string]int64, error) {
	rows, err := s.queries.DailyIntakeTotals(context.Background(), sqlc.DailyIntakeTotalsParams{
		UserID:   userID,
		FromDate: from,
		ToDate:   to,
	})
	if err != nil {
		return nil, storageError("loading daily totals", err)
	}

	totals := make(map[string]int64, len(rows))
	for _, row := range rows {
		totals[row.LogicalDate] = row.Total
	}
	return totals, nil
}

func (s *SQLiteDatabase) TransferIntake(fromUserID string, toUserID string) (int64, []string, error) {
	ctx := context.Background()
	var (
		count int64
		dates []string
	)
	err := s.withTx(ctx, func(qtx *sqlc.Queries) error {
		var err error
		dates, err = qtx.ListIntakeDatesForUser(ctx, fromUserID)
		if err != nil {
			return storageError("listing intake dates", err)
		}
		if err := s.ensureUser(ctx, qtx, toUserID); err != nil {
			return err
		}
		count, err = qtx.ReassignIntakeEvents(ctx, sqlc.ReassignIntakeEventsParams{
			ToUserID:   toUserID,
			FromUserID: fromUserID,
		})
		if err != nil {
			return storageError("reassigning intake events", err)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return count, dates, nil
}

// Snapshot store operations

func (s *SQLiteDatabase) FindSnapshot(userID string, date string) (*sqlc.DailySnapshot, error) {
	snapshot, err := s.queries.GetSnapshot(context.Background(), sqlc.GetSnapshotParams{
		UserID: userID,
		Date:   date,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError("finding snapshot", err)
	}
	return &snapshot, nil
}

func (s *SQLiteDatabase) FindSnapshotBefore(userID string, date string) (*sqlc.DailySnapshot, error) {
	snapshot, err := s.queries.GetSnapshotBefore(context.Background(), sqlc.GetSnapshotBeforeParams{
		UserID: userID,
		Date:   date,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, storageError("finding earlier snapshot", err)
	}
	return &snapshot, nil
}

func (s *SQLiteDatabase) HasSnapshotAfter(userID string, date string) (bool, error) {
	count, err := s.queries.CountSnapshotsAfter(context.Background(), sqlc.CountSnapshotsAfterParams{
		UserID: userID,
		Date:   date,
	})
	if err != nil {
		return false, storageError("counting later snapshots", err)
	}
	return count > 0, nil
}

func (s *SQLiteDatabase) UpsertSnapshot(userID string, date string, goalForDay int64, totalIntake int64) (*sqlc.DailySnapshot, error) {
	ctx := context.Background()
	var snapshot *sqlc.DailySnapshot
	err := s.withTx(ctx, func(qtx *sqlc.Queries) error {
		var err error
		snapshot, err = s.upsertSnapshot(ctx, qtx, userID, date, goalForDay, totalIntake)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// upsertSnapshot is the single place goal_met is derived.
func (s *SQLiteDatabase) upsertSnapshot(ctx context.Context, qtx *sqlc.Queries, userID string, date string, goalForDay int64, totalIntake int64) (*sqlc.DailySnapshot, error) {
	if err := s.ensureUser(ctx, qtx, userID); err != nil {
		return nil, err
	}
	snapshot, err := qtx.UpsertSnapshot(ctx, sqlc.UpsertSnapshotParams{
		UserID:      userID,
		Date:        date,
		GoalForDay:  goalForDay,
		TotalIntake: totalIntake,
		GoalMet:     totalIntake >= goalForDay,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return nil, storageError("upserting snapshot", err)
	}
	return &snapshot, nil
}

func (s *SQLiteDatabase) ReconcileSnapshot(userID string, date string, goalForDay int64) (*sqlc.DailySnapshot, error) {
	ctx := context.Background()
	var snapshot *sqlc.DailySnapshot
	err := s.withTx(ctx, func(qtx *sqlc.Queries) error {
		total, err := qtx.SumIntakeForDate(ctx, sqlc.SumIntakeForDateParams{
			UserID:      userID,
			LogicalDate: date,
		})
		if err != nil {
			return storageError("summing intake for date", err)
		}
		snapshot, err = s.upsertSnapshot(ctx, qtx, userID, date, goalForDay, total)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *SQLiteDatabase) ListSnapshots(userID string, limit int) ([]*sqlc.DailySnapshot, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	snapshots, err := s.queries.ListSnapshotsDesc(context.Background(), sqlc.ListSnapshotsDescParams{
		UserID: userID,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, storageError("listing snapshots", err)
	}
	return toSnapshotPointers(snapshots), nil
}

func (s *SQLiteDatabase) ListSnapshotsThrough(userID string, date string, limit int) ([]*sqlc.DailySnapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	snapshots, err := s.queries.ListSnapshotsThroughDesc(context.Background(), sqlc.ListSnapshotsThroughDescParams{
		UserID: userID,
		Date:   date,
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, storageError("listing snapshots through "+date, err)
	}
	return toSnapshotPointers(snapshots), nil
}

func (s *SQLiteDatabase) ListAllSnapshots() ([]*sqlc.DailySnapshot, error) {
	snapshots, err := s.queries.ListAllSnapshots(context.Background())
	if err != nil {
		return nil, storageError("listing all snapshots", err)
	}
	return toSnapshotPointers(snapshots), nil
}

func (s *SQLiteDatabase) MergeSnapshot(fromUserID string, toUserID string, date string) (*sqlc.DailySnapshot, error) {
	ctx := context.Background()
	var result *sqlc.DailySnapshot
	err := s.withTx(ctx, func(qtx *sqlc.Queries) error {
		source, err := qtx.GetSnapshot(ctx, sqlc.GetSnapshotParams{UserID: fromUserID, Date: date})
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		} else if err != nil {
			return storageError("finding source snapshot", err)
		}

		dest, err := qtx.GetSnapshot(ctx, sqlc.GetSnapshotParams{UserID: toUserID, Date: date})
		if errors.Is(err, sql.ErrNoRows) {
			if err := s.ensureUser(ctx, qtx, toUserID); err != nil {
				return err
			}
			err = qtx.ReassignSnapshot(ctx, sqlc.ReassignSnapshotParams{
				ToUserID:   toUserID,
				UpdatedAt:  s.now(),
				FromUserID: fromUserID,
				Date:       date,
			})
			if err != nil {
				return storageError("reassigning snapshot", err)
			}
			source.UserID = toUserID
			result = &source
			return nil
		} else if err != nil {
			return storageError("finding destination snapshot", err)
		}

		result, err = s.upsertSnapshot(ctx, qtx, toUserID, date, dest.GoalForDay, dest.TotalIntake+source.TotalIntake)
		if err != nil {
			return err
		}
		if err := qtx.DeleteSnapshot(ctx, sqlc.DeleteSnapshotParams{UserID: fromUserID, Date: date}); err != nil {
			return storageError("deleting source snapshot", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil {
		s.logger.Debug("snapshot merged", "from", fromUserID, "to", toUserID, "date", date, "total", result.TotalIntake)
	}
	return result, nil
}

func toSnapshotPointers(snapshots []sqlc.DailySnapshot) []*sqlc.DailySnapshot {
	result := make([]*sqlc.DailySnapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*sqlc.Operation, error) {
	op, err := s.queries.InsertOperation(context.Background(), sqlc.InsertOperationParams{
		StartedAt:  s.now(),
		Operation:  operation,
		Parameters: parameters,
	})
	if err != nil {
		return nil, storageError("creating operation", err)
	}
	return &op, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	err := s.queries.UpdateOperationFinished(context.Background(), sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: s.now(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return storageError("finishing operation", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*sqlc.Operation, error) {
	ops, err := s.queries.ListOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, storageError("listing operations", err)
	}

	result := make([]*sqlc.Operation, len(ops))
	for i := range ops {
		result[i] = &ops[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	id, err := s.queries.GetMaxOperationID(context.Background())
	if err != nil {
		return 0, storageError("getting max operation ID", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return storageError("backing up database", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements sip.Database interface
var _ sip.Database = (*SQLiteDatabase)(nil)
