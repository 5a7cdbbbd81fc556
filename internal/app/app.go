package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"sip-go/internal/api"
	"sip-go/internal/config"
	"sip-go/internal/database"
	"sip-go/internal/database/sqlc"
	"sip-go/internal/encryption"
	"sip-go/internal/feedback"
	"sip-go/internal/importer"
	"sip-go/internal/sip"
	"sip-go/internal/vault"
)

// SipApp is the application layer between the CLI and SipService.
// It constructs all dependencies from config, records mutating commands as
// operations, and archives the database on Close.
type SipApp struct {
	cfg       *config.Config
	db        sip.Database
	vault     sip.Vault
	encryptor sip.Encryptor
	service   *sip.SipService
	logger    sip.Logger
	op        *Operation
	logFile   *os.File
}

// NewSipApp creates a fully wired SipApp from the given config.
// operation identifies the CLI command being run (e.g. "LogIntake", "SweepAll").
// The caller must call Close when done.
func NewSipApp(cfg *config.Config, operation string) (*SipApp, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a, err := newSipApp(cfg, operation, logger)
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

func newSipApp(cfg *config.Config, operation string, logger sip.Logger) (*SipApp, error) {
	var v sip.Vault
	if len(cfg.Vaults) > 0 {
		var err error
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	clock := sip.RealClock{}
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	// A newer archive means another host wrote to this instance's ledger.
	if v != nil {
		remoteVersion, err := v.ArchiveVersion(cfg.InstanceID, sip.ArchiveDatabase)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("checking archive version: %w", err)
		}
		localMax, err := db.MaxOperationID()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("checking local version: %w", err)
		}
		if remoteVersion > localMax {
			db.Close()
			return nil, fmt.Errorf("local database is behind the archive (local=%d, archive=%d): run `sip archive pull`", localMax, remoteVersion)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	coach, err := feedback.NewGeneratorFromConfig(cfg.Feedback)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating feedback generator: %w", err)
	}

	svc := sip.NewSipService(db, coach, logger, clock, sip.UUIDGenerator{})

	return &SipApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   svc,
		logger:    logger,
		op:        NewOperation(operation, ""),
	}, nil
}

// Service exposes the wired service for read-only commands.
func (a *SipApp) Service() *sip.SipService {
	return a.service
}

// persistOperation saves the operation with its parameters, giving it an
// auto-increment ID. Only ledger-mutating commands call it.
func (a *SipApp) persistOperation(params ...any) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = formatParams(params...)
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// track persists the operation and runs fn, marking the operation failed on error.
func track[T any](a *SipApp, fn func() (T, error), params ...any) (T, error) {
	if err := a.persistOperation(params...); err != nil {
		var zero T
		return zero, err
	}
	v, err := fn()
	if err != nil {
		a.op.Status = "error"
	}
	return v, err
}

// userOrDefault falls back to the configured user.
func (a *SipApp) userOrDefault(userID string) string {
	if userID == "" {
		return a.cfg.UserID
	}
	return userID
}

// goalOrConfigured falls back to the configured default goal.
func (a *SipApp) goalOrConfigured(goal int64) int64 {
	if goal <= 0 {
		return a.cfg.DefaultGoal
	}
	return goal
}

// LogIntake records an intake for the request's user (the configured user when empty).
func (a *SipApp) LogIntake(req sip.LogIntakeRequest) (*sip.LogIntakeResult, error) {
	req.UserID = a.userOrDefault(req.UserID)
	return track(a, func() (*sip.LogIntakeResult, error) {
		return a.service.LogIntake(req)
	}, "user", req.UserID, "amount_ml", req.AmountMl, "date", req.Date)
}

// DeleteIntake removes one of the configured user's intake events.
func (a *SipApp) DeleteIntake(eventID int64, userID string, date string) (*sip.DeleteIntakeResult, error) {
	userID = a.userOrDefault(userID)
	return track(a, func() (*sip.DeleteIntakeResult, error) {
		return a.service.DeleteIntake(eventID, userID, date)
	}, "user", userID, "event", eventID)
}

// SetGoal changes the goal of one day.
func (a *SipApp) SetGoal(userID string, date string, goal int64) (*sqlc.DailySnapshot, error) {
	userID = a.userOrDefault(userID)
	if date == "" {
		date = a.service.Today()
	}
	return track(a, func() (*sqlc.DailySnapshot, error) {
		return a.service.SetGoal(userID, date, goal)
	}, "user", userID, "date", date, "goal", goal)
}

// SetDefaultGoal changes the goal used when none is supplied.
func (a *SipApp) SetDefaultGoal(userID string, goal int64) error {
	userID = a.userOrDefault(userID)
	_, err := track(a, func() (struct{}, error) {
		return struct{}{}, a.service.SetDefaultGoal(userID, goal)
	}, "user", userID, "goal", goal)
	return err
}

// GetHistory returns one day of the user's ledger.
func (a *SipApp) GetHistory(userID string, date string) (*sip.History, error) {
	return a.service.GetHistory(a.userOrDefault(userID), date)
}

// GetStats returns the user's recent totals and streak. Backfilled snapshots
// are written, so the call is tracked.
func (a *SipApp) GetStats(req sip.StatsRequest) (*sip.Stats, error) {
	req.UserID = a.userOrDefault(req.UserID)
	req.Goal = a.goalOrConfigured(req.Goal)
	return track(a, func() (*sip.Stats, error) {
		return a.service.GetStats(req)
	}, "user", req.UserID, "days", req.WindowDays)
}

// ImportFile imports a CSV intake export.
func (a *SipApp) ImportFile(userID string, path string, goal int64) (*sip.ImportResult, error) {
	userID = a.userOrDefault(userID)
	entries, err := importer.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return track(a, func() (*sip.ImportResult, error) {
		return a.service.BulkImport(userID, entries, a.goalOrConfigured(goal))
	}, "user", userID, "file", path)
}

// ClaimGuestData moves a guest's data to the configured user when toUserID is empty.
func (a *SipApp) ClaimGuestData(fromUserID string, toUserID string, goal int64) (*sip.ClaimResult, error) {
	toUserID = a.userOrDefault(toUserID)
	return track(a, func() (*sip.ClaimResult, error) {
		return a.service.ClaimGuestData(fromUserID, toUserID, a.goalOrConfigured(goal))
	}, "from", fromUserID, "to", toUserID)
}

// Backfill writes missing snapshots for one user.
func (a *SipApp) Backfill(userID string, horizonDays int) (int, error) {
	userID = a.userOrDefault(userID)
	return track(a, func() (int, error) {
		goal, err := a.service.DefaultGoalFor(userID)
		if err != nil {
			return 0, err
		}
		if _, err := a.service.LockPreviousDay(userID, goal, ""); err != nil {
			return 0, err
		}
		return a.service.Backfill(userID, goal, horizonDays, "")
	}, "user", userID, "horizon_days", horizonDays)
}

// SweepAll locks and backfills every user.
func (a *SipApp) SweepAll() (*sip.SweepReport, error) {
	return track(a, func() (*sip.SweepReport, error) {
		return a.service.SweepAll("")
	})
}

// RepairGoals scans snapshots for corrupt goals. Only a live run is tracked.
func (a *SipApp) RepairGoals(live bool) (*sip.RepairReport, error) {
	if !live {
		return a.service.RepairGoals(true)
	}
	return track(a, func() (*sip.RepairReport, error) {
		return a.service.RepairGoals(false)
	})
}

// Feedback asks the configured coach about a day's intake.
func (a *SipApp) Feedback(ctx context.Context, userID string, goal int64, date string) (string, error) {
	userID = a.userOrDefault(userID)
	return a.service.Feedback(ctx, userID, a.goalOrConfigured(goal), date)
}

// NewGuest mints a guest user.
func (a *SipApp) NewGuest() (string, error) {
	return track(a, a.service.NewGuest)
}

// Operations returns the most recent tracked operations.
func (a *SipApp) Operations(limit int) ([]*sqlc.Operation, error) {
	return a.service.Operations(limit)
}

// Watch imports CSV files dropped into dir until ctx is done.
func (a *SipApp) Watch(ctx context.Context, dir string, userID string, goal int64) error {
	w, err := importer.NewWatcher(dir, a.service, a.userOrDefault(userID), a.goalOrConfigured(goal), a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	a.logger.Info("watching for intake exports", "dir", dir)
	if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("stopped watching for intake exports", "dir", dir)
	return nil
}

// Serve runs the HTTP API, the nightly sweep and, when configured, the import
// watcher until ctx is done.
func (a *SipApp) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Server.SweepSchedule != "" {
		sweeper, err := NewSweeper(a.service, a.cfg.Server.SweepSchedule, a.logger)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	// The watcher must be done with the database before Close runs.
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	if dir := a.cfg.Importer.WatchDir; dir != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.Watch(ctx, dir, "", 0); err != nil {
				a.logger.Error("import watcher stopped", "error", err)
			}
		}()
	}

	srv := api.NewServer(a.service, a.logger, a.cfg.Server.CORSOrigins)
	return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
}

// Close finalizes the operation and closes all resources.
// For persisted operations the database is archived to the vault afterwards,
// when a vault and keys are configured.
func (a *SipApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
		if a.vault != nil && a.encryptor.IsConfigured() {
			if err := a.PushArchive(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

func formatParams(params ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(params); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", params[i], params[i+1])
	}
	return b.String()
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
