package database

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"sip-go/internal/sip"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	clock := fixedClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	db, err := NewSQLiteDatabase(":memory:", clock, nil)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	if _, err := db.db.Exec(Schema); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func at(date string, hour int) time.Time {
	t, _ := time.Parse("2006-01-02", date)
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestSQLiteDatabase_EnsureUser(t *testing.T) {
	t.Run("creates a guest with the default goal", func(t *testing.T) {
		db := newTestDB(t)

		user, err := db.EnsureUser("alex")
		if err != nil {
			t.Fatalf("EnsureUser() error = %v", err)
		}
		if !user.IsGuest {
			t.Error("IsGuest = false, want true for an auto-created user")
		}
		if user.DefaultGoal != sip.DefaultGoal {
			t.Errorf("DefaultGoal = %d, want %d", user.DefaultGoal, sip.DefaultGoal)
		}
	})

	t.Run("keeps existing user", func(t *testing.T) {
		db := newTestDB(t)

		if _, err := db.EnsureUser("alex"); err != nil {
			t.Fatalf("EnsureUser() error = %v", err)
		}
		if err := db.SetDefaultGoal("alex", 3000); err != nil {
			t.Fatalf("SetDefaultGoal() error = %v", err)
		}
		if err := db.MarkRegistered("alex"); err != nil {
			t.Fatalf("MarkRegistered() error = %v", err)
		}

		user, err := db.EnsureUser("alex")
		if err != nil {
			t.Fatalf("EnsureUser() error = %v", err)
		}
		if user.IsGuest || user.DefaultGoal != 3000 {
			t.Errorf("user = %+v, want registered with goal 3000", user)
		}
	})
}

func TestSQLiteDatabase_FindUser(t *testing.T) {
	db := newTestDB(t)

	user, err := db.FindUser("nobody")
	if err != nil {
		t.Fatalf("FindUser() error = %v", err)
	}
	if user != nil {
		t.Errorf("FindUser() = %+v, want nil", user)
	}
}

func TestSQLiteDatabase_AppendIntake(t *testing.T) {
	db := newTestDB(t)

	event, err := db.AppendIntake("alex", 250, at("2024-01-15", 9), "2024-01-15")
	if err != nil {
		t.Fatalf("AppendIntake() error = %v", err)
	}
	if event.ID == 0 || event.AmountMl != 250 || event.LogicalDate != "2024-01-15" {
		t.Errorf("AppendIntake() = %+v", event)
	}

	// The user row is created on first write.
	user, err := db.FindUser("alex")
	if err != nil || user == nil {
		t.Fatalf("FindUser() = %v, %v; want user", user, err)
	}

	found, err := db.FindIntake(event.ID)
	if err != nil {
		t.Fatalf("FindIntake() error = %v", err)
	}
	if found == nil || found.UserID != "alex" {
		t.Errorf("FindIntake() = %+v, want alex's event", found)
	}
	if !found.LoggedAt.Equal(at("2024-01-15", 9)) {
		t.Errorf("LoggedAt = %v, want %v", found.LoggedAt, at("2024-01-15", 9))
	}
}

func TestSQLiteDatabase_SumAndList(t *testing.T) {
	db := newTestDB(t)

	entries := []struct {
		amount int64
		date   string
		hour   int
	}{
		{250, "2024-01-14", 8},
		{500, "2024-01-15", 8},
		{300, "2024-01-15", 14},
		{100, "2024-01-13", 20},
	}
	for _, e := range entries {
		if _, err := db.AppendIntake("alex", e.amount, at(e.date, e.hour), e.date); err != nil {
			t.Fatalf("AppendIntake() error = %v", err)
		}
	}
	if _, err := db.AppendIntake("sam", 999, at("2024-01-15", 9), "2024-01-15"); err != nil {
		t.Fatalf("AppendIntake() error = %v", err)
	}

	t.Run("sum for date", func(t *testing.T) {
		total, err := db.SumIntakeForDate("alex", "2024-01-15")
		if err != nil {
			t.Fatalf("SumIntakeForDate() error = %v", err)
		}
		if total != 800 {
			t.Errorf("SumIntakeForDate() = %d, want 800", total)
		}
	})

	t.Run("sum for empty date is zero", func(t *testing.T) {
		total, err := db.SumIntakeForDate("alex", "2024-01-01")
		if err != nil {
			t.Fatalf("SumIntakeForDate() error = %v", err)
		}
		if total != 0 {
			t.Errorf("SumIntakeForDate() = %d, want 0", total)
		}
	})

	t.Run("sum since instant", func(t *testing.T) {
		total, err := db.SumIntakeSince("alex", at("2024-01-15", 0))
		if err != nil {
			t.Fatalf("SumIntakeSince() error = %v", err)
		}
		if total != 800 {
			t.Errorf("SumIntakeSince() = %d, want 800", total)
		}
	})

	t.Run("list for date is newest first", func(t *testing.T) {
		events, err := db.ListIntakeForDate("alex", "2024-01-15")
		if err != nil {
			t.Fatalf("ListIntakeForDate() error = %v", err)
		}
		if len(events) != 2 || events[0].AmountMl != 300 || events[1].AmountMl != 500 {
			t.Errorf("ListIntakeForDate() = %+v", events)
		}
	})

	t.Run("daily totals in range", func(t *testing.T) {
		totals, err := db.DailyIntakeTotals("alex", "2024-01-14", "2024-01-15")
		if err != nil {
			t.Fatalf("DailyIntakeTotals() error = %v", err)
		}
		want := map[string]int64{"2024-01-14": 250, "2024-01-15": 800}
		if len(totals) != len(want) {
			t.Fatalf("DailyIntakeTotals() = %v, want %v", totals, want)
		}
		for date, total := range want {
			if totals[date] != total {
				t.Errorf("totals[%s] = %d, want %d", date, totals[date], total)
			}
		}
	})
}

func TestSQLiteDatabase_DeleteIntake(t *testing.T) {
	db := newTestDB(t)

	event, err := db.AppendIntake("alex", 250, at("2024-01-15", 9), "2024-01-15")
	if err != nil {
		t.Fatalf("AppendIntake() error = %v", err)
	}
	if err := db.DeleteIntake(event.ID); err != nil {
		t.Fatalf("DeleteIntake() error = %v", err)
	}

	found, err := db.FindIntake(event.ID)
	if err != nil {
		t.Fatalf("FindIntake() error = %v", err)
	}
	if found != nil {
		t.Errorf("FindIntake() after delete = %+v, want nil", found)
	}
}

func TestSQLiteDatabase_ImportIntake(t *testing.T) {
	db := newTestDB(t)
	loggedAt := at("2024-01-10", 7)

	inserted, err := db.ImportIntake("alex", 330, loggedAt, "2024-01-10")
	if err != nil {
		t.Fatalf("ImportIntake() error = %v", err)
	}
	if !inserted {
		t.Error("first ImportIntake() inserted = false, want true")
	}

	inserted, err = db.ImportIntake("alex", 330, loggedAt, "2024-01-10")
	if err != nil {
		t.Fatalf("ImportIntake() error = %v", err)
	}
	if inserted {
		t.Error("duplicate ImportIntake() inserted = true, want false")
	}

	// Same instant with a different amount is a separate event.
	inserted, err = db.ImportIntake("alex", 200, loggedAt, "2024-01-10")
	if err != nil {
		t.Fatalf("ImportIntake() error = %v", err)
	}
	if !inserted {
		t.Error("ImportIntake() with different amount inserted = false, want true")
	}

	total, _ := db.SumIntakeForDate("alex", "2024-01-10")
	if total != 530 {
		t.Errorf("SumIntakeForDate() = %d, want 530", total)
	}
}

func TestSQLiteDatabase_ReconcileSnapshot(t *testing.T) {
	t.Run("derives total and goal_met from the ledger", func(t *testing.T) {
		db := newTestDB(t)
		db.AppendIntake("alex", 1500, at("2024-01-15", 8), "2024-01-15")
		db.AppendIntake("alex", 1000, at("2024-01-15", 12), "2024-01-15")

		snap, err := db.ReconcileSnapshot("alex", "2024-01-15", 2500)
		if err != nil {
			t.Fatalf("ReconcileSnapshot() error = %v", err)
		}
		if snap.TotalIntake != 2500 || snap.GoalForDay != 2500 || !snap.GoalMet {
			t.Errorf("ReconcileSnapshot() = %+v, want total 2500 goal 2500 met", snap)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := newTestDB(t)
		db.AppendIntake("alex", 700, at("2024-01-15", 8), "2024-01-15")

		first, err := db.ReconcileSnapshot("alex", "2024-01-15", 2000)
		if err != nil {
			t.Fatalf("ReconcileSnapshot() error = %v", err)
		}
		second, err := db.ReconcileSnapshot("alex", "2024-01-15", 2000)
		if err != nil {
			t.Fatalf("ReconcileSnapshot() error = %v", err)
		}
		if first.ID != second.ID || first.TotalIntake != second.TotalIntake || first.GoalMet != second.GoalMet {
			t.Errorf("second reconcile = %+v, want %+v", second, first)
		}

		all, _ := db.ListSnapshots("alex", 0)
		if len(all) != 1 {
			t.Errorf("len(ListSnapshots()) = %d, want 1", len(all))
		}
	})

	t.Run("empty day gets zero snapshot", func(t *testing.T) {
		db := newTestDB(t)

		snap, err := db.ReconcileSnapshot("alex", "2024-01-14", 2500)
		if err != nil {
			t.Fatalf("ReconcileSnapshot() error = %v", err)
		}
		if snap.TotalIntake != 0 || snap.GoalMet {
			t.Errorf("ReconcileSnapshot() = %+v, want zero unmet", snap)
		}
	})
}

func TestSQLiteDatabase_ReconcileSnapshot_Concurrent(t *testing.T) {
	db := newTestDB(t)

	// Each writer appends then reconciles; the last reconcile to commit must see
	// every event, whatever order the writers run in.
	const writers = 25
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.AppendIntake("alex", 100, at("2024-01-15", i%24), "2024-01-15"); err != nil {
				t.Errorf("AppendIntake() error = %v", err)
				return
			}
			if _, err := db.ReconcileSnapshot("alex", "2024-01-15", 2500); err != nil {
				t.Errorf("ReconcileSnapshot() error = %v", err)
			}
		}()
	}
	wg.Wait()

	snap, err := db.FindSnapshot("alex", "2024-01-15")
	if err != nil {
		t.Fatalf("FindSnapshot() error = %v", err)
	}
	if snap == nil || snap.TotalIntake != writers*100 || !snap.GoalMet {
		t.Errorf("snapshot = %+v, want total %d met", snap, writers*100)
	}
}

func TestSQLiteDatabase_UpsertSnapshot_GoalMet(t *testing.T) {
	tests := []struct {
		name  string
		goal  int64
		total int64
		want  bool
	}{
		{"below goal", 2500, 2499, false},
		{"exactly goal", 2500, 2500, true},
		{"above goal", 2000, 3100, true},
		{"zero intake", 1500, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)

			snap, err := db.UpsertSnapshot("alex", "2024-01-10", tt.goal, tt.total)
			if err != nil {
				t.Fatalf("UpsertSnapshot() error = %v", err)
			}
			if snap.GoalMet != tt.want {
				t.Errorf("GoalMet = %v, want %v", snap.GoalMet, tt.want)
			}
		})
	}
}

func TestSQLiteDatabase_SnapshotLookups(t *testing.T) {
	db := newTestDB(t)
	db.UpsertSnapshot("alex", "2024-01-10", 2000, 0)
	db.UpsertSnapshot("alex", "2024-01-12", 3000, 0)
	db.UpsertSnapshot("sam", "2024-01-11", 1800, 0)

	t.Run("exact", func(t *testing.T) {
		snap, err := db.FindSnapshot("alex", "2024-01-12")
		if err != nil || snap == nil || snap.GoalForDay != 3000 {
			t.Errorf("FindSnapshot() = %+v, %v; want goal 3000", snap, err)
		}
		missing, err := db.FindSnapshot("alex", "2024-01-11")
		if err != nil || missing != nil {
			t.Errorf("FindSnapshot(missing) = %+v, %v; want nil", missing, err)
		}
	})

	t.Run("nearest earlier", func(t *testing.T) {
		snap, err := db.FindSnapshotBefore("alex", "2024-01-12")
		if err != nil || snap == nil || snap.Date != "2024-01-10" {
			t.Errorf("FindSnapshotBefore() = %+v, %v; want 2024-01-10", snap, err)
		}
		none, err := db.FindSnapshotBefore("alex", "2024-01-10")
		if err != nil || none != nil {
			t.Errorf("FindSnapshotBefore(first) = %+v, %v; want nil", none, err)
		}
	})

	t.Run("later snapshots", func(t *testing.T) {
		later, err := db.HasSnapshotAfter("alex", "2024-01-10")
		if err != nil || !later {
			t.Errorf("HasSnapshotAfter(2024-01-10) = %v, %v; want true", later, err)
		}
		later, err = db.HasSnapshotAfter("alex", "2024-01-12")
		if err != nil || later {
			t.Errorf("HasSnapshotAfter(2024-01-12) = %v, %v; want false", later, err)
		}
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		snaps, err := db.ListSnapshots("alex", 1)
		if err != nil {
			t.Fatalf("ListSnapshots() error = %v", err)
		}
		if len(snaps) != 1 || snaps[0].Date != "2024-01-12" {
			t.Errorf("ListSnapshots(1) = %+v", snaps)
		}
	})

	t.Run("list through a date", func(t *testing.T) {
		snaps, err := db.ListSnapshotsThrough("alex", "2024-01-11", 0)
		if err != nil {
			t.Fatalf("ListSnapshotsThrough() error = %v", err)
		}
		if len(snaps) != 1 || snaps[0].Date != "2024-01-10" {
			t.Errorf("ListSnapshotsThrough(2024-01-11) = %+v, want only 2024-01-10", snaps)
		}
		snaps, _ = db.ListSnapshotsThrough("alex", "2024-01-12", 1)
		if len(snaps) != 1 || snaps[0].Date != "2024-01-12" {
			t.Errorf("ListSnapshotsThrough(2024-01-12, 1) = %+v, want 2024-01-12", snaps)
		}
	})

	t.Run("list all users", func(t *testing.T) {
		snaps, err := db.ListAllSnapshots()
		if err != nil {
			t.Fatalf("ListAllSnapshots() error = %v", err)
		}
		if len(snaps) != 3 {
			t.Errorf("len(ListAllSnapshots()) = %d, want 3", len(snaps))
		}
	})
}

func TestSQLiteDatabase_TransferIntake(t *testing.T) {
	db := newTestDB(t)
	db.AppendIntake("guest_1", 250, at("2024-01-14", 8), "2024-01-14")
	db.AppendIntake("guest_1", 300, at("2024-01-15", 8), "2024-01-15")
	db.AppendIntake("guest_1", 200, at("2024-01-15", 9), "2024-01-15")

	count, dates, err := db.TransferIntake("guest_1", "alex")
	if err != nil {
		t.Fatalf("TransferIntake() error = %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if len(dates) != 2 {
		t.Errorf("dates = %v, want two distinct dates", dates)
	}

	guestTotal, _ := db.SumIntakeForDate("guest_1", "2024-01-15")
	alexTotal, _ := db.SumIntakeForDate("alex", "2024-01-15")
	if guestTotal != 0 || alexTotal != 500 {
		t.Errorf("totals after transfer = (guest %d, alex %d), want (0, 500)", guestTotal, alexTotal)
	}
}

func TestSQLiteDatabase_MergeSnapshot(t *testing.T) {
	t.Run("reassigns when destination has none", func(t *testing.T) {
		db := newTestDB(t)
		db.UpsertSnapshot("guest_1", "2024-01-14", 2000, 2100)

		merged, err := db.MergeSnapshot("guest_1", "alex", "2024-01-14")
		if err != nil {
			t.Fatalf("MergeSnapshot() error = %v", err)
		}
		if merged == nil || merged.UserID != "alex" || merged.TotalIntake != 2100 || merged.GoalForDay != 2000 {
			t.Errorf("MergeSnapshot() = %+v", merged)
		}
		if snap, _ := db.FindSnapshot("guest_1", "2024-01-14"); snap != nil {
			t.Errorf("guest snapshot still present: %+v", snap)
		}
	})

	t.Run("sums totals against destination goal", func(t *testing.T) {
		db := newTestDB(t)
		db.UpsertSnapshot("guest_1", "2024-01-14", 1000, 1200)
		db.UpsertSnapshot("alex", "2024-01-14", 3000, 1500)

		merged, err := db.MergeSnapshot("guest_1", "alex", "2024-01-14")
		if err != nil {
			t.Fatalf("MergeSnapshot() error = %v", err)
		}
		if merged.TotalIntake != 2700 || merged.GoalForDay != 3000 || merged.GoalMet {
			t.Errorf("MergeSnapshot() = %+v, want total 2700 goal 3000 unmet", merged)
		}
		if snap, _ := db.FindSnapshot("guest_1", "2024-01-14"); snap != nil {
			t.Errorf("guest snapshot still present: %+v", snap)
		}
	})

	t.Run("missing source is a no-op", func(t *testing.T) {
		db := newTestDB(t)

		merged, err := db.MergeSnapshot("guest_1", "alex", "2024-01-14")
		if err != nil {
			t.Fatalf("MergeSnapshot() error = %v", err)
		}
		if merged != nil {
			t.Errorf("MergeSnapshot() = %+v, want nil", merged)
		}
	})
}

func TestSQLiteDatabase_Operations(t *testing.T) {
	db := newTestDB(t)

	maxID, err := db.MaxOperationID()
	if err != nil {
		t.Fatalf("MaxOperationID() error = %v", err)
	}
	if maxID != 0 {
		t.Errorf("MaxOperationID() on empty db = %d, want 0", maxID)
	}

	op, err := db.CreateOperation("log", `{"amount_ml":250}`)
	if err != nil {
		t.Fatalf("CreateOperation() error = %v", err)
	}
	if op.Status != "running" {
		t.Errorf("Status = %q, want running", op.Status)
	}
	if err := db.FinishOperation(op.ID, "success"); err != nil {
		t.Fatalf("FinishOperation() error = %v", err)
	}

	ops, err := db.ListOperations(10)
	if err != nil {
		t.Fatalf("ListOperations() error = %v", err)
	}
	if len(ops) != 1 || ops[0].Status != "success" || !ops[0].FinishedAt.Valid {
		t.Errorf("ListOperations() = %+v", ops)
	}

	maxID, _ = db.MaxOperationID()
	if maxID != op.ID {
		t.Errorf("MaxOperationID() = %d, want %d", maxID, op.ID)
	}
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newTestDB(t)
	db.AppendIntake("alex", 250, at("2024-01-15", 9), "2024-01-15")

	dest := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	restored, err := NewSQLiteDatabase(dest, nil, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer restored.Close()

	total, err := restored.SumIntakeForDate("alex", "2024-01-15")
	if err != nil {
		t.Fatalf("SumIntakeForDate() on backup error = %v", err)
	}
	if total != 250 {
		t.Errorf("backup total = %d, want 250", total)
	}
}

func TestSQLiteDatabase_StorageErrors(t *testing.T) {
	t.Run("query failure is a storage error", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New() error = %v", err)
		}
		db := NewSQLiteDatabaseFromDB(mockDB, nil, nil)
		defer db.Close()

		mock.ExpectQuery("FROM users").WillReturnError(errors.New("disk I/O error"))

		_, err = db.FindUser("alex")
		if !errors.Is(err, sip.ErrStorageUnavailable) {
			t.Errorf("FindUser() error = %v, want ErrStorageUnavailable", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("failed reconcile rolls back", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New() error = %v", err)
		}
		db := NewSQLiteDatabaseFromDB(mockDB, nil, nil)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SUM\\(amount_ml\\)").WillReturnError(errors.New("database is locked"))
		mock.ExpectRollback()

		_, err = db.ReconcileSnapshot("alex", "2024-01-15", 2500)
		if !errors.Is(err, sip.ErrStorageUnavailable) {
			t.Errorf("ReconcileSnapshot() error = %v, want ErrStorageUnavailable", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("begin failure is a storage error", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock.New() error = %v", err)
		}
		db := NewSQLiteDatabaseFromDB(mockDB, nil, nil)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("unable to open database file"))

		_, err = db.AppendIntake("alex", 250, at("2024-01-15", 9), "2024-01-15")
		if !errors.Is(err, sip.ErrStorageUnavailable) {
			t.Errorf("AppendIntake() error = %v, want ErrStorageUnavailable", err)
		}
	})
}
