package sip_test

import (
	"errors"
	"testing"
	"time"

	"sip-go/internal/sip"
	"sip-go/internal/testutil"
)

func TestSipService_GetStats(t *testing.T) {
	svc, _, _ := newTestService(t)

	logs := []sip.LogIntakeRequest{
		{UserID: "alex", AmountMl: 3000, Goal: 2500, Date: "2024-01-13"},
		{UserID: "alex", AmountMl: 2500, Goal: 2500, Date: "2024-01-14"},
		{UserID: "alex", AmountMl: 1000, Goal: 2500},
	}
	for _, req := range logs {
		if _, err := svc.LogIntake(req); err != nil {
			t.Fatalf("LogIntake() error = %v", err)
		}
	}

	stats, err := svc.GetStats(sip.StatsRequest{UserID: "alex"})
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if len(stats.Daily) != sip.DefaultStatsDays {
		t.Fatalf("len(Daily) = %d, want %d", len(stats.Daily), sip.DefaultStatsDays)
	}
	if stats.Daily[0] != (sip.DailyTotal{Date: "2024-01-15", Total: 1000}) {
		t.Errorf("Daily[0] = %+v, want today with 1000", stats.Daily[0])
	}
	if stats.Daily[2] != (sip.DailyTotal{Date: "2024-01-13", Total: 3000}) {
		t.Errorf("Daily[2] = %+v", stats.Daily[2])
	}
	// Today is still in progress, so the streak counts from yesterday.
	if stats.Streak != 2 {
		t.Errorf("Streak = %d, want 2", stats.Streak)
	}
	if stats.WeekTotal != 6500 || stats.MonthTotal != 6500 {
		t.Errorf("WeekTotal, MonthTotal = %d, %d; want 6500, 6500", stats.WeekTotal, stats.MonthTotal)
	}
	if stats.WeekAverage != 929 {
		t.Errorf("WeekAverage = %d, want 929", stats.WeekAverage)
	}
}

func TestSipService_GetStats_Window(t *testing.T) {
	svc, db, _ := newTestService(t)

	// Forty days ago lies outside the month but inside a 60 day window.
	if _, err := db.AppendIntake("alex", 750, time.Date(2023, 12, 6, 9, 0, 0, 0, time.UTC), "2023-12-06"); err != nil {
		t.Fatalf("AppendIntake() error = %v", err)
	}
	if _, err := db.AppendIntake("alex", 500, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), "2024-01-01"); err != nil {
		t.Fatalf("AppendIntake() error = %v", err)
	}

	tests := []struct {
		name       string
		window     int
		wantLen    int
		wantMonth  int64
		wantInside bool
	}{
		{"short window still totals the month", 7, 7, 500, false},
		{"long window", 60, 60, 500, true},
		{"capped window", 1000, sip.MaxStreakDays, 500, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := svc.GetStats(sip.StatsRequest{UserID: "alex", WindowDays: tt.window})
			if err != nil {
				t.Fatalf("GetStats() error = %v", err)
			}
			if len(stats.Daily) != tt.wantLen {
				t.Errorf("len(Daily) = %d, want %d", len(stats.Daily), tt.wantLen)
			}
			if stats.MonthTotal != tt.wantMonth {
				t.Errorf("MonthTotal = %d, want %d", stats.MonthTotal, tt.wantMonth)
			}
			var found bool
			for _, d := range stats.Daily {
				if d.Date == "2023-12-06" && d.Total == 750 {
					found = true
				}
			}
			if found != tt.wantInside {
				t.Errorf("2023-12-06 in window = %v, want %v", found, tt.wantInside)
			}
		})
	}
}

func TestSipService_GetStats_BackfillsBeforeStreak(t *testing.T) {
	svc, db, _ := newTestService(t)

	// Ledger rows written without reconciliation, as after a crash.
	for _, date := range []string{"2024-01-13", "2024-01-14"} {
		loggedAt, _ := sip.ParseDate(date)
		if _, err := db.AppendIntake("alex", 2600, loggedAt.Add(10*time.Hour), date); err != nil {
			t.Fatalf("AppendIntake() error = %v", err)
		}
	}

	stats, err := svc.GetStats(sip.StatsRequest{UserID: "alex", Goal: 2500})
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Streak != 2 {
		t.Errorf("Streak = %d, want 2", stats.Streak)
	}
}

func TestSipService_GetStats_CallerToday(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.LogIntake(sip.LogIntakeRequest{UserID: "alex", AmountMl: 2500}); err != nil {
		t.Fatalf("LogIntake() error = %v", err)
	}

	stats, err := svc.GetStats(sip.StatsRequest{UserID: "alex", Today: "2024-01-16"})
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Daily[0].Date != "2024-01-16" || stats.Daily[1].Total != 2500 {
		t.Errorf("Daily[:2] = %+v", stats.Daily[:2])
	}
	if stats.Streak != 1 {
		t.Errorf("Streak = %d, want 1", stats.Streak)
	}

	_, err = svc.GetStats(sip.StatsRequest{UserID: "alex", Today: "tomorrow"})
	if !errors.Is(err, sip.ErrMalformedDate) {
		t.Errorf("GetStats() error = %v, want ErrMalformedDate", err)
	}
}

func TestSipService_GetStats_AcrossMonthBoundary(t *testing.T) {
	svc, _, _ := newTestServiceWithClock(t, testutil.ClockOn(t, "2024-03-02"))

	for _, date := range []string{"2024-02-28", "2024-02-29", "2024-03-01"} {
		if _, err := svc.LogIntake(sip.LogIntakeRequest{UserID: "alex", AmountMl: 2600, Goal: 2500, Date: date}); err != nil {
			t.Fatalf("LogIntake(%s) error = %v", date, err)
		}
	}

	stats, err := svc.GetStats(sip.StatsRequest{UserID: "alex", Goal: 2500})
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Streak != 3 {
		t.Errorf("Streak = %d, want 3", stats.Streak)
	}
	if stats.Daily[2] != (sip.DailyTotal{Date: "2024-02-29", Total: 2600}) {
		t.Errorf("Daily[2] = %+v, want leap day with 2600", stats.Daily[2])
	}
	if stats.WeekTotal != 7800 {
		t.Errorf("WeekTotal = %d, want 7800", stats.WeekTotal)
	}
}

func TestSipService_GetStats_IgnoresFutureSnapshots(t *testing.T) {
	clock := testutil.ClockOn(t, "2024-03-10")
	svc, db, _ := newTestServiceWithClock(t, clock)

	for _, date := range []string{"2024-03-08", "2024-03-09"} {
		if _, err := svc.LogIntake(sip.LogIntakeRequest{UserID: "alex", AmountMl: 2600, Goal: 2500, Date: date}); err != nil {
			t.Fatalf("LogIntake(%s) error = %v", date, err)
		}
	}

	// More future goal rows than the streak window holds.
	for i := 1; i <= sip.MaxStreakDays+1; i++ {
		date, _ := sip.AddDays(clock.Today(), i)
		if _, err := db.UpsertSnapshot("alex", date, 2500, 0); err != nil {
			t.Fatalf("UpsertSnapshot(%s) error = %v", date, err)
		}
	}

	stats, err := svc.GetStats(sip.StatsRequest{UserID: "alex", Goal: 2500})
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Streak != 2 {
		t.Errorf("Streak = %d, want 2", stats.Streak)
	}
}
