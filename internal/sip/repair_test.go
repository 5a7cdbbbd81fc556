package sip_test

import (
	"testing"

	"sip-go/internal/sip"
)

func TestRepairedGoal(t *testing.T) {
	tests := []struct {
		goal        int64
		want        int64
		wantCorrupt bool
	}{
		{2000, 2000, false},
		{500, 500, false},
		{10000, 10000, false},
		{15001500, 1500, true},
		{20002000, 2000, true},
		{250025001, 2500, true},
		{12345678, sip.DefaultGoal, true},
		{99999, sip.DefaultGoal, true},
		{499, sip.DefaultGoal, true},
		{0, sip.DefaultGoal, true},
	}

	for _, tt := range tests {
		got, corrupt := sip.RepairedGoal(tt.goal)
		if got != tt.want || corrupt != tt.wantCorrupt {
			t.Errorf("RepairedGoal(%d) = (%d, %v), want (%d, %v)", tt.goal, got, corrupt, tt.want, tt.wantCorrupt)
		}
	}
}

func TestSipService_RepairGoals(t *testing.T) {
	seed := func(t *testing.T, db sip.Database) {
		t.Helper()
		rows := []struct {
			user  string
			date  string
			goal  int64
			total int64
		}{
			{"alex", "2024-01-10", 15001500, 1600},
			{"alex", "2024-01-11", 2000, 2100},
			{"sam", "2024-01-10", 100, 300},
		}
		for _, r := range rows {
			if _, err := db.UpsertSnapshot(r.user, r.date, r.goal, r.total); err != nil {
				t.Fatalf("UpsertSnapshot() error = %v", err)
			}
		}
	}

	t.Run("dry run only reports", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		seed(t, db)

		report, err := svc.RepairGoals(true)
		if err != nil {
			t.Fatalf("RepairGoals() error = %v", err)
		}
		if report.Checked != 3 || len(report.Repairs) != 2 || report.Applied != 0 || !report.DryRun {
			t.Errorf("RepairGoals(dry) = %+v", report)
		}
		snap, _ := db.FindSnapshot("alex", "2024-01-10")
		if snap.GoalForDay != 15001500 {
			t.Errorf("goal changed during dry run: %d", snap.GoalForDay)
		}
	})

	t.Run("live run rewrites goals and goal_met", func(t *testing.T) {
		svc, db, _ := newTestService(t)
		seed(t, db)

		report, err := svc.RepairGoals(false)
		if err != nil {
			t.Fatalf("RepairGoals() error = %v", err)
		}
		if report.Applied != 2 {
			t.Errorf("Applied = %d, want 2", report.Applied)
		}

		alex, _ := db.FindSnapshot("alex", "2024-01-10")
		if alex.GoalForDay != 1500 || !alex.GoalMet || alex.TotalIntake != 1600 {
			t.Errorf("alex 2024-01-10 = %+v, want goal 1500 met total 1600", alex)
		}
		sam, _ := db.FindSnapshot("sam", "2024-01-10")
		if sam.GoalForDay != sip.DefaultGoal || sam.GoalMet {
			t.Errorf("sam 2024-01-10 = %+v, want default goal unmet", sam)
		}

		again, err := svc.RepairGoals(false)
		if err != nil {
			t.Fatalf("second RepairGoals() error = %v", err)
		}
		if len(again.Repairs) != 0 {
			t.Errorf("second RepairGoals() found %d repairs, want 0", len(again.Repairs))
		}
	})
}
