package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"sip-go/internal/sip"
)

// Sweeper runs SweepAll on a cron schedule so every user's previous day gets
// locked even when they log nothing.
type Sweeper struct {
	cron   *cron.Cron
	svc    *sip.SipService
	logger sip.Logger
}

// NewSweeper schedules the sweep with a standard five-field cron spec in UTC.
func NewSweeper(svc *sip.SipService, schedule string, logger sip.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		svc:    svc,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run performs one sweep. SweepAll logs the summary; Run adds the counts to the
// error when some users failed.
func (s *Sweeper) Run() {
	report, err := s.svc.SweepAll("")
	switch {
	case err == nil:
	case report == nil:
		s.logger.Error("sweep failed", "error", err)
	default:
		s.logger.Error("sweep finished with failures", "users", report.Users, "locked", report.Locked,
			"backfilled", report.Backfilled, "failed", report.Failed, "error", err)
	}
}

// Start begins running the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
