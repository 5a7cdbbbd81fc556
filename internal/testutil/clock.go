package testutil

import (
	"sync"
	"testing"
	"time"

	"sip-go/internal/sip"
)

// Today is the logical date FixedClock reads.
const Today = "2024-01-15"

// StubClock is a sip.Clock that only moves when a test moves it. Safe for
// concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to t.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// ClockAt returns a clock reading hour:minute UTC on the logical date.
// It fails the test when date is not YYYY-MM-DD.
func ClockAt(t testing.TB, date string, hour, minute int) *StubClock {
	t.Helper()
	day, err := sip.ParseDate(date)
	if err != nil {
		t.Fatalf("ClockAt(%q): %v", date, err)
	}
	return NewStubClock(day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute))
}

// ClockOn returns a clock reading noon UTC on date, well away from either midnight.
func ClockOn(t testing.TB, date string) *StubClock {
	t.Helper()
	return ClockAt(t, date, 12, 0)
}

// FixedClock returns a clock at 10:30 UTC on Today.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today returns the logical date the clock reads.
func (c *StubClock) Today() string {
	return sip.FormatDate(c.Now())
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceDays moves the clock n logical days, keeping the time of day.
func (c *StubClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

var _ sip.Clock = (*StubClock)(nil)
