package testutil

import (
	"context"
	"sync"
)

// StubFeedback returns a canned reply or error and records what it was asked.
type StubFeedback struct {
	mu     sync.Mutex
	Reply  string
	Err    error
	Calls  int
	Intake int64
	Goal   int64
}

func (s *StubFeedback) GenerateFeedback(ctx context.Context, intakeMl, goalMl int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.Intake = intakeMl
	s.Goal = goalMl
	if s.Err != nil {
		return "", s.Err
	}
	return s.Reply, nil
}
