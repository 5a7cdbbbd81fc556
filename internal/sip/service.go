package sip

import (
	"fmt"

	"sip-go/internal/database/sqlc"
)

// SipService is the orchestration layer over the intake ledger and the snapshot
// store. It is the only entry point used by the CLI and the HTTP API.
type SipService struct {
	database Database
	feedback FeedbackGenerator
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewSipService creates a new SipService with the provided dependencies.
// feedback may be nil, in which case Feedback reports the coach as unavailable.
func NewSipService(database Database, feedback FeedbackGenerator, logger Logger, clock Clock, idgen IDGenerator) *SipService {
	return &SipService{
		database: database,
		feedback: feedback,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// Today returns the server's logical date.
func (s *SipService) Today() string {
	return FormatDate(s.clock.Now())
}

// resolveToday returns the caller-supplied logical today when given, else the
// server's. A caller value wins so client and server timezones may differ.
func (s *SipService) resolveToday(today string) (string, error) {
	if today == "" {
		return s.Today(), nil
	}
	if _, err := ParseDate(today); err != nil {
		return "", err
	}
	return today, nil
}

// NewGuest mints a guest user and returns its ID.
func (s *SipService) NewGuest() (string, error) {
	id := "guest_" + s.idgen.New()
	if _, err := s.database.EnsureUser(id); err != nil {
		return "", fmt.Errorf("creating guest: %w", err)
	}
	s.logger.Info("guest created", "user", id)
	return id, nil
}

// Operations returns the most recent mutating operations, newest first.
func (s *SipService) Operations(limit int) ([]*sqlc.Operation, error) {
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
