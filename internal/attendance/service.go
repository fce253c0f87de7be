package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/catalog"
)

// Service coordinates session creation, scan validation and record
// insertion.
type Service struct {
	store    Store
	catalog  Catalog
	cache    TokenCache
	duration time.Duration
	now      func() time.Time
}

// NewService creates a service. sessionDuration is the default validity
// window when a create request does not specify one; cache may be nil.
func NewService(store Store, cat Catalog, cache TokenCache, sessionDuration time.Duration) *Service {
	if sessionDuration <= 0 {
		sessionDuration = 10 * time.Minute
	}
	return &Service{
		store:    store,
		catalog:  cat,
		cache:    cache,
		duration: sessionDuration,
		now:      time.Now,
	}
}

// CreateSessionInput carries the teacher's create request.
type CreateSessionInput struct {
	CourseID        string `json:"course"`
	TimetableID     string `json:"timetable"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
}

// CreateSession validates the course/timetable references, generates a
// random QR token and persists a session expiring after the requested
// duration.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	if _, err := s.catalog.GetCourse(ctx, in.CourseID); err != nil {
		return Session{}, badReference("course", err)
	}
	tt, err := s.catalog.GetTimetable(ctx, in.TimetableID)
	if err != nil {
		return Session{}, badReference("timetable", err)
	}
	if tt.CourseID != in.CourseID {
		return Session{}, fmt.Errorf("timetable does not belong to course: %w", apperr.ErrValidation)
	}
	date, err := time.ParseInLocation("2006-01-02", in.Date, time.UTC)
	if err != nil {
		return Session{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", in.Date, apperr.ErrValidation)
	}
	for _, clock := range []string{in.StartTime, in.EndTime} {
		if err := validClock(clock); err != nil {
			return Session{}, err
		}
	}

	duration := s.duration
	if in.DurationMinutes > 0 {
		duration = time.Duration(in.DurationMinutes) * time.Minute
	}
	token, err := NewQRToken()
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	sess, err := s.store.InsertSession(ctx, Session{
		ID:          uuid.NewString(),
		CourseID:    in.CourseID,
		TimetableID: in.TimetableID,
		Date:        date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		QRToken:     token,
		ExpiresAt:   now.Add(duration),
	})
	if err != nil {
		return Session{}, err
	}
	if s.cache != nil {
		s.cache.SetSessionID(ctx, sess.QRToken, sess.ID, sess.ExpiresAt)
	}
	return sess, nil
}

// GetSession returns a session with its course and timetable resolved.
func (s *Service) GetSession(ctx context.Context, id string) (SessionDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SessionDetail{}, fmt.Errorf("invalid session id: %w", apperr.ErrValidation)
	}
	sess, err := s.store.SessionByID(ctx, id)
	if err != nil {
		return SessionDetail{}, err
	}
	course, err := s.catalog.GetCourse(ctx, sess.CourseID)
	if err != nil {
		return SessionDetail{}, err
	}
	tt, err := s.catalog.GetTimetable(ctx, sess.TimetableID)
	if err != nil {
		return SessionDetail{}, err
	}
	return SessionDetail{Session: sess, Course: course, Timetable: tt}, nil
}

// ResolveByToken returns the session matching a QR token. The cache is
// consulted first; the store remains the source of truth.
func (s *Service) ResolveByToken(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrQRInvalid
	}
	if s.cache != nil {
		if id := s.cache.GetSessionID(ctx, token); id != "" {
			if sess, err := s.store.SessionByID(ctx, id); err == nil && sess.QRToken == token {
				return sess, nil
			}
		}
	}
	sess, err := s.store.SessionByToken(ctx, token)
	if errors.Is(err, apperr.ErrNotFound) {
		return Session{}, ErrQRInvalid
	}
	if err != nil {
		return Session{}, err
	}
	if s.cache != nil {
		s.cache.SetSessionID(ctx, sess.QRToken, sess.ID, sess.ExpiresAt)
	}
	return sess, nil
}

// MarkAttendance resolves a scanned token and appends a presence record.
// Failure order: unknown token, expired session, missing enrollment,
// duplicate record. The store's unique constraint decides duplicates, so
// concurrent scans for the same pair yield exactly one success.
func (s *Service) MarkAttendance(ctx context.Context, token, studentID string) (Record, error) {
	sess, err := s.ResolveByToken(ctx, token)
	if err != nil {
		return Record{}, err
	}
	if s.now().After(sess.ExpiresAt) {
		return Record{}, ErrQRExpired
	}
	enrolled, err := s.catalog.IsEnrolled(ctx, sess.CourseID, studentID)
	if err != nil {
		return Record{}, err
	}
	if !enrolled {
		return Record{}, ErrNotEnrolled
	}

	rec, inserted, err := s.store.InsertRecord(ctx, Record{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		StudentID: studentID,
		Status:    StatusPresent,
		MarkedAt:  s.now(),
	})
	if err != nil {
		return Record{}, err
	}
	if !inserted {
		return Record{}, ErrDuplicateAttendance
	}
	return rec, nil
}

// RecordsForSession returns a session's records with student identity for
// the teacher's live roster view.
func (s *Service) RecordsForSession(ctx context.Context, sessionID string) ([]SessionRecord, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session id: %w", apperr.ErrValidation)
	}
	if _, err := s.store.SessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.RecordsBySession(ctx, sessionID)
}

// badReference folds a failed catalog lookup into a validation error so a
// missing or malformed reference rejects session creation uniformly.
func badReference(field string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrValidation) {
		return fmt.Errorf("%s reference invalid: %w", field, apperr.ErrValidation)
	}
	return err
}

func validClock(value string) error {
	if value == "" {
		return fmt.Errorf("startTime and endTime are required: %w", apperr.ErrValidation)
	}
	_, _, err := catalog.ParseClock(value)
	return err
}
