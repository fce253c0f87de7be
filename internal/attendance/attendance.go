// Package attendance implements the QR attendance core: time-boxed sessions
// identified by a single-use-per-student token, the append-only record
// ledger, and the derived reporting views.
package attendance

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"classtrack/internal/catalog"
)

// Record statuses. A stored record is present or absent; not_marked and
// upcoming only ever appear in derived views.
const (
	StatusPresent   = "present"
	StatusAbsent    = "absent"
	StatusNotMarked = "not_marked"
	StatusUpcoming  = "upcoming"
)

// Session is one class meeting's attendance window. Immutable after
// creation; it expires naturally when the wall clock passes ExpiresAt.
type Session struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course"`
	TimetableID string    `json:"timetable"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	QRToken     string    `json:"qrCode"`
	ExpiresAt   time.Time `json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SessionDetail is a session with its course and timetable resolved.
type SessionDetail struct {
	Session
	Course    catalog.Course    `json:"courseDetail"`
	Timetable catalog.Timetable `json:"timetableDetail"`
}

// Record is the fact that a student was marked for a session. At most one
// record exists per (session, student), enforced by the store.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session"`
	StudentID string    `json:"student"`
	Status    string    `json:"status"`
	MarkedAt  time.Time `json:"timestamp"`
}

// SessionRecord is a record joined with the student's identity for teacher
// views.
type SessionRecord struct {
	Record
	Student catalog.Student `json:"studentDetail"`
}

// NewQRToken returns a cryptographically random token. 16 bytes of entropy,
// hex encoded; the token is the sole capability needed to mark attendance.
func NewQRToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// End returns the session's end instant: its date combined with the HH:MM
// end time. Malformed times yield the bare date, which classifies the
// session as past.
func (s Session) End() time.Time {
	hour, minute, err := catalog.ParseClock(s.EndTime)
	if err != nil {
		return s.Date
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), hour, minute, 0, 0, s.Date.Location())
}
