package attendance

import (
	"context"
	"time"

	"classtrack/internal/catalog"
)

// Store is the persistence surface the service needs. The Postgres
// Repository implements it; tests substitute an in-memory fake.
type Store interface {
	// InsertSession persists a new session. A duplicate token surfaces as
	// apperr.ErrConflict.
	InsertSession(ctx context.Context, s Session) (Session, error)
	// SessionByID returns a session or apperr.ErrNotFound.
	SessionByID(ctx context.Context, id string) (Session, error)
	// SessionByToken returns the session matching a QR token or
	// apperr.ErrNotFound.
	SessionByToken(ctx context.Context, token string) (Session, error)
	// SessionsByCourse returns a course's sessions sorted by (date,
	// start time).
	SessionsByCourse(ctx context.Context, courseID string) ([]Session, error)
	// InsertRecord atomically inserts a record unless one already exists
	// for the (session, student) pair. inserted is false on a duplicate;
	// the unique constraint is the arbiter, not a pre-check.
	InsertRecord(ctx context.Context, rec Record) (out Record, inserted bool, err error)
	// RecordsBySession returns a session's records joined with student
	// identity. Order is not meaningful.
	RecordsBySession(ctx context.Context, sessionID string) ([]SessionRecord, error)
	// RecordsByCourseStudent returns one student's records across a
	// course's sessions.
	RecordsByCourseStudent(ctx context.Context, courseID, studentID string) ([]Record, error)
	// RecordsByCourse returns every record across a course's sessions.
	RecordsByCourse(ctx context.Context, courseID string) ([]Record, error)
}

// Catalog is the slice of the course catalog the attendance core consults
// for reference validity and enrollment authorization.
type Catalog interface {
	GetCourse(ctx context.Context, id string) (catalog.Course, error)
	GetTimetable(ctx context.Context, id string) (catalog.Timetable, error)
	ListTimetables(ctx context.Context, courseID string) ([]catalog.Timetable, error)
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	EnrolledStudents(ctx context.Context, courseID string) ([]catalog.Student, error)
}

// TokenCache is an optional read-through cache for token resolution. Misses
// and errors fall back to the store.
type TokenCache interface {
	GetSessionID(ctx context.Context, token string) string
	SetSessionID(ctx context.Context, token, sessionID string, expiresAt time.Time)
}
