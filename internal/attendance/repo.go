package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classtrack/internal/apperr"
	"classtrack/internal/store"
)

// Repository persists sessions and records in Postgres. It is the arbiter
// for token uniqueness and the one-record-per-(session, student) invariant
// through unique indexes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertSession writes a new session.
func (r *Repository) InsertSession(ctx context.Context, s Session) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions (id, course_id, timetable_id, date, start_time, end_time, qr_token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, s.ID, s.CourseID, s.TimetableID, s.Date, s.StartTime, s.EndTime, s.QRToken, s.ExpiresAt)
	if err := row.Scan(&s.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Session{}, fmt.Errorf("QR token already in use: %w", apperr.ErrConflict)
		}
		return Session{}, err
	}
	return s, nil
}

const sessionColumns = `id, course_id, timetable_id, date, start_time, end_time, qr_token, expires_at, created_at`

// SessionByID returns a single session.
func (r *Repository) SessionByID(ctx context.Context, id string) (Session, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions WHERE id = $1
	`, id))
}

// SessionByToken returns the session owning a QR token.
func (r *Repository) SessionByToken(ctx context.Context, token string) (Session, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions WHERE qr_token = $1
	`, token))
}

// SessionsByCourse returns a course's sessions sorted by (date, start time).
func (r *Repository) SessionsByCourse(ctx context.Context, courseID string) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions
		WHERE course_id = $1
		ORDER BY date, start_time
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.CourseID, &s.TimetableID, &s.Date, &s.StartTime, &s.EndTime, &s.QRToken, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// InsertRecord appends a record unless one already exists for the
// (session, student) pair. ON CONFLICT DO NOTHING makes the unique index
// decide races between concurrent duplicate scans.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, status, marked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, student_id) DO NOTHING
		RETURNING marked_at
	`, rec.ID, rec.SessionID, rec.StudentID, rec.Status, rec.MarkedAt)
	if err := row.Scan(&rec.MarkedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return rec, true, nil
}

// RecordsBySession returns a session's records joined with student identity.
func (r *Repository) RecordsBySession(ctx context.Context, sessionID string) ([]SessionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.session_id, r.student_id, r.status, r.marked_at, u.id, u.name, u.email
		FROM attendance_records r
		JOIN users u ON u.id = r.student_id
		WHERE r.session_id = $1
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SessionRecord
	for rows.Next() {
		var sr SessionRecord
		if err := rows.Scan(&sr.ID, &sr.SessionID, &sr.StudentID, &sr.Status, &sr.MarkedAt,
			&sr.Student.ID, &sr.Student.Name, &sr.Student.Email); err != nil {
			return nil, err
		}
		res = append(res, sr)
	}
	return res, rows.Err()
}

// RecordsByCourseStudent returns one student's records across a course's
// sessions.
func (r *Repository) RecordsByCourseStudent(ctx context.Context, courseID, studentID string) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT r.id, r.session_id, r.student_id, r.status, r.marked_at
		FROM attendance_records r
		JOIN attendance_sessions s ON s.id = r.session_id
		WHERE s.course_id = $1 AND r.student_id = $2
	`, courseID, studentID)
}

// RecordsByCourse returns every record across a course's sessions.
func (r *Repository) RecordsByCourse(ctx context.Context, courseID string) ([]Record, error) {
	return r.queryRecords(ctx, `
		SELECT r.id, r.session_id, r.student_id, r.status, r.marked_at
		FROM attendance_records r
		JOIN attendance_sessions s ON s.id = r.session_id
		WHERE s.course_id = $1
	`, courseID)
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status, &rec.MarkedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func scanSession(row *sql.Row) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.CourseID, &s.TimetableID, &s.Date, &s.StartTime, &s.EndTime, &s.QRToken, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session not found: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}
