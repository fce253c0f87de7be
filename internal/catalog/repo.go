package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
	"classtrack/internal/store"
)

// Repository persists the catalog in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// --- courses ---

// CreateCourse inserts a course. Duplicate course codes surface as
// apperr.ErrConflict.
func (r *Repository) CreateCourse(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (id, code, name, credit_hours, description, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, c.ID, c.Code, c.Name, c.CreditHours, c.Description, c.TeacherID)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Course{}, fmt.Errorf("course code %q already exists: %w", c.Code, apperr.ErrConflict)
		}
		return Course{}, err
	}
	return c, nil
}

// GetCourse returns a course by id.
func (r *Repository) GetCourse(ctx context.Context, id string) (Course, error) {
	if !validUUID(id) {
		return Course{}, fmt.Errorf("invalid course id: %w", apperr.ErrValidation)
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, credit_hours, description, teacher_id, created_at, updated_at
		FROM courses WHERE id = $1
	`, id)
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.CreditHours, &c.Description, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, fmt.Errorf("course not found: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

// ListCourses returns every course.
func (r *Repository) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, credit_hours, description, teacher_id, created_at, updated_at
		FROM courses ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.CreditHours, &c.Description, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// UpdateCourse applies the mutable fields of c to an existing course.
func (r *Repository) UpdateCourse(ctx context.Context, c Course) (Course, error) {
	if !validUUID(c.ID) {
		return Course{}, fmt.Errorf("invalid course id: %w", apperr.ErrValidation)
	}
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE courses
		SET code = $2, name = $3, credit_hours = $4, description = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING teacher_id, created_at, updated_at
	`, c.ID, c.Code, c.Name, c.CreditHours, c.Description)
	err := row.Scan(&c.TeacherID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, fmt.Errorf("course not found: %w", apperr.ErrNotFound)
	}
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Course{}, fmt.Errorf("course code %q already exists: %w", c.Code, apperr.ErrConflict)
		}
		return Course{}, err
	}
	return c, nil
}

// DeleteCourse removes a course and, via cascading constraints, its
// timetables and enrollments.
func (r *Repository) DeleteCourse(ctx context.Context, id string) error {
	if !validUUID(id) {
		return fmt.Errorf("invalid course id: %w", apperr.ErrValidation)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return fmt.Errorf("course has attendance sessions: %w", apperr.ErrConflict)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("course not found: %w", apperr.ErrNotFound)
	}
	return nil
}

// --- timetables ---

// CreateTimetable inserts a weekly slot for a course.
func (r *Repository) CreateTimetable(ctx context.Context, t Timetable) (Timetable, error) {
	if err := t.Validate(); err != nil {
		return Timetable{}, err
	}
	if !validUUID(t.CourseID) {
		return Timetable{}, fmt.Errorf("invalid course reference: %w", apperr.ErrValidation)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO timetables (id, course_id, day_of_week, start_time, end_time, classroom)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, t.ID, t.CourseID, t.DayOfWeek, t.StartTime, t.EndTime, t.Classroom)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Timetable{}, err
	}
	return t, nil
}

// GetTimetable returns a slot by id.
func (r *Repository) GetTimetable(ctx context.Context, id string) (Timetable, error) {
	if !validUUID(id) {
		return Timetable{}, fmt.Errorf("invalid timetable id: %w", apperr.ErrValidation)
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, day_of_week, start_time, end_time, classroom, created_at
		FROM timetables WHERE id = $1
	`, id)
	var t Timetable
	err := row.Scan(&t.ID, &t.CourseID, &t.DayOfWeek, &t.StartTime, &t.EndTime, &t.Classroom, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Timetable{}, fmt.Errorf("timetable not found: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return Timetable{}, err
	}
	return t, nil
}

// ListTimetables returns all slots, optionally filtered by course.
func (r *Repository) ListTimetables(ctx context.Context, courseID string) ([]Timetable, error) {
	query := `
		SELECT id, course_id, day_of_week, start_time, end_time, classroom, created_at
		FROM timetables`
	args := []any{}
	if courseID != "" {
		if !validUUID(courseID) {
			return nil, fmt.Errorf("invalid course id: %w", apperr.ErrValidation)
		}
		query += ` WHERE course_id = $1`
		args = append(args, courseID)
	}
	// Day names sort Monday-first, not alphabetically.
	query += `
		ORDER BY CASE day_of_week
			WHEN 'Monday' THEN 1
			WHEN 'Tuesday' THEN 2
			WHEN 'Wednesday' THEN 3
			WHEN 'Thursday' THEN 4
			WHEN 'Friday' THEN 5
			WHEN 'Saturday' THEN 6
			WHEN 'Sunday' THEN 7
		END, start_time`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Timetable
	for rows.Next() {
		var t Timetable
		if err := rows.Scan(&t.ID, &t.CourseID, &t.DayOfWeek, &t.StartTime, &t.EndTime, &t.Classroom, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// UpdateTimetable applies the mutable fields of t to an existing slot.
func (r *Repository) UpdateTimetable(ctx context.Context, t Timetable) (Timetable, error) {
	if !validUUID(t.ID) {
		return Timetable{}, fmt.Errorf("invalid timetable id: %w", apperr.ErrValidation)
	}
	existing, err := r.GetTimetable(ctx, t.ID)
	if err != nil {
		return Timetable{}, err
	}
	t.CourseID = existing.CourseID
	if err := t.Validate(); err != nil {
		return Timetable{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE timetables
		SET day_of_week = $2, start_time = $3, end_time = $4, classroom = $5
		WHERE id = $1
		RETURNING created_at
	`, t.ID, t.DayOfWeek, t.StartTime, t.EndTime, t.Classroom)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Timetable{}, err
	}
	return t, nil
}

// DeleteTimetable removes a slot.
func (r *Repository) DeleteTimetable(ctx context.Context, id string) error {
	if !validUUID(id) {
		return fmt.Errorf("invalid timetable id: %w", apperr.ErrValidation)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return fmt.Errorf("timetable has attendance sessions: %w", apperr.ErrConflict)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("timetable not found: %w", apperr.ErrNotFound)
	}
	return nil
}

// --- enrollments ---

// Enroll links a student to a course. A second enrollment for the same pair
// surfaces as apperr.ErrConflict via the unique constraint.
func (r *Repository) Enroll(ctx context.Context, courseID, studentID string) (Enrollment, error) {
	if !validUUID(courseID) || !validUUID(studentID) {
		return Enrollment{}, fmt.Errorf("invalid course or student id: %w", apperr.ErrValidation)
	}
	e := Enrollment{ID: uuid.NewString(), CourseID: courseID, StudentID: studentID}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO enrollments (id, course_id, student_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, e.ID, e.CourseID, e.StudentID)
	if err := row.Scan(&e.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Enrollment{}, fmt.Errorf("student already enrolled: %w", apperr.ErrConflict)
		}
		return Enrollment{}, err
	}
	return e, nil
}

// Unenroll removes a student from a course.
func (r *Repository) Unenroll(ctx context.Context, courseID, studentID string) error {
	if !validUUID(courseID) || !validUUID(studentID) {
		return fmt.Errorf("invalid course or student id: %w", apperr.ErrValidation)
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM enrollments WHERE course_id = $1 AND student_id = $2
	`, courseID, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("enrollment not found: %w", apperr.ErrNotFound)
	}
	return nil
}

// IsEnrolled reports whether the student is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)
	`, courseID, studentID).Scan(&exists)
	return exists, err
}

// EnrolledStudents returns the course roster joined with user identity,
// ordered by name.
func (r *Repository) EnrolledStudents(ctx context.Context, courseID string) ([]Student, error) {
	if !validUUID(courseID) {
		return nil, fmt.Errorf("invalid course id: %w", apperr.ErrValidation)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email
		FROM enrollments e
		JOIN users u ON u.id = e.student_id
		WHERE e.course_id = $1
		ORDER BY u.name
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
