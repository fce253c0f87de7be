// Package catalog implements the course catalog: courses, weekly timetable
// slots and student enrollments. Attendance sessions reference it for
// validity and authorization checks.
package catalog

import (
	"fmt"
	"strconv"
	"time"

	"classtrack/internal/apperr"
)

// Course is owned by a teacher and referenced by timetables, enrollments and
// attendance sessions.
type Course struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	CreditHours int       `json:"creditHours"`
	Description string    `json:"description"`
	TeacherID   string    `json:"teacher"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Timetable is one recurring weekly slot of a course.
type Timetable struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course"`
	DayOfWeek string    `json:"dayOfWeek"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Classroom string    `json:"classroom"`
	CreatedAt time.Time `json:"createdAt"`
}

// Enrollment links a student to a course; unique per (course, student).
type Enrollment struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course"`
	StudentID string    `json:"student"`
	CreatedAt time.Time `json:"createdAt"`
}

// Student is the slice of a user exposed in rosters.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

var weekdays = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// ParseDayOfWeek maps a full English day name to a time.Weekday.
func ParseDayOfWeek(day string) (time.Weekday, error) {
	wd, ok := weekdays[day]
	if !ok {
		return 0, fmt.Errorf("invalid day of week %q: %w", day, apperr.ErrValidation)
	}
	return wd, nil
}

// ParseClock validates an HH:MM string and returns hour and minute.
func ParseClock(value string) (hour, minute int, err error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", value, apperr.ErrValidation)
	}
	hour, herr := strconv.Atoi(value[:2])
	minute, merr := strconv.Atoi(value[3:])
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range: %w", value, apperr.ErrValidation)
	}
	return hour, minute, nil
}

// Validate checks course fields before insert or update.
func (c Course) Validate() error {
	if c.Code == "" || c.Name == "" {
		return fmt.Errorf("code and name are required: %w", apperr.ErrValidation)
	}
	if c.CreditHours < 1 {
		return fmt.Errorf("creditHours must be at least 1: %w", apperr.ErrValidation)
	}
	return nil
}

// Validate checks timetable fields before insert or update.
func (t Timetable) Validate() error {
	if t.CourseID == "" {
		return fmt.Errorf("course is required: %w", apperr.ErrValidation)
	}
	if _, err := ParseDayOfWeek(t.DayOfWeek); err != nil {
		return err
	}
	if _, _, err := ParseClock(t.StartTime); err != nil {
		return err
	}
	if _, _, err := ParseClock(t.EndTime); err != nil {
		return err
	}
	if t.Classroom == "" {
		return fmt.Errorf("classroom is required: %w", apperr.ErrValidation)
	}
	return nil
}
