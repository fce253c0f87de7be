package attendance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"classtrack/internal/catalog"
)

// TermWeeks is the fixed term window covered by the timetable-aligned
// matrix.
const TermWeeks = 14

// HistoryEntry is one attended session in a student's history.
type HistoryEntry struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Status    string    `json:"status"`
	SessionID string    `json:"sessionId"`
}

// CalendarEntry classifies one of a course's sessions for a student:
// upcoming, present, absent or not_marked.
type CalendarEntry struct {
	SessionID string    `json:"sessionId"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Status    string    `json:"status"`
}

// RosterEntry is one enrolled student with their attendance percentage.
// Percentage is "N/A" when the course has no sessions, otherwise a number
// rounded to one decimal, e.g. "75.0".
type RosterEntry struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	AttendancePercentage string `json:"attendancePercentage"`
}

// MatrixColumn is one column of an attendance matrix. SessionID is empty in
// the timetable-aligned matrix when no session was held that week.
type MatrixColumn struct {
	Label       string    `json:"label"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"startTime"`
	TimetableID string    `json:"timetable,omitempty"`
	Week        int       `json:"week,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
}

// Matrix maps each enrolled student to their status across a sequence of
// columns. Cells[studentID][i] corresponds to Columns[i].
type Matrix struct {
	Students []catalog.Student   `json:"students"`
	Columns  []MatrixColumn      `json:"columns"`
	Cells    map[string][]string `json:"matrix"`
}

// classify derives a student's status for a session: still-running or
// future sessions are upcoming; past sessions take the stored status or
// not_marked.
func classify(s Session, status string, now time.Time) string {
	if s.End().After(now) {
		return StatusUpcoming
	}
	if status == StatusPresent || status == StatusAbsent {
		return status
	}
	return StatusNotMarked
}

// History lists the sessions a student has a record for in a course.
func (s *Service) History(ctx context.Context, courseID, studentID string) ([]HistoryEntry, error) {
	if err := s.requireEnrollment(ctx, courseID, studentID); err != nil {
		return nil, err
	}
	sessions, err := s.store.SessionsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Session, len(sessions))
	for _, sess := range sessions {
		byID[sess.ID] = sess
	}
	records, err := s.store.RecordsByCourseStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	history := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		sess, ok := byID[rec.SessionID]
		if !ok {
			continue
		}
		history = append(history, HistoryEntry{
			Date:      sess.Date,
			StartTime: sess.StartTime,
			EndTime:   sess.EndTime,
			Status:    rec.Status,
			SessionID: sess.ID,
		})
	}
	return history, nil
}

// Calendar classifies every session of a course for a student, sorted by
// (date, start time).
func (s *Service) Calendar(ctx context.Context, courseID, studentID string) ([]CalendarEntry, error) {
	if err := s.requireEnrollment(ctx, courseID, studentID); err != nil {
		return nil, err
	}
	sessions, err := s.store.SessionsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.RecordsByCourseStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	statusBySession := make(map[string]string, len(records))
	for _, rec := range records {
		statusBySession[rec.SessionID] = rec.Status
	}
	now := s.now()
	entries := make([]CalendarEntry, 0, len(sessions))
	for _, sess := range sessions {
		entries = append(entries, CalendarEntry{
			SessionID: sess.ID,
			Date:      sess.Date,
			StartTime: sess.StartTime,
			EndTime:   sess.EndTime,
			Status:    classify(sess, statusBySession[sess.ID], now),
		})
	}
	return entries, nil
}

// Roster returns a course's enrolled students with their attendance
// percentage across all sessions held so far.
func (s *Service) Roster(ctx context.Context, courseID string) ([]RosterEntry, error) {
	if _, err := s.catalog.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	students, err := s.catalog.EnrolledStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.SessionsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.RecordsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	presentByStudent := make(map[string]int)
	for _, rec := range records {
		if rec.Status == StatusPresent {
			presentByStudent[rec.StudentID]++
		}
	}
	roster := make([]RosterEntry, 0, len(students))
	for _, st := range students {
		roster = append(roster, RosterEntry{
			ID:                   st.ID,
			Name:                 st.Name,
			Email:                st.Email,
			AttendancePercentage: Percentage(presentByStudent[st.ID], len(sessions)),
		})
	}
	return roster, nil
}

// Percentage formats present/total as a percentage rounded to one decimal,
// or "N/A" when no sessions exist.
func Percentage(present, total int) string {
	if total == 0 {
		return "N/A"
	}
	pct := math.Round(float64(present)/float64(total)*1000) / 10
	return fmt.Sprintf("%.1f", pct)
}

// SessionMatrix builds the student × session matrix over sessions actually
// held, columns sorted by (date, start time).
func (s *Service) SessionMatrix(ctx context.Context, courseID string) (Matrix, error) {
	if _, err := s.catalog.GetCourse(ctx, courseID); err != nil {
		return Matrix{}, err
	}
	students, err := s.catalog.EnrolledStudents(ctx, courseID)
	if err != nil {
		return Matrix{}, err
	}
	sessions, err := s.store.SessionsByCourse(ctx, courseID)
	if err != nil {
		return Matrix{}, err
	}
	records, err := s.store.RecordsByCourse(ctx, courseID)
	if err != nil {
		return Matrix{}, err
	}
	status := recordIndex(records)

	columns := make([]MatrixColumn, 0, len(sessions))
	for _, sess := range sessions {
		columns = append(columns, MatrixColumn{
			Label:     fmt.Sprintf("%s %s", sess.Date.Format("2006-01-02"), sess.StartTime),
			Date:      sess.Date,
			StartTime: sess.StartTime,
			SessionID: sess.ID,
		})
	}
	cells := make(map[string][]string, len(students))
	for _, st := range students {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellStatus(status, col.SessionID, st.ID)
		}
		cells[st.ID] = row
	}
	return Matrix{Students: students, Columns: columns, Cells: cells}, nil
}

// TimetableMatrix builds the 14-week matrix aligned to the course's weekly
// timetable slots. For each slot, the date of its earliest session anchors
// week 1; later weeks advance by 7 days, snapped forward to the slot's
// weekday. Weeks the teacher skipped have no session and read not_marked
// for every student.
func (s *Service) TimetableMatrix(ctx context.Context, courseID string) (Matrix, error) {
	if _, err := s.catalog.GetCourse(ctx, courseID); err != nil {
		return Matrix{}, err
	}
	students, err := s.catalog.EnrolledStudents(ctx, courseID)
	if err != nil {
		return Matrix{}, err
	}
	slots, err := s.catalog.ListTimetables(ctx, courseID)
	if err != nil {
		return Matrix{}, err
	}
	sessions, err := s.store.SessionsByCourse(ctx, courseID)
	if err != nil {
		return Matrix{}, err
	}
	records, err := s.store.RecordsByCourse(ctx, courseID)
	if err != nil {
		return Matrix{}, err
	}
	status := recordIndex(records)

	// Anchor and composite (timetable, date) lookup per slot.
	anchors := make(map[string]time.Time)
	sessionAt := make(map[string]Session)
	for _, sess := range sessions {
		if first, ok := anchors[sess.TimetableID]; !ok || sess.Date.Before(first) {
			anchors[sess.TimetableID] = sess.Date
		}
		sessionAt[sess.TimetableID+"|"+sess.Date.Format("2006-01-02")] = sess
	}

	ordered := make([]catalog.Timetable, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, _ := catalog.ParseDayOfWeek(ordered[i].DayOfWeek)
		dj, _ := catalog.ParseDayOfWeek(ordered[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return ordered[i].StartTime < ordered[j].StartTime
	})

	var columns []MatrixColumn
	for _, slot := range ordered {
		anchor, ok := anchors[slot.ID]
		if !ok {
			// No session was ever created for this slot; there is no
			// week-1 anchor to synthesize columns from.
			continue
		}
		wd, err := catalog.ParseDayOfWeek(slot.DayOfWeek)
		if err != nil {
			continue
		}
		for week := 1; week <= TermWeeks; week++ {
			date := snapToWeekday(anchor.AddDate(0, 0, 7*(week-1)), wd)
			col := MatrixColumn{
				Label:       fmt.Sprintf("%s %s W%d (%s)", slot.DayOfWeek[:3], slot.StartTime, week, date.Format("2006-01-02")),
				Date:        date,
				StartTime:   slot.StartTime,
				TimetableID: slot.ID,
				Week:        week,
			}
			if sess, ok := sessionAt[slot.ID+"|"+date.Format("2006-01-02")]; ok {
				col.SessionID = sess.ID
			}
			columns = append(columns, col)
		}
	}

	cells := make(map[string][]string, len(students))
	for _, st := range students {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellStatus(status, col.SessionID, st.ID)
		}
		cells[st.ID] = row
	}
	return Matrix{Students: students, Columns: columns, Cells: cells}, nil
}

// snapToWeekday moves t forward to the next occurrence of wd, leaving it
// unchanged when already on wd.
func snapToWeekday(t time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, diff)
}

func recordIndex(records []Record) map[string]string {
	idx := make(map[string]string, len(records))
	for _, rec := range records {
		idx[rec.SessionID+"|"+rec.StudentID] = rec.Status
	}
	return idx
}

// cellStatus resolves one matrix cell; sessions that never happened and
// unmarked students both read not_marked.
func cellStatus(idx map[string]string, sessionID, studentID string) string {
	if sessionID == "" {
		return StatusNotMarked
	}
	if st, ok := idx[sessionID+"|"+studentID]; ok {
		return st
	}
	return StatusNotMarked
}

func (s *Service) requireEnrollment(ctx context.Context, courseID, studentID string) error {
	if _, err := s.catalog.GetCourse(ctx, courseID); err != nil {
		return err
	}
	enrolled, err := s.catalog.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}
