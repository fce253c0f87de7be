package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	past := Session{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), EndTime: "10:30"}
	future := Session{Date: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), EndTime: "10:30"}

	cases := []struct {
		name    string
		session Session
		stored  string
		want    string
	}{
		{"past with present record", past, StatusPresent, StatusPresent},
		{"past with absent record", past, StatusAbsent, StatusAbsent},
		{"past without record", past, "", StatusNotMarked},
		{"future without record", future, "", StatusUpcoming},
		{"future with record is still upcoming", future, StatusPresent, StatusUpcoming},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.session, tc.stored, now); got != tc.want {
				t.Errorf("classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSessionEnd(t *testing.T) {
	s := Session{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), EndTime: "10:30"}
	want := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	if got := s.End(); !got.Equal(want) {
		t.Errorf("End = %v, want %v", got, want)
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		present, total int
		want           string
	}{
		{3, 4, "75.0"},
		{0, 0, "N/A"},
		{0, 4, "0.0"},
		{4, 4, "100.0"},
		{1, 3, "33.3"},
		{2, 3, "66.7"},
	}
	for _, tc := range cases {
		if got := Percentage(tc.present, tc.total); got != tc.want {
			t.Errorf("Percentage(%d, %d) = %q, want %q", tc.present, tc.total, got, tc.want)
		}
	}
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)
	past := f.createSession(t, CreateSessionInput{Date: "2026-03-02"})
	future := f.createSession(t, CreateSessionInput{Date: "2026-03-09"})

	if _, err := f.svc.MarkAttendance(context.Background(), past.QRToken, f.student.ID); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	// Midweek: the first session has ended, the second has not.
	f.now = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	entries, err := f.svc.Calendar(context.Background(), f.courseID, f.student.ID)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].SessionID != past.ID || entries[0].Status != StatusPresent {
		t.Errorf("entry 0 = %+v, want present %s", entries[0], past.ID)
	}
	if entries[1].SessionID != future.ID || entries[1].Status != StatusUpcoming {
		t.Errorf("entry 1 = %+v, want upcoming %s", entries[1], future.ID)
	}
}

func TestCalendarNotMarked(t *testing.T) {
	f := newFixture(t)
	f.createSession(t, CreateSessionInput{Date: "2026-03-02"})

	f.now = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	entries, err := f.svc.Calendar(context.Background(), f.courseID, f.student.ID)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if entries[0].Status != StatusNotMarked {
		t.Errorf("status = %q, want not_marked", entries[0].Status)
	}
}

func TestCalendarRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Calendar(context.Background(), f.courseID, uuid.NewString()); !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("err = %v, want ErrNotEnrolled", err)
	}
	if _, err := f.svc.History(context.Background(), f.courseID, uuid.NewString()); !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("history err = %v, want ErrNotEnrolled", err)
	}
}

func TestHistoryListsOnlyAttendedSessions(t *testing.T) {
	f := newFixture(t)
	attended := f.createSession(t, CreateSessionInput{Date: "2026-03-02"})
	f.createSession(t, CreateSessionInput{Date: "2026-03-09"})

	if _, err := f.svc.MarkAttendance(context.Background(), attended.QRToken, f.student.ID); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	history, err := f.svc.History(context.Background(), f.courseID, f.student.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d entries, want 1", len(history))
	}
	if history[0].SessionID != attended.ID || history[0].Status != StatusPresent {
		t.Errorf("entry = %+v", history[0])
	}
}

func TestRoster(t *testing.T) {
	f := newFixture(t)

	// Four sessions on consecutive Mondays; the student attends three.
	dates := []string{"2026-03-02", "2026-03-09", "2026-03-16", "2026-03-23"}
	for i, date := range dates {
		sess := f.createSession(t, CreateSessionInput{Date: date})
		if i < 3 {
			if _, err := f.svc.MarkAttendance(context.Background(), sess.QRToken, f.student.ID); err != nil {
				t.Fatalf("MarkAttendance %s: %v", date, err)
			}
		}
	}

	roster, err := f.svc.Roster(context.Background(), f.courseID)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("got %d entries, want 1", len(roster))
	}
	if roster[0].AttendancePercentage != "75.0" {
		t.Errorf("percentage = %q, want 75.0", roster[0].AttendancePercentage)
	}
}

func TestRosterNoSessions(t *testing.T) {
	f := newFixture(t)
	roster, err := f.svc.Roster(context.Background(), f.courseID)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if roster[0].AttendancePercentage != "N/A" {
		t.Errorf("percentage = %q, want N/A", roster[0].AttendancePercentage)
	}
}

func TestSessionMatrix(t *testing.T) {
	f := newFixture(t)
	first := f.createSession(t, CreateSessionInput{Date: "2026-03-02"})
	second := f.createSession(t, CreateSessionInput{Date: "2026-03-09"})
	if _, err := f.svc.MarkAttendance(context.Background(), first.QRToken, f.student.ID); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	m, err := f.svc.SessionMatrix(context.Background(), f.courseID)
	if err != nil {
		t.Fatalf("SessionMatrix: %v", err)
	}
	if len(m.Columns) != 2 || m.Columns[0].SessionID != first.ID || m.Columns[1].SessionID != second.ID {
		t.Fatalf("columns = %+v", m.Columns)
	}
	row := m.Cells[f.student.ID]
	if row[0] != StatusPresent || row[1] != StatusNotMarked {
		t.Errorf("row = %v, want [present not_marked]", row)
	}
}

func TestTimetableMatrix(t *testing.T) {
	f := newFixture(t)
	// Sessions in weeks 1 and 3; week 2 skipped.
	week1 := f.createSession(t, CreateSessionInput{Date: "2026-03-02"})
	week3 := f.createSession(t, CreateSessionInput{Date: "2026-03-16"})
	if _, err := f.svc.MarkAttendance(context.Background(), week1.QRToken, f.student.ID); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	m, err := f.svc.TimetableMatrix(context.Background(), f.courseID)
	if err != nil {
		t.Fatalf("TimetableMatrix: %v", err)
	}
	if len(m.Columns) != TermWeeks {
		t.Fatalf("got %d columns, want %d", len(m.Columns), TermWeeks)
	}

	anchor := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, col := range m.Columns {
		want := anchor.AddDate(0, 0, 7*i)
		if !col.Date.Equal(want) {
			t.Errorf("week %d date = %v, want %v", i+1, col.Date, want)
		}
		if col.Week != i+1 {
			t.Errorf("column %d week = %d, want %d", i, col.Week, i+1)
		}
	}
	if m.Columns[0].SessionID != week1.ID {
		t.Errorf("week 1 should match the first session")
	}
	if m.Columns[1].SessionID != "" {
		t.Errorf("week 2 was skipped, session id = %q", m.Columns[1].SessionID)
	}
	if m.Columns[2].SessionID != week3.ID {
		t.Errorf("week 3 should match the second session")
	}

	row := m.Cells[f.student.ID]
	if row[0] != StatusPresent {
		t.Errorf("week 1 cell = %q, want present", row[0])
	}
	if row[1] != StatusNotMarked {
		t.Errorf("skipped week cell = %q, want not_marked", row[1])
	}
	if row[2] != StatusNotMarked {
		t.Errorf("week 3 unmarked cell = %q, want not_marked", row[2])
	}
}

func TestTimetableMatrixNoSessionsForSlot(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.TimetableMatrix(context.Background(), f.courseID)
	if err != nil {
		t.Fatalf("TimetableMatrix: %v", err)
	}
	// No session ever created: no anchor, no columns.
	if len(m.Columns) != 0 {
		t.Errorf("got %d columns, want 0", len(m.Columns))
	}
	if len(m.Students) != 1 {
		t.Errorf("students should still be listed, got %d", len(m.Students))
	}
}

func TestSnapToWeekday(t *testing.T) {
	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		target time.Weekday
		want   time.Time
	}{
		{time.Tuesday, tuesday},
		{time.Wednesday, tuesday.AddDate(0, 0, 1)},
		{time.Monday, tuesday.AddDate(0, 0, 6)},
	}
	for _, tc := range cases {
		if got := snapToWeekday(tuesday, tc.target); !got.Equal(tc.want) {
			t.Errorf("snapToWeekday(%v, %v) = %v, want %v", tuesday, tc.target, got, tc.want)
		}
	}
}
