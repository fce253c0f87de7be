//go:build testutil
// +build testutil

package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/attendance"
	"classtrack/internal/catalog"
	"classtrack/internal/testutil/testdb"
	"classtrack/internal/user"
)

type fixture struct {
	repo      *attendance.Repository
	catalog   *catalog.Repository
	courseID  string
	ttID      string
	studentID string
}

func setup(t *testing.T) (*fixture, func()) {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	users := user.NewRepository(h.DB)
	teacher, err := users.Create(ctx, user.User{ID: uuid.NewString(), Name: "Grace", Email: "grace@example.com", PasswordHash: "x", Role: user.RoleTeacher})
	if err != nil {
		t.Fatal(err)
	}
	student, err := users.Create(ctx, user.User{ID: uuid.NewString(), Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: user.RoleStudent})
	if err != nil {
		t.Fatal(err)
	}

	cat := catalog.NewRepository(h.DB)
	course, err := cat.CreateCourse(ctx, catalog.Course{Code: "CS101", Name: "Intro", CreditHours: 3, TeacherID: teacher.ID})
	if err != nil {
		t.Fatal(err)
	}
	tt, err := cat.CreateTimetable(ctx, catalog.Timetable{CourseID: course.ID, DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:30", Classroom: "A1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Enroll(ctx, course.ID, student.ID); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		repo:      attendance.NewRepository(h.DB),
		catalog:   cat,
		courseID:  course.ID,
		ttID:      tt.ID,
		studentID: student.ID,
	}, h.Close
}

func (f *fixture) session(t *testing.T, token string) attendance.Session {
	t.Helper()
	s, err := f.repo.InsertSession(context.Background(), attendance.Session{
		ID:          uuid.NewString(),
		CourseID:    f.courseID,
		TimetableID: f.ttID,
		Date:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "10:30",
		QRToken:     token,
		ExpiresAt:   time.Now().Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestInsertSession_TokenUnique(t *testing.T) {
	f, done := setup(t)
	defer done()

	f.session(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	_, err := f.repo.InsertSession(context.Background(), attendance.Session{
		ID:          uuid.NewString(),
		CourseID:    f.courseID,
		TimetableID: f.ttID,
		Date:        time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "10:30",
		QRToken:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ExpiresAt:   time.Now().Add(10 * time.Minute),
	})
	if err == nil {
		t.Fatal("duplicate QR token accepted")
	}
}

func TestInsertRecord_ConcurrentDuplicates(t *testing.T) {
	f, done := setup(t)
	defer done()

	sess := f.session(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	const workers = 20
	var wg sync.WaitGroup
	inserted := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := f.repo.InsertRecord(context.Background(), attendance.Record{
				ID:        uuid.NewString(),
				SessionID: sess.ID,
				StudentID: f.studentID,
				Status:    attendance.StatusPresent,
				MarkedAt:  time.Now(),
			})
			if err != nil {
				t.Error(err)
				return
			}
			inserted <- ok
		}()
	}
	wg.Wait()
	close(inserted)

	wins := 0
	for ok := range inserted {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("inserted = %d, want exactly 1", wins)
	}

	records, err := f.repo.RecordsBySession(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Student.Email != "ada@example.com" {
		t.Errorf("student email = %q", records[0].Student.Email)
	}
}

func TestListTimetables_WeekOrder(t *testing.T) {
	f, done := setup(t)
	defer done()
	ctx := context.Background()

	// Fixture already holds Monday 09:00; add slots whose names sort
	// differently than their weekdays.
	for _, slot := range []catalog.Timetable{
		{CourseID: f.courseID, DayOfWeek: "Friday", StartTime: "10:00", EndTime: "11:30", Classroom: "B1"},
		{CourseID: f.courseID, DayOfWeek: "Wednesday", StartTime: "14:00", EndTime: "15:30", Classroom: "B2"},
		{CourseID: f.courseID, DayOfWeek: "Monday", StartTime: "11:00", EndTime: "12:30", Classroom: "B3"},
	} {
		if _, err := f.catalog.CreateTimetable(ctx, slot); err != nil {
			t.Fatal(err)
		}
	}

	slots, err := f.catalog.ListTimetables(ctx, f.courseID)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range slots {
		got = append(got, s.DayOfWeek+" "+s.StartTime)
	}
	want := []string{"Monday 09:00", "Monday 11:00", "Wednesday 14:00", "Friday 10:00"}
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slots = %v, want %v", got, want)
		}
	}
}

func TestSessionByToken_RoundTrip(t *testing.T) {
	f, done := setup(t)
	defer done()

	sess := f.session(t, "cccccccccccccccccccccccccccccccc")
	got, err := f.repo.SessionByToken(context.Background(), sess.QRToken)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != sess.ID {
		t.Errorf("id = %q, want %q", got.ID, sess.ID)
	}

	list, err := f.repo.SessionsByCourse(context.Background(), f.courseID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("sessions = %d, want 1", len(list))
	}
}
