package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"classtrack/internal/apperr"
	"classtrack/internal/catalog"
)

// memStore is an in-memory Store with the same uniqueness semantics as the
// Postgres repository. The mutex makes InsertRecord atomic, mirroring the
// unique index.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	byToken  map[string]string
	records  map[string]Record
	students map[string]catalog.Student
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]Session),
		byToken:  make(map[string]string),
		records:  make(map[string]Record),
		students: make(map[string]catalog.Student),
	}
}

func (m *memStore) InsertSession(_ context.Context, s Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[s.QRToken]; ok {
		return Session{}, fmt.Errorf("QR token already in use: %w", apperr.ErrConflict)
	}
	s.CreatedAt = time.Now()
	m.sessions[s.ID] = s
	m.byToken[s.QRToken] = s.ID
	return s, nil
}

func (m *memStore) SessionByID(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session not found: %w", apperr.ErrNotFound)
	}
	return s, nil
}

func (m *memStore) SessionByToken(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return Session{}, fmt.Errorf("session not found: %w", apperr.ErrNotFound)
	}
	return m.sessions[id], nil
}

func (m *memStore) SessionsByCourse(_ context.Context, courseID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Session
	for _, s := range m.sessions {
		if s.CourseID == courseID {
			res = append(res, s)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.Before(res[j].Date)
		}
		return res[i].StartTime < res[j].StartTime
	})
	return res, nil
}

func (m *memStore) InsertRecord(_ context.Context, rec Record) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.SessionID + "|" + rec.StudentID
	if _, ok := m.records[key]; ok {
		return Record{}, false, nil
	}
	m.records[key] = rec
	return rec, true, nil
}

func (m *memStore) RecordsBySession(_ context.Context, sessionID string) ([]SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []SessionRecord
	for _, rec := range m.records {
		if rec.SessionID == sessionID {
			res = append(res, SessionRecord{Record: rec, Student: m.students[rec.StudentID]})
		}
	}
	return res, nil
}

func (m *memStore) RecordsByCourseStudent(_ context.Context, courseID, studentID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Record
	for _, rec := range m.records {
		if rec.StudentID == studentID && m.sessions[rec.SessionID].CourseID == courseID {
			res = append(res, rec)
		}
	}
	return res, nil
}

func (m *memStore) RecordsByCourse(_ context.Context, courseID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Record
	for _, rec := range m.records {
		if m.sessions[rec.SessionID].CourseID == courseID {
			res = append(res, rec)
		}
	}
	return res, nil
}

// memCatalog is an in-memory Catalog.
type memCatalog struct {
	courses    map[string]catalog.Course
	timetables map[string]catalog.Timetable
	enrolled   map[string]bool
	roster     map[string][]catalog.Student
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		courses:    make(map[string]catalog.Course),
		timetables: make(map[string]catalog.Timetable),
		enrolled:   make(map[string]bool),
		roster:     make(map[string][]catalog.Student),
	}
}

func (m *memCatalog) GetCourse(_ context.Context, id string) (catalog.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return catalog.Course{}, fmt.Errorf("course not found: %w", apperr.ErrNotFound)
	}
	return c, nil
}

func (m *memCatalog) GetTimetable(_ context.Context, id string) (catalog.Timetable, error) {
	t, ok := m.timetables[id]
	if !ok {
		return catalog.Timetable{}, fmt.Errorf("timetable not found: %w", apperr.ErrNotFound)
	}
	return t, nil
}

func (m *memCatalog) ListTimetables(_ context.Context, courseID string) ([]catalog.Timetable, error) {
	var res []catalog.Timetable
	for _, t := range m.timetables {
		if t.CourseID == courseID {
			res = append(res, t)
		}
	}
	return res, nil
}

func (m *memCatalog) IsEnrolled(_ context.Context, courseID, studentID string) (bool, error) {
	return m.enrolled[courseID+"|"+studentID], nil
}

func (m *memCatalog) EnrolledStudents(_ context.Context, courseID string) ([]catalog.Student, error) {
	return m.roster[courseID], nil
}

func (m *memCatalog) enroll(courseID string, s catalog.Student) {
	m.enrolled[courseID+"|"+s.ID] = true
	m.roster[courseID] = append(m.roster[courseID], s)
}

// fakeCache records token cache traffic.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	hits    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) GetSessionID(_ context.Context, token string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.entries[token]
	if id != "" {
		f.hits++
	}
	return id
}

func (f *fakeCache) SetSessionID(_ context.Context, token, sessionID string, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[token] = sessionID
}
