package kiosk

import (
	"context"
	"sort"
	"sync"
	"time"

	"kiosk/internal/model"
)

// MemoryRepository is a map-backed store for development and tests.
type MemoryRepository struct {
	mu          sync.RWMutex
	users       map[int64]model.User
	courses     map[int64]model.Course
	departments map[int64]model.Department
	sessions    map[int64]model.Session
	history     []model.AttendanceRecord
	nextSession int64
}

// NewMemoryRepository creates an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:       make(map[int64]model.User),
		courses:     make(map[int64]model.Course),
		departments: make(map[int64]model.Department),
		sessions:    make(map[int64]model.Session),
	}
}

// Seed loads catalog and user rows, replacing whatever was there.
func (r *MemoryRepository) Seed(users []model.User, courses []model.Course, departments []model.Department) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		r.users[u.ID] = u
	}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	for _, d := range departments {
		r.departments[d.ID] = d
	}
}

func (r *MemoryRepository) GetUserByRFID(_ context.Context, rfid string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.RFID == rfid {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryRepository) ListSessions(_ context.Context) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].LoginAt.After(sessions[j].LoginAt) })
	return sessions, nil
}

func (r *MemoryRepository) ListCourses(_ context.Context) ([]model.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	courses := make([]model.Course, 0, len(r.courses))
	for _, c := range r.courses {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (r *MemoryRepository) ListDepartments(_ context.Context) ([]model.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	departments := make([]model.Department, 0, len(r.departments))
	for _, d := range r.departments {
		departments = append(departments, d)
	}
	sort.Slice(departments, func(i, j int) bool { return departments[i].ID < departments[j].ID })
	return departments, nil
}

func (r *MemoryRepository) GetCourse(_ context.Context, id int64) (*model.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.courses[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetDepartment(_ context.Context, id int64) (*model.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.departments[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (r *MemoryRepository) OpenSessions(_ context.Context, userID int64) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var open []model.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Open() {
			open = append(open, s)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].LoginAt.After(open[j].LoginAt) })
	return open, nil
}

func (r *MemoryRepository) LatestSession(_ context.Context, userID int64) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *model.Session
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.LoginAt.After(latest.LoginAt) {
			s := s
			latest = &s
		}
	}
	return latest, nil
}

func (r *MemoryRepository) InsertSession(_ context.Context, userID int64, loginAt time.Time) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSession++
	s := model.Session{ID: r.nextSession, UserID: userID, LoginAt: loginAt}
	r.sessions[s.ID] = s
	return s, nil
}

func (r *MemoryRepository) CloseSession(_ context.Context, sessionID int64, logoutAt time.Time, duration string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return model.NewError("session", model.ErrNotFound)
	}
	s.LogoutAt = &logoutAt
	s.Duration = &duration
	r.sessions[sessionID] = s
	return nil
}

func (r *MemoryRepository) InsertAttendanceHistory(_ context.Context, rec model.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, rec)
	return nil
}

// History returns archived records; test helper.
func (r *MemoryRepository) History() []model.AttendanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.AttendanceRecord, len(r.history))
	copy(out, r.history)
	return out
}

func (r *MemoryRepository) UpdateUser(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return model.NewError("user", model.ErrNotFound)
	}
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepository) DeleteUser(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return model.NewError("user", model.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}
