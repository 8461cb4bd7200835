// Package tally keeps the in-memory attendance counters, one cell per
// (department, course) pair.
package tally

import (
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kiosk/internal/model"
)

var attendanceTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "kiosk_attendance_total",
	Help: "Sum of all attendance counter cells.",
})

// Board holds the counters. The cell set is fixed at construction; after
// that every cell is an atomic counter, so unrelated cells never contend
// and reads need no lock. Increments to unregistered keys are dropped
// with a warning.
type Board struct {
	cells  map[string]map[string]*atomic.Int64
	logger *slog.Logger
}

// New builds a board with every cell in keys zeroed.
func New(logger *slog.Logger, keys map[string][]string) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	cells := make(map[string]map[string]*atomic.Int64, len(keys))
	for dept, courses := range keys {
		row := make(map[string]*atomic.Int64, len(courses))
		for _, course := range courses {
			row[course] = new(atomic.Int64)
		}
		cells[dept] = row
	}
	return &Board{cells: cells, logger: logger}
}

func (b *Board) cell(department, course string) *atomic.Int64 {
	row, ok := b.cells[department]
	if !ok {
		return nil
	}
	return row[course]
}

// Increment adds one to the cell and reports whether the key was
// registered. Unknown keys are a sign of catalog drift, so they are
// logged rather than silently swallowed.
func (b *Board) Increment(department, course string) bool {
	c := b.cell(department, course)
	if c == nil {
		b.logger.Warn("attendance increment dropped, unregistered key",
			"department", department, "course", course)
		return false
	}
	c.Add(1)
	attendanceTotal.Inc()
	return true
}

// Snapshot returns a copy of the full counter mapping.
func (b *Board) Snapshot() map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(b.cells))
	for dept, row := range b.cells {
		counts := make(map[string]int64, len(row))
		for course, c := range row {
			counts[course] = c.Load()
		}
		out[dept] = counts
	}
	return out
}

// Total sums every cell.
func (b *Board) Total() int64 {
	var total int64
	for _, row := range b.cells {
		for _, c := range row {
			total += c.Load()
		}
	}
	return total
}

// Reset zeroes every cell.
func (b *Board) Reset() {
	for _, row := range b.cells {
		for _, c := range row {
			c.Store(0)
		}
	}
	attendanceTotal.Set(0)
}

// Rebuild zeroes the board and replays the currently open sessions,
// resolving each one's user to its course and department. Closed sessions
// do not count: the board answers "who is here now". Calling Rebuild twice
// with the same input yields the same snapshot.
func (b *Board) Rebuild(sessions []model.Session, users []model.User, courses []model.Course, departments []model.Department) {
	b.Reset()

	userByID := make(map[int64]model.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}
	courseByID := make(map[int64]model.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}
	deptByID := make(map[int64]model.Department, len(departments))
	for _, d := range departments {
		deptByID[d.ID] = d
	}

	for _, s := range sessions {
		if !s.Open() {
			continue
		}
		u, ok := userByID[s.UserID]
		if !ok {
			b.logger.Warn("rebuild skipped session, unknown user", "session_id", s.ID, "user_id", s.UserID)
			continue
		}
		c, ok := courseByID[u.CourseID]
		if !ok {
			b.logger.Warn("rebuild skipped session, unknown course", "session_id", s.ID, "course_id", u.CourseID)
			continue
		}
		d, ok := deptByID[c.DepartmentID]
		if !ok {
			b.logger.Warn("rebuild skipped session, unknown department", "session_id", s.ID, "department_id", c.DepartmentID)
			continue
		}
		b.Increment(d.Name, c.Name)
	}
}

// ExportRecords flattens the board into archival rows for the given month.
// It does not reset the counters; archival and reset are separate calls.
func (b *Board) ExportRecords(month, year int) []model.AttendanceRecord {
	var records []model.AttendanceRecord
	for dept, row := range b.cells {
		for course, c := range row {
			records = append(records, model.AttendanceRecord{
				Month:      month,
				Year:       year,
				Department: dept,
				Course:     course,
				Count:      c.Load(),
			})
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Department != records[j].Department {
			return records[i].Department < records[j].Department
		}
		return records[i].Course < records[j].Course
	})
	return records
}
