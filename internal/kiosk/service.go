package kiosk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kiosk/internal/model"
	"kiosk/internal/queue"
	"kiosk/internal/tally"
)

// TapResult is the structured outcome shown on the kiosk screen. Nothing
// else crosses the service boundary on the tap path; errors are folded
// into the message.
type TapResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Service drives the whole tap flow: debounce, session toggle, counter
// update, event publish. One instance owns the guard and the board for the
// lifetime of the process.
type Service struct {
	repo         Repository
	guard        *Guard
	board        *tally.Board
	q            queue.Queue
	logger       *slog.Logger
	now          func() time.Time
	storeTimeout time.Duration
}

// NewService wires the core. q may be nil when no worker is deployed.
func NewService(repo Repository, guard *Guard, board *tally.Board, q queue.Queue, logger *slog.Logger, storeTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}
	return &Service{
		repo:         repo,
		guard:        guard,
		board:        board,
		q:            q,
		logger:       logger,
		now:          time.Now,
		storeTimeout: storeTimeout,
	}
}

// Guard exposes the debounce ledger so main can run its sweeper.
func (s *Service) Guard() *Guard { return s.guard }

// Board exposes the attendance counters.
func (s *Service) Board() *tally.Board { return s.board }

const (
	msgUserNotFound = "User not found!"
	msgStoreError   = "An error occurred. Please try again."
)

// tapMessage varies the rejection text with the number of taps seen inside
// the current cooldown window. Cosmetic only.
func tapMessage(taps int) string {
	switch taps {
	case 2:
		return "Please wait a few seconds..."
	case 3:
		return "Still processing, please be patient..."
	case 4:
		return "Too many attempts! Please step back from the reader."
	default:
		return "This user has already logged in/out recently. Please wait a few seconds."
	}
}

// Tap handles one RFID scan: debounce, then toggle the user's session.
// A tap with no open session logs the user in and bumps the attendance
// counter for the user's department and course; a tap with an open session
// logs the user out and stamps the session duration. Any storage failure
// aborts the tap before further side effects.
func (s *Service) Tap(ctx context.Context, rfid string) TapResult {
	now := s.now()

	if ok, taps := s.guard.Accept(rfid); !ok {
		tapsTotal.WithLabelValues(resultRejected).Inc()
		return TapResult{Message: tapMessage(taps), Success: false}
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.GetUserByRFID(ctx, rfid)
	if err != nil {
		return s.storeFailure("lookup user", rfid, err)
	}
	if user == nil {
		tapsTotal.WithLabelValues(resultNotFound).Inc()
		return TapResult{Message: msgUserNotFound, Success: false}
	}

	open, err := s.repo.OpenSessions(ctx, user.ID)
	if err != nil {
		return s.storeFailure("lookup open sessions", rfid, err)
	}

	if len(open) == 0 {
		return s.login(ctx, *user, now)
	}
	return s.logout(ctx, *user, open, now)
}

func (s *Service) login(ctx context.Context, user model.User, now time.Time) TapResult {
	// Resolve the counter key up front so a broken catalog link fails the
	// tap before any row is written.
	course, err := s.repo.GetCourse(ctx, user.CourseID)
	if err != nil {
		return s.storeFailure("lookup course", user.RFID, err)
	}
	if course == nil {
		s.logger.Error("user references missing course", "user_id", user.ID, "course_id", user.CourseID)
		tapsTotal.WithLabelValues(resultNotFound).Inc()
		return TapResult{Message: msgUserNotFound, Success: false}
	}
	dept, err := s.repo.GetDepartment(ctx, course.DepartmentID)
	if err != nil {
		return s.storeFailure("lookup department", user.RFID, err)
	}
	if dept == nil {
		s.logger.Error("course references missing department", "course_id", course.ID, "department_id", course.DepartmentID)
		tapsTotal.WithLabelValues(resultNotFound).Inc()
		return TapResult{Message: msgUserNotFound, Success: false}
	}

	if _, err := s.repo.InsertSession(ctx, user.ID, now); err != nil {
		return s.storeFailure("insert session", user.RFID, err)
	}

	s.board.Increment(dept.Name, course.Name)
	s.publish(queue.NewTapEvent(queue.KindLogin, user.RFID, user.ID, now))
	tapsTotal.WithLabelValues(resultLogin).Inc()

	return TapResult{Message: fmt.Sprintf("Welcome, %s.", user.FullName()), Success: true}
}

func (s *Service) logout(ctx context.Context, user model.User, open []model.Session, now time.Time) TapResult {
	// One open session is the invariant. If the store holds more, close the
	// most recent and report the anomaly; the worker sweeps up the rest.
	if len(open) > 1 {
		s.logger.Error("multiple open sessions for user",
			"user_id", user.ID, "count", len(open), "err", model.NewError("session", model.ErrInvariant))
	}
	sess := open[0]

	duration := FormatDuration(now.Sub(sess.LoginAt).Milliseconds())
	if err := s.repo.CloseSession(ctx, sess.ID, now, duration); err != nil {
		return s.storeFailure("close session", user.RFID, err)
	}

	s.publish(queue.NewTapEvent(queue.KindLogout, user.RFID, user.ID, now))
	tapsTotal.WithLabelValues(resultLogout).Inc()

	return TapResult{Message: fmt.Sprintf("Goodbye, %s.", user.FullName()), Success: true}
}

func (s *Service) storeFailure(op, rfid string, err error) TapResult {
	s.logger.Error("tap aborted on storage failure", "op", op, "rfid", rfid, "err", err)
	tapsTotal.WithLabelValues(resultFailed).Inc()
	return TapResult{Message: msgStoreError, Success: false}
}

// publish is best-effort: a dead queue must not fail a tap that already
// committed its storage mutation.
func (s *Service) publish(evt queue.TapEvent) {
	if s.q == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	if err := s.q.Publish(ctx, evt); err != nil {
		s.logger.Warn("tap event publish failed", "kind", evt.Kind, "err", err)
	}
}

// RebuildBoard resynchronizes the counters against the store of record:
// counts become the open sessions grouped by department and course.
func (s *Service) RebuildBoard(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return fmt.Errorf("list departments: %w", err)
	}

	s.board.Rebuild(sessions, users, courses, departments)
	return nil
}

// ExportSnapshot archives the current counters as one row per cell for the
// given month. Counters are left untouched; reset is a separate call.
func (s *Service) ExportSnapshot(ctx context.Context, month, year int) ([]model.AttendanceRecord, error) {
	records := s.board.ExportRecords(month, year)

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	for _, rec := range records {
		if err := s.repo.InsertAttendanceHistory(ctx, rec); err != nil {
			return nil, fmt.Errorf("insert attendance history %s/%s: %w", rec.Department, rec.Course, err)
		}
	}
	return records, nil
}

// UpdateUser is the administrative passthrough for record edits, including
// RFID reassignment.
func (s *Service) UpdateUser(ctx context.Context, u model.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.repo.UpdateUser(ctx, u)
}

// DeleteUser removes a user record.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.repo.DeleteUser(ctx, id)
}
