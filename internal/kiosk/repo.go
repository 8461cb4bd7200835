package kiosk

import (
	"context"
	"time"

	"kiosk/internal/model"
)

// Repository is the minimal data-access surface the kiosk needs from the
// backing store. Lookups that can legitimately miss return (nil, nil); an
// error always means the store itself failed.
type Repository interface {
	GetUserByRFID(ctx context.Context, rfid string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	GetDepartment(ctx context.Context, id int64) (*model.Department, error)

	// OpenSessions returns the user's open sessions ordered by login time
	// descending. Under correct operation the slice has at most one element.
	OpenSessions(ctx context.Context, userID int64) ([]model.Session, error)
	// LatestSession returns the user's most recent session by login time,
	// open or closed, or (nil, nil) when the user never tapped.
	LatestSession(ctx context.Context, userID int64) (*model.Session, error)

	InsertSession(ctx context.Context, userID int64, loginAt time.Time) (model.Session, error)
	CloseSession(ctx context.Context, sessionID int64, logoutAt time.Time, duration string) error

	InsertAttendanceHistory(ctx context.Context, rec model.AttendanceRecord) error

	// Administrative operations, not on the tap hot path.
	UpdateUser(ctx context.Context, u model.User) error
	DeleteUser(ctx context.Context, id int64) error
}
