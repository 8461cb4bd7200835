package kiosk

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kiosk/internal/model"
)

// PostgresRepository persists kiosk data in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo over an open connection pool.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, category, rfid, "group", last_name, given_name, middle_name, photo_url, course_id`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Category, &u.RFID, &u.Group, &u.LastName, &u.GivenName, &u.MiddleName, &u.PhotoURL, &u.CourseID)
}

// GetUserByRFID returns the user holding the card, or nil when no card matches.
func (r *PostgresRepository) GetUserByRFID(ctx context.Context, rfid string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE rfid = $1
	`, rfid)
	var u model.User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every registered user.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListSessions returns every session, open and closed.
func (r *PostgresRepository) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, user_id, login_timestamp, logout_timestamp, session_duration
		FROM user_sessions ORDER BY login_timestamp DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.LoginAt, &s.LogoutAt, &s.Duration); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListCourses returns the course catalog.
func (r *PostgresRepository) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, department_id FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.DepartmentID); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// ListDepartments returns the department catalog.
func (r *PostgresRepository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// GetCourse returns one course or nil.
func (r *PostgresRepository) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, department_id FROM courses WHERE id = $1`, id)
	var c model.Course
	if err := row.Scan(&c.ID, &c.Name, &c.DepartmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetDepartment returns one department or nil.
func (r *PostgresRepository) GetDepartment(ctx context.Context, id int64) (*model.Department, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM departments WHERE id = $1`, id)
	var d model.Department
	if err := row.Scan(&d.ID, &d.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// OpenSessions returns the user's open sessions, most recent login first.
func (r *PostgresRepository) OpenSessions(ctx context.Context, userID int64) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, user_id, login_timestamp, logout_timestamp, session_duration
		FROM user_sessions
		WHERE user_id = $1 AND logout_timestamp IS NULL
		ORDER BY login_timestamp DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.LoginAt, &s.LogoutAt, &s.Duration); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// LatestSession returns the user's most recent session, or nil when the
// user has no sessions at all.
func (r *PostgresRepository) LatestSession(ctx context.Context, userID int64) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, login_timestamp, logout_timestamp, session_duration
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY login_timestamp DESC
		LIMIT 1
	`, userID)
	var s model.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.LoginAt, &s.LogoutAt, &s.Duration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// InsertSession opens a new session for the user.
func (r *PostgresRepository) InsertSession(ctx context.Context, userID int64, loginAt time.Time) (model.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO user_sessions (user_id, login_timestamp, logout_timestamp, session_duration)
		VALUES ($1, $2, NULL, NULL)
		RETURNING session_id
	`, userID, loginAt)
	s := model.Session{UserID: userID, LoginAt: loginAt}
	if err := row.Scan(&s.ID); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// CloseSession stamps the logout time and duration on an open session.
func (r *PostgresRepository) CloseSession(ctx context.Context, sessionID int64, logoutAt time.Time, duration string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_sessions
		SET logout_timestamp = $2, session_duration = $3
		WHERE session_id = $1
	`, sessionID, logoutAt, duration)
	return err
}

// InsertAttendanceHistory archives one counter cell for a month.
func (r *PostgresRepository) InsertAttendanceHistory(ctx context.Context, rec model.AttendanceRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_history (month, year, department, course, count)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.Month, rec.Year, rec.Department, rec.Course, rec.Count)
	return err
}

// UpdateUser rewrites a user record, including RFID reassignment.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u model.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET category = $2, rfid = $3, "group" = $4, last_name = $5,
		    given_name = $6, middle_name = $7, photo_url = $8, course_id = $9
		WHERE id = $1
	`, u.ID, u.Category, u.RFID, u.Group, u.LastName, u.GivenName, u.MiddleName, u.PhotoURL, u.CourseID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NewError("user", model.ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user record.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NewError("user", model.ErrNotFound)
	}
	return nil
}
