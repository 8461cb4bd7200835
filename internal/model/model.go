package model

import "time"

// User is a registered cardholder. RFID is unique but reassignable when a
// card is replaced.
type User struct {
	ID         int64  `json:"id"`
	Category   string `json:"category"`
	RFID       string `json:"rfid"`
	Group      string `json:"group"`
	LastName   string `json:"last_name"`
	GivenName  string `json:"given_name"`
	MiddleName string `json:"middle_name"`
	PhotoURL   string `json:"photo_url"`
	CourseID   int64  `json:"course_id"`
}

// FullName renders the name used in greetings.
func (u User) FullName() string {
	return u.GivenName + " " + u.LastName
}

// Course belongs to exactly one department.
type Course struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DepartmentID int64  `json:"department_id"`
}

type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Session is one login/logout pair. A nil LogoutAt means the session is
// still open and the user is currently checked in. Duration is set only
// when the session closes.
type Session struct {
	ID       int64      `json:"session_id"`
	UserID   int64      `json:"user_id"`
	LoginAt  time.Time  `json:"login_timestamp"`
	LogoutAt *time.Time `json:"logout_timestamp"`
	Duration *string    `json:"session_duration"`
}

// Open reports whether the session has not been closed yet.
func (s Session) Open() bool { return s.LogoutAt == nil }

// CombinedRecord is the denormalized view shown on the kiosk screen after a
// card resolves: user joined with course, department and the most recent
// session. TimeIn/TimeOut stay nil when the user has never tapped.
type CombinedRecord struct {
	GivenName  string     `json:"given_name"`
	LastName   string     `json:"last_name"`
	StudentID  int64      `json:"student_id"`
	Department string     `json:"department"`
	CourseName string     `json:"course_name"`
	Category   string     `json:"student_type"`
	RFID       string     `json:"rfid_id"`
	TimeIn     *time.Time `json:"time_in"`
	TimeOut    *time.Time `json:"time_out"`
	Date       string     `json:"date"`
	CourseID   int64      `json:"course_id"`
}

// AttendanceRecord is one archived counter cell for a given month.
type AttendanceRecord struct {
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Department string `json:"department"`
	Course     string `json:"course"`
	Count      int64  `json:"count"`
}
