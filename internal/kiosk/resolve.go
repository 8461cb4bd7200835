package kiosk

import (
	"context"
	"fmt"

	"kiosk/internal/model"
)

// ResolveDisplay joins a card to its user, course, department and most
// recent session, producing the flattened record the kiosk screen shows.
// A user with no sessions is fine; a missing user, course or department
// link is not, because a partially-filled identity is unsafe to display.
func (s *Service) ResolveDisplay(ctx context.Context, rfid string) (*model.CombinedRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.GetUserByRFID(ctx, rfid)
	if err != nil {
		return nil, s.resolveFailure("user", rfid, err)
	}
	if user == nil {
		return nil, model.NewError("user", model.ErrNotFound)
	}

	course, err := s.repo.GetCourse(ctx, user.CourseID)
	if err != nil {
		return nil, s.resolveFailure("course", rfid, err)
	}
	if course == nil {
		return nil, model.NewError("course", model.ErrNotFound)
	}

	dept, err := s.repo.GetDepartment(ctx, course.DepartmentID)
	if err != nil {
		return nil, s.resolveFailure("department", rfid, err)
	}
	if dept == nil {
		return nil, model.NewError("department", model.ErrNotFound)
	}

	rec := &model.CombinedRecord{
		GivenName:  user.GivenName,
		LastName:   user.LastName,
		StudentID:  user.ID,
		Department: dept.Name,
		CourseName: course.Name,
		Category:   user.Category,
		RFID:       user.RFID,
		Date:       s.now().Format("2006-01-02"),
		CourseID:   user.CourseID,
	}

	sess, err := s.repo.LatestSession(ctx, user.ID)
	if err != nil {
		return nil, s.resolveFailure("session", rfid, err)
	}
	if sess != nil {
		loginAt := sess.LoginAt
		rec.TimeIn = &loginAt
		rec.TimeOut = sess.LogoutAt
	}

	return rec, nil
}

// resolveFailure logs a storage error and returns it wrapped alongside the
// sentinel so callers can both match ErrStorageFailure and recover the
// cause.
func (s *Service) resolveFailure(entity, rfid string, err error) error {
	s.logger.Error("resolve aborted on storage failure", "entity", entity, "rfid", rfid, "err", err)
	return fmt.Errorf("%s: %w: %w", entity, model.ErrStorageFailure, err)
}
