package kiosk

import (
	"context"
	"log/slog"
	"time"

	"kiosk/internal/model"
)

// CloseStragglers closes open sessions a logout event left behind: any
// session for the user still open that was opened strictly before the
// event time. Sessions opened at or after the event are newer logins the
// event knows nothing about and must stay open, otherwise a delayed event
// would close a session nobody tapped out of.
//
// Close failures are logged and skipped so one bad row does not block the
// rest of the sweep. Returns how many sessions were closed.
func CloseStragglers(ctx context.Context, repo Repository, logger *slog.Logger, userID int64, at time.Time) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	open, err := repo.OpenSessions(ctx, userID)
	if err != nil {
		return 0, model.NewError("session", model.ErrStorageFailure)
	}

	closed := 0
	for _, sess := range open {
		if !sess.LoginAt.Before(at) {
			continue
		}
		duration := FormatDuration(at.Sub(sess.LoginAt).Milliseconds())
		if err := repo.CloseSession(ctx, sess.ID, at, duration); err != nil {
			logger.Error("straggler close failed", "session_id", sess.ID, "err", err)
			continue
		}
		logger.Warn("closed straggler open session",
			"session_id", sess.ID, "user_id", userID, "login_at", sess.LoginAt)
		closed++
	}
	return closed, nil
}
