package kiosk

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/model"
)

func TestCloseStragglersClosesSessionsOpenedBeforeEvent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	straggler, err := repo.InsertSession(ctx, 1, t0)
	require.NoError(t, err)

	closed, err := CloseStragglers(ctx, repo, slog.Default(), 1, t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	sessions, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, straggler.ID, sessions[0].ID)
	require.NotNil(t, sessions[0].LogoutAt)
	require.NotNil(t, sessions[0].Duration)
	assert.Equal(t, "0 hours 0 minutes 10 seconds", *sessions[0].Duration)
}

// A logout event can arrive after the user has already logged back in. The
// sweep must only touch sessions opened before the event, or a delayed
// event would close the new session without a tap.
func TestCloseStragglersLeavesNewerSessionsOpen(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	logoutAt := t0.Add(10 * time.Second)

	old, err := repo.InsertSession(ctx, 1, t0)
	require.NoError(t, err)
	relogin, err := repo.InsertSession(ctx, 1, t0.Add(20*time.Second))
	require.NoError(t, err)

	closed, err := CloseStragglers(ctx, repo, slog.Default(), 1, logoutAt)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	open, err := repo.OpenSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, relogin.ID, open[0].ID)

	sessions, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.ID == old.ID {
			require.NotNil(t, s.LogoutAt)
			assert.Equal(t, logoutAt, *s.LogoutAt)
		}
	}
}

func TestCloseStragglersSkipsSessionAtEventTime(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := repo.InsertSession(ctx, 1, at)
	require.NoError(t, err)

	closed, err := CloseStragglers(ctx, repo, slog.Default(), 1, at)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)

	open, err := repo.OpenSessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestCloseStragglersContinuesPastCloseFailure(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := repo.InsertSession(ctx, 1, t0)
	require.NoError(t, err)

	failing := &failingRepo{Repository: repo, failClose: true}
	closed, err := CloseStragglers(ctx, failing, slog.Default(), 1, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, closed)

	open, err := repo.OpenSessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, open, 1, "failed close leaves the session for the next sweep")
}

func TestCloseStragglersListFailure(t *testing.T) {
	repo := &failingRepo{Repository: NewMemoryRepository(), failOpenList: true}

	_, err := CloseStragglers(context.Background(), repo, slog.Default(), 1, time.Now())
	assert.ErrorIs(t, err, model.ErrStorageFailure)
}
