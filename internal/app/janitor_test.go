package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordimposter/internal/domain"
	"wordimposter/internal/store"
)

func TestJanitorSweep(t *testing.T) {
	st := store.NewMemoryStore(slog.Default())
	ctx := context.Background()
	now := time.Now()

	fresh := domain.NewRoom("Alice", "default", domain.ModeOnline, "lantern")
	_, err := st.Create(ctx, fresh)
	require.NoError(t, err)

	expired := domain.NewRoom("Bob", "default", domain.ModeOnline, "lantern")
	expired.ExpiresAt = now.Add(-time.Minute).UnixMilli()
	_, err = st.Create(ctx, expired)
	require.NoError(t, err)

	empty := domain.NewRoom("Carol", "default", domain.ModeOnline, "lantern")
	empty.Players = nil
	_, err = st.Create(ctx, empty)
	require.NoError(t, err)

	idle := domain.NewRoom("Dave", "default", domain.ModeOnline, "lantern")
	idle.Phase = domain.PhaseResult
	idle.UpdatedAt = now.Add(-time.Hour).UnixMilli()
	_, err = st.Create(ctx, idle)
	require.NoError(t, err)

	recentResult := domain.NewRoom("Erin", "default", domain.ModeOnline, "lantern")
	recentResult.Phase = domain.PhaseResult
	_, err = st.Create(ctx, recentResult)
	require.NoError(t, err)

	janitor := NewJanitor(st, slog.Default(), time.Minute, 10*time.Minute)
	janitor.Sweep(ctx)

	_, err = st.Get(ctx, fresh.ID)
	assert.NoError(t, err, "active room survives")
	_, err = st.Get(ctx, recentResult.ID)
	assert.NoError(t, err, "recently finished room survives")

	for _, id := range []string{expired.ID, empty.ID, idle.ID} {
		_, err = st.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	}
}

func TestCleanupReason(t *testing.T) {
	now := time.Now()
	base := domain.NewRoom("Alice", "default", domain.ModeOnline, "lantern")

	tests := []struct {
		name   string
		mutate func(domain.Room) domain.Room
		want   string
	}{
		{"fresh lobby", func(r domain.Room) domain.Room { return r }, ""},
		{"expired", func(r domain.Room) domain.Room {
			r.ExpiresAt = now.Add(-time.Second).UnixMilli()
			return r
		}, "expired"},
		{"empty", func(r domain.Room) domain.Room {
			r.Players = nil
			return r
		}, "empty"},
		{"result idle", func(r domain.Room) domain.Room {
			r.Phase = domain.PhaseResult
			r.UpdatedAt = now.Add(-time.Hour).UnixMilli()
			return r
		}, "result-idle"},
		{"result recent", func(r domain.Room) domain.Room {
			r.Phase = domain.PhaseResult
			return r
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := tt.mutate(base)
			assert.Equal(t, tt.want, cleanupReason(room, now, 10*time.Minute))
		})
	}
}
