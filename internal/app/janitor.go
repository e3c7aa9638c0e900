package app

import (
	"context"
	"log/slog"
	"time"

	"wordimposter/internal/domain"
	"wordimposter/internal/store"
)

// Janitor periodically deletes rooms that are expired, empty, or parked in
// the result phase past the idle window. The engine never assumes a room
// still exists; clients observe deletion through the change stream.
type Janitor struct {
	store      store.RoomStore
	logger     *slog.Logger
	interval   time.Duration
	resultIdle time.Duration
}

// NewJanitor creates a janitor sweeping at the given interval
func NewJanitor(st store.RoomStore, logger *slog.Logger, interval, resultIdle time.Duration) *Janitor {
	return &Janitor{
		store:      st,
		logger:     logger,
		interval:   interval,
		resultIdle: resultIdle,
	}
}

// Run sweeps until the context is canceled
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes every room that qualifies for cleanup
func (j *Janitor) Sweep(ctx context.Context) {
	rooms, err := j.store.List(ctx)
	if err != nil {
		j.logger.Warn("cleanup sweep failed to list rooms", "error", err)
		return
	}

	now := time.Now()
	for _, room := range rooms {
		reason := cleanupReason(room, now, j.resultIdle)
		if reason == "" {
			continue
		}
		if err := j.store.Delete(ctx, room.ID); err != nil {
			j.logger.Warn("cleanup delete failed", "roomID", room.ID, "error", err)
			continue
		}
		j.logger.Info("room cleaned up", "roomID", room.ID, "reason", reason)
	}
}

func cleanupReason(room domain.Room, now time.Time, resultIdle time.Duration) string {
	switch {
	case room.Expired(now):
		return "expired"
	case len(room.Players) == 0:
		return "empty"
	case room.Phase == domain.PhaseResult && now.UnixMilli()-room.UpdatedAt > resultIdle.Milliseconds():
		return "result-idle"
	default:
		return ""
	}
}
