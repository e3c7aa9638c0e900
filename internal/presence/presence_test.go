package presence

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for presence event")
		return Event{}
	}
}

func TestHub_JoinLeave(t *testing.T) {
	hub := NewHub(slog.Default())

	ch, cancel := hub.Subscribe("ROOM1")
	defer cancel()

	sync := waitForEvent(t, ch)
	assert.Equal(t, EventSync, sync.Type)
	assert.Empty(t, sync.Keys)

	hub.Track("ROOM1", "p1")
	join := waitForEvent(t, ch)
	assert.Equal(t, EventJoin, join.Type)
	assert.Equal(t, "p1", join.Key)

	hub.Untrack("ROOM1", "p1")
	leave := waitForEvent(t, ch)
	assert.Equal(t, EventLeave, leave.Type)
	assert.Equal(t, "p1", leave.Key)
}

func TestHub_Snapshot(t *testing.T) {
	hub := NewHub(slog.Default())

	hub.Track("ROOM1", "p2")
	hub.Track("ROOM1", "p1")
	hub.Track("ROOM2", "p3")

	assert.Equal(t, []string{"p1", "p2"}, hub.Snapshot("ROOM1"))
	assert.Equal(t, []string{"p3"}, hub.Snapshot("ROOM2"))
	assert.Empty(t, hub.Snapshot("NOROOM"))
}

func TestHub_SyncCarriesCurrentMembers(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Track("ROOM1", "p1")

	ch, cancel := hub.Subscribe("ROOM1")
	defer cancel()

	sync := waitForEvent(t, ch)
	require.Equal(t, EventSync, sync.Type)
	assert.Equal(t, []string{"p1"}, sync.Keys)
}

func TestHub_RefCountedKeys(t *testing.T) {
	hub := NewHub(slog.Default())

	ch, cancel := hub.Subscribe("ROOM1")
	defer cancel()
	waitForEvent(t, ch) // initial sync

	// Two connections for the same player: join fires once
	hub.Track("ROOM1", "p1")
	hub.Track("ROOM1", "p1")
	join := waitForEvent(t, ch)
	assert.Equal(t, EventJoin, join.Type)

	// Leave fires only when the last connection goes
	hub.Untrack("ROOM1", "p1")
	select {
	case event := <-ch:
		t.Fatalf("unexpected event before last untrack: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}

	hub.Untrack("ROOM1", "p1")
	leave := waitForEvent(t, ch)
	assert.Equal(t, EventLeave, leave.Type)
}

func TestHub_EmptyKeyIsAnonymous(t *testing.T) {
	hub := NewHub(slog.Default())

	hub.Track("ROOM1", "")
	assert.Equal(t, []string{AnonymousKey}, hub.Snapshot("ROOM1"))

	hub.Untrack("ROOM1", "")
	assert.Empty(t, hub.Snapshot("ROOM1"))
}

func TestHub_UntrackUnknownIsNoop(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Untrack("ROOM1", "ghost")
	assert.Empty(t, hub.Snapshot("ROOM1"))
}
