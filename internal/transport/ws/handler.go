package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"wordimposter/internal/presence"
	"wordimposter/internal/realtime"
	"wordimposter/internal/store"
)

// Handler upgrades connections and attaches each client to its room's
// change and presence streams
type Handler struct {
	store    store.RoomStore
	hub      *presence.Hub
	grace    time.Duration
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(roomStore store.RoomStore, hub *presence.Hub, grace time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		store: roomStore,
		hub:   hub,
		grace: grace,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. playerId is optional:
// without one the connection is an anonymous observer that can never be
// evicted by presence.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.URL.Query().Get("roomCode"))
	if roomCode == "" {
		http.Error(w, "roomCode is required", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("playerId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	roomSync := realtime.New(h.store, h.hub, h.logger, roomCode, playerID, realtime.Options{
		GracePeriod: h.grace,
	})

	client := NewClient(conn, roomSync, playerID, h.logger)
	roomSync.OnRoom(client.SendRoom)
	roomSync.OnGone(client.SendGone)

	room, err := roomSync.Start(r.Context())
	if err != nil {
		// Write pump is not running yet, write the error directly
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		conn.WriteJSON(NewServerMessage(MsgError, &ErrorPayload{
			Code:    ErrCodeRoomNotFound,
			Message: "Room not found",
		}))
		conn.Close()
		return
	}

	h.logger.Info("websocket connected",
		"roomCode", roomCode,
		"playerID", playerID,
	)

	client.Send(NewServerMessage(MsgConnected, room))
	client.Run()
}
