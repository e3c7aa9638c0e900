package ws

import "time"

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgPing MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected   MessageType = "connected"
	MsgRoomUpdate  MessageType = "room_update"
	MsgRoomDeleted MessageType = "room_deleted"
	MsgError       MessageType = "error"
	MsgPong        MessageType = "pong"
)

// ClientMessage represents a message from client to server. Game actions go
// through the HTTP API; the socket only carries liveness traffic inbound.
type ClientMessage struct {
	Type MessageType `json:"type"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorPayload is the payload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
