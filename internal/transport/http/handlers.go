package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"wordimposter/internal/domain"
	"wordimposter/internal/words"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body for room creation
type CreateRoomRequest struct {
	HostName string `json:"hostName"`
	Theme    string `json:"theme"`
	GameMode string `json:"gameMode"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	Room       domain.Room `json:"room"`
	InviteLink string      `json:"inviteLink"`
}

// JoinRequest is the body for joining a room
type JoinRequest struct {
	Name string `json:"name"`
}

// JoinResponse is the response for joining a room
type JoinResponse struct {
	Room   domain.Room   `json:"room"`
	Player domain.Player `json:"player"`
}

// PlayerRequest identifies the acting player
type PlayerRequest struct {
	PlayerID string `json:"playerId"`
}

// VoteRequest is the body for casting a vote
type VoteRequest struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

// ResetRequest is the body for resetting a room
type ResetRequest struct {
	Theme     string `json:"theme,omitempty"`
	Autostart bool   `json:"autostart,omitempty"`
}

// RoomExistsResponse is the response for checking if a room exists
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// handleCreateRoom handles POST /api/rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	room, err := s.service.CreateRoom(r.Context(), req.HostName, req.Theme, domain.GameMode(req.GameMode))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &CreateRoomResponse{
		Room:       room,
		InviteLink: inviteLink(r, room.ID),
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.service.GetRoom(r.Context(), roomCode(r))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, room)
}

// handleRoomExists handles GET /api/rooms/{roomCode}/exists
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	_, err := s.service.GetRoom(r.Context(), roomCode(r))
	s.sendSuccess(w, &RoomExistsResponse{Exists: err == nil})
}

// handleRoomQR handles GET /api/rooms/{roomCode}/qr, serving a PNG that
// encodes the invite link
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	if _, err := s.service.GetRoom(r.Context(), code); err != nil {
		s.sendDomainError(w, err)
		return
	}

	png, err := qrcode.Encode(inviteLink(r, code), qrcode.Medium, 256)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "QR_FAILED", "Failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleJoin handles POST /api/rooms/{roomCode}/join
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	room, player, err := s.service.JoinRoom(r.Context(), roomCode(r), req.Name)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, &JoinResponse{Room: room, Player: player})
}

// handleLeave handles POST /api/rooms/{roomCode}/leave
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	room, err := s.service.LeaveRoom(r.Context(), roomCode(r), req.PlayerID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, room)
}

// handleStart handles POST /api/rooms/{roomCode}/start
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	room, err := s.service.StartGame(r.Context(), roomCode(r), req.PlayerID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, room)
}

// handleNextPhase handles POST /api/rooms/{roomCode}/next-phase
func (s *Server) handleNextPhase(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	room, err := s.service.AdvancePhase(r.Context(), roomCode(r), req.PlayerID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, room)
}

// handleVote handles POST /api/rooms/{roomCode}/votes
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	room, err := s.service.SubmitVote(r.Context(), roomCode(r), req.VoterID, req.TargetID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, room)
}

// handleNextPlayer handles POST /api/rooms/{roomCode}/next-player
func (s *Server) handleNextPlayer(w http.ResponseWriter, r *http.Request) {
	room, err := s.service.NextPlayer(r.Context(), roomCode(r))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, room)
}

// handleReset handles POST /api/rooms/{roomCode}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	room, err := s.service.ResetGame(r.Context(), roomCode(r), req.Theme, req.Autostart)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, room)
}

// handleResults handles GET /api/rooms/{roomCode}/results
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RoundResults(r.Context(), roomCode(r))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, result)
}

// handlePlayerState handles GET /api/rooms/{roomCode}/players/{playerId}/state
func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.PlayerState(r.Context(), roomCode(r), r.PathValue("playerId"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, state)
}

// handleThemes handles GET /api/themes
func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, words.Themes())
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{Status: "ok"})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.GetStats(r.Context())
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, stats)
}

func roomCode(r *http.Request) string {
	return strings.ToUpper(r.PathValue("roomCode"))
}

func inviteLink(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/join/" + code
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// sendDomainError maps a *domain.Error onto an HTTP status and user-facing
// message
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	switch derr.Kind {
	case domain.KindRoomNotFound, domain.KindRoomExpired:
		status, message = http.StatusNotFound, "Room not found"
	case domain.KindPlayerNotFound:
		status, message = http.StatusNotFound, "Player not found"
	case domain.KindGameInProgress:
		status, message = http.StatusConflict, "Game has already started"
	case domain.KindRoomLocked:
		status, message = http.StatusConflict, "Room is locked"
	case domain.KindRoomFull:
		status, message = http.StatusConflict, "Room is full"
	case domain.KindPlayerAlreadyExists:
		status, message = http.StatusConflict, "That name is already taken"
	case domain.KindInvalidPlayerName:
		status, message = http.StatusBadRequest, "A name is required"
	case domain.KindNotHost:
		status, message = http.StatusForbidden, "Only the host can do that"
	case domain.KindInvalidGamePhase:
		status, message = http.StatusConflict, "That action is not valid right now"
	case domain.KindInsufficientPlayers:
		status, message = http.StatusConflict, "Not enough players to start"
	case domain.KindInvalidVoteTarget:
		status, message = http.StatusBadRequest, "Invalid vote target"
	case domain.KindValidation:
		status, message = http.StatusBadRequest, "Invalid request"
	}

	s.sendError(w, status, string(derr.Kind), message)
}
