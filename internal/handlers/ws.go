package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/services"
	"icebreaker-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type WSHandler struct {
	hub             *ws.Hub
	chatService     *services.ChatService
	questionService *services.QuestionService
}

func NewWSHandler(hub *ws.Hub, chatService *services.ChatService, questionService *services.QuestionService) *WSHandler {
	return &WSHandler{hub: hub, chatService: chatService, questionService: questionService}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket godoc
// @Summary      Realtime connection for presence, chat and game events
// @Tags         websocket
// @Router       /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "handlers.ws").Msg("websocket upgrade failed")
		return
	}

	client := h.hub.Register(conn)
	defer h.hub.Disconnect(client)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(client, data)
	}
}

func (h *WSHandler) dispatch(client *ws.Client, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "handlers.ws").Msg("bad event json")
		return
	}

	switch env.Type {
	case "authenticate":
		h.handleAuthenticate(client, data)
	case "join_room":
		h.handleJoinRoom(client, data)
	case "leave_room":
		h.handleLeaveRoom(client, data)
	case "chat_message":
		h.handleChatMessage(client, data)
	case "typing_start":
		h.handleTyping(client, data, true)
	case "typing_stop":
		h.handleTyping(client, data, false)
	case "new_answer":
		h.handleNewAnswer(client, data)
	default:
		log.Warn().Str("module", "handlers.ws").Str("event", env.Type).Msg("unknown event")
	}
}

func (h *WSHandler) handleAuthenticate(client *ws.Client, data []byte) {
	var p struct {
		UserID      uint   `json:"user_id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "handlers.ws").Msg("bad authenticate payload")
		return
	}
	if p.UserID == 0 {
		// No identity supplied; ignore rather than error, matching the
		// fire-and-forget nature of the channel.
		log.Warn().Str("module", "handlers.ws").Msg("authenticate without user_id")
		return
	}

	h.hub.Authenticate(client, ws.Identity{UserID: p.UserID, DisplayName: p.DisplayName})
	h.hub.Send(client, "auth_success", gin.H{
		"message": "successfully authenticated",
		"user_id": p.UserID,
	})
}

func (h *WSHandler) handleJoinRoom(client *ws.Client, data []byte) {
	var p struct {
		RoomID uint `json:"room_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == 0 {
		log.Warn().Str("module", "handlers.ws").Msg("bad join_room payload")
		return
	}

	if err := h.hub.JoinRoom(client, p.RoomID); err != nil {
		h.hub.Send(client, "error", gin.H{"error": "authenticate before joining a room"})
	}
}

func (h *WSHandler) handleLeaveRoom(client *ws.Client, data []byte) {
	var p struct {
		RoomID uint `json:"room_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == 0 {
		log.Warn().Str("module", "handlers.ws").Msg("bad leave_room payload")
		return
	}
	h.hub.LeaveRoom(client, p.RoomID)
}

// handleChatMessage relays a chat message to the room: best-effort persist,
// then broadcast the durable record, or a placeholder tagged saved=false
// when storage failed. The sender hears its own message back and reconciles
// the optimistic copy by temp_id, then by id.
func (h *WSHandler) handleChatMessage(client *ws.Client, data []byte) {
	var p struct {
		RoomID  uint   `json:"room_id"`
		Message string `json:"message"`
		TempID  string `json:"temp_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == 0 {
		log.Warn().Str("module", "handlers.ws").Msg("bad chat_message payload")
		return
	}

	identity, ok := h.hub.Identity(client)
	if !ok {
		log.Warn().Str("module", "handlers.ws").Msg("chat_message from unauthenticated client")
		return
	}

	msg, err := h.chatService.SaveMessage(p.RoomID, identity.UserID, p.Message)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidState) {
			return
		}
		log.Error().Err(err).Str("module", "handlers.ws").Uint("room_id", p.RoomID).Msg("chat persistence failed, broadcasting unsaved")
		h.hub.BroadcastToRoom(p.RoomID, "new_message", gin.H{
			"id":        "temp_" + uuid.NewString(),
			"temp_id":   p.TempID,
			"user_id":   identity.UserID,
			"user_name": identity.DisplayName,
			"message":   p.Message,
			"timestamp": time.Now(),
			"saved":     false,
		})
		return
	}

	h.hub.BroadcastToRoom(p.RoomID, "new_message", gin.H{
		"id":        msg.ID,
		"temp_id":   p.TempID,
		"user_id":   msg.UserID,
		"user_name": msg.User.DisplayName,
		"message":   msg.Message,
		"timestamp": msg.CreatedAt,
		"user":      msg.User,
		"saved":     true,
	})
}

func (h *WSHandler) handleTyping(client *ws.Client, data []byte, start bool) {
	var p struct {
		RoomID uint `json:"room_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == 0 {
		return
	}

	identity, ok := h.hub.Identity(client)
	if !ok {
		return
	}

	if start {
		h.hub.BroadcastToRoomExcept(p.RoomID, client, "user_typing", gin.H{
			"user_id":   identity.UserID,
			"user_name": identity.DisplayName,
		})
		return
	}
	h.hub.BroadcastToRoomExcept(p.RoomID, client, "user_stopped_typing", gin.H{
		"user_id": identity.UserID,
	})
}

// handleNewAnswer tells the rest of the room someone answered an icebreaker
// question, with a short preview and the updated answer count.
func (h *WSHandler) handleNewAnswer(client *ws.Client, data []byte) {
	var p struct {
		RoomID       uint   `json:"room_id"`
		QuestionID   uint   `json:"question_id"`
		QuestionText string `json:"question_text"`
		AnswerText   string `json:"answer_text"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == 0 {
		return
	}

	identity, ok := h.hub.Identity(client)
	if !ok {
		return
	}

	preview := truncateAnswerPreview(p.AnswerText)
	h.hub.BroadcastToRoomExcept(p.RoomID, client, "answer_notification", gin.H{
		"user_id":       identity.UserID,
		"user_name":     identity.DisplayName,
		"question_text": p.QuestionText,
		"answer_text":   preview,
		"timestamp":     time.Now(),
	})
	h.hub.BroadcastToRoom(p.RoomID, "answer_count_update", gin.H{
		"room_id": p.RoomID,
		"count":   h.questionService.AnswerCount(p.RoomID),
	})
}
