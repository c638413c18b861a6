package handlers

import (
	"net/http"
	"strconv"
	"time"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService *services.ChatService
	roomService *services.RoomService
}

func NewChatHandler(chatService *services.ChatService, roomService *services.RoomService) *ChatHandler {
	return &ChatHandler{chatService: chatService, roomService: roomService}
}

type SendMessageRequest struct {
	RoomID  uint   `json:"room_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Send godoc
// @Summary      Persist a chat message
// @Tags         chat
// @Security     BearerAuth
// @Param        request body SendMessageRequest true "Message payload"
// @Success      201 {object} map[string]interface{}
// @Router       /api/chat/send [post]
func (h *ChatHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := currentUserID(c)
	if !h.roomService.IsMember(req.RoomID, userID) {
		respondError(c, apperr.ErrForbidden)
		return
	}

	msg, err := h.chatService.SaveMessage(req.RoomID, userID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// History returns paged messages for a room, oldest first.
func (h *ChatHandler) History(c *gin.Context) {
	roomID, err := parseID(c, "id")
	if err != nil {
		return
	}

	userID := currentUserID(c)
	if !h.roomService.IsMember(roomID, userID) {
		respondError(c, apperr.ErrForbidden)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before timestamp"})
			return
		}
		before = &t
	}

	messages, hasMore, err := h.chatService.History(roomID, limit, before)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"has_more": hasMore,
	})
}

func (h *ChatHandler) RecentCount(c *gin.Context) {
	roomID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid since timestamp"})
			return
		}
		since = &t
	}

	count, err := h.chatService.RecentCount(roomID, since)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
