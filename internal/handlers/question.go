package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/services"
	"icebreaker-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

const answerPreviewLen = 50

// truncateAnswerPreview shortens an answer for the room notification.
// Truncation counts characters, not bytes, so a multibyte rune is never
// split mid-sequence.
func truncateAnswerPreview(text string) string {
	r := []rune(text)
	if len(r) <= answerPreviewLen {
		return text
	}
	return string(r[:answerPreviewLen]) + "..."
}

type QuestionHandler struct {
	questionService *services.QuestionService
	roomService     *services.RoomService
	hub             *ws.Hub
}

func NewQuestionHandler(questionService *services.QuestionService, roomService *services.RoomService, hub *ws.Hub) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, roomService: roomService, hub: hub}
}

// List godoc
// @Summary      List icebreaker questions
// @Tags         questions
// @Security     BearerAuth
// @Param        category query string false "Category filter"
// @Param        level query int false "Level filter"
// @Param        limit query int false "Max questions"
// @Param        random query bool false "Shuffle results"
// @Router       /api/questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	level, _ := strconv.Atoi(c.Query("level"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	shuffle := c.Query("random") == "true"

	questions, err := h.questionService.ListQuestions(c.Query("category"), level, limit, shuffle)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *QuestionHandler) Random(c *gin.Context) {
	level, _ := strconv.Atoi(c.Query("level"))

	var excludeIDs []uint
	if raw := c.Query("exclude_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil {
				excludeIDs = append(excludeIDs, uint(id))
			}
		}
	}

	question, err := h.questionService.RandomQuestion(level, excludeIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": question})
}

type SubmitAnswerRequest struct {
	RoomID uint   `json:"room_id" binding:"required"`
	Text   string `json:"text" binding:"required,min=1"`
}

// SubmitAnswer persists a member's answer and notifies the room with a
// preview plus the updated answer count.
func (h *QuestionHandler) SubmitAnswer(c *gin.Context) {
	questionID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := currentUserID(c)
	if !h.roomService.IsMember(req.RoomID, userID) {
		respondError(c, apperr.ErrForbidden)
		return
	}

	answer, err := h.questionService.SaveAnswer(req.RoomID, questionID, userID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	preview := truncateAnswerPreview(req.Text)
	h.hub.BroadcastToRoom(req.RoomID, "answer_notification", gin.H{
		"user_id":     userID,
		"question_id": questionID,
		"preview":     preview,
	})
	h.hub.BroadcastToRoom(req.RoomID, "answer_count_update", gin.H{
		"room_id": req.RoomID,
		"count":   h.questionService.AnswerCount(req.RoomID),
	})

	c.JSON(http.StatusCreated, gin.H{"answer": answer})
}
