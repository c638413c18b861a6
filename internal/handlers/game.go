package handlers

import (
	"net/http"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService *services.GameService
	roomService *services.RoomService
}

func NewGameHandler(gameService *services.GameService, roomService *services.RoomService) *GameHandler {
	return &GameHandler{gameService: gameService, roomService: roomService}
}

type CreateGameRequest struct {
	RoomID uint `json:"room_id" binding:"required"`
}

// Create godoc
// @Summary      Create a game session in a room
// @Tags         games
// @Security     BearerAuth
// @Param        request body CreateGameRequest true "Create payload"
// @Success      201 {object} map[string]interface{}
// @Router       /api/games/create [post]
func (h *GameHandler) Create(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := currentUserID(c)
	if !h.roomService.IsMember(req.RoomID, userID) {
		respondError(c, apperr.ErrForbidden)
		return
	}

	session, err := h.gameService.CreateGame(req.RoomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *GameHandler) Join(c *gin.Context) {
	sessionID, err := parseID(c, "sessionId")
	if err != nil {
		return
	}

	session, participants, err := h.gameService.JoinGame(sessionID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":      session,
		"participants": participants,
	})
}

func (h *GameHandler) Get(c *gin.Context) {
	sessionID, err := parseID(c, "sessionId")
	if err != nil {
		return
	}

	session, err := h.gameService.GetSession(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Start godoc
// @Summary      Start a waiting game (creator only, needs 2+ players)
// @Tags         games
// @Security     BearerAuth
// @Param        sessionId path int true "Session ID"
// @Router       /api/games/start/{sessionId} [post]
func (h *GameHandler) Start(c *gin.Context) {
	sessionID, err := parseID(c, "sessionId")
	if err != nil {
		return
	}

	session, err := h.gameService.StartGame(sessionID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":        session,
		"first_question": session.Questions[0].Question,
		"participants":   session.Participants,
	})
}

type GameAnswerRequest struct {
	QuestionIndex *int   `json:"question_index" binding:"required"`
	Answer        string `json:"answer" binding:"required"`
}

func (h *GameHandler) Answer(c *gin.Context) {
	sessionID, err := parseID(c, "sessionId")
	if err != nil {
		return
	}

	var req GameAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	allAnswered, err := h.gameService.SubmitAnswer(sessionID, currentUserID(c), *req.QuestionIndex, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"all_answered": allAnswered})
}

func (h *GameHandler) Next(c *gin.Context) {
	sessionID, err := parseID(c, "sessionId")
	if err != nil {
		return
	}

	result, err := h.gameService.AdvanceRound(sessionID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) Delete(c *gin.Context) {
	sessionID, err := parseID(c, "sessionId")
	if err != nil {
		return
	}

	if err := h.gameService.DeleteGame(sessionID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "game session deleted"})
}

func (h *GameHandler) ActiveForRoom(c *gin.Context) {
	roomID, err := parseID(c, "roomId")
	if err != nil {
		return
	}

	sessions, err := h.gameService.ActiveSessions(roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Cleanup removes stale waiting sessions on demand; the background sweep
// does the same on a timer.
func (h *GameHandler) Cleanup(c *gin.Context) {
	cleaned, err := h.gameService.CleanupStale(services.StaleSessionRetention)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleaned": cleaned})
}
