package handlers

import (
	"net/http"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService *services.StatsService
	roomService  *services.RoomService
}

func NewStatsHandler(statsService *services.StatsService, roomService *services.RoomService) *StatsHandler {
	return &StatsHandler{statsService: statsService, roomService: roomService}
}

// GetRoomStats godoc
// @Summary      Room intimacy score
// @Tags         stats
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Router       /api/stats/room/{id} [get]
func (h *StatsHandler) GetRoomStats(c *gin.Context) {
	roomID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if !h.roomService.IsMember(roomID, currentUserID(c)) {
		respondError(c, apperr.ErrForbidden)
		return
	}

	stats, err := h.statsService.GetRoomStats(roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
