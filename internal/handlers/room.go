package handlers

import (
	"net/http"
	"strconv"

	"icebreaker-backend/internal/services"
	"icebreaker-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *services.RoomService
	hub         *ws.Hub
}

func NewRoomHandler(roomService *services.RoomService, hub *ws.Hub) *RoomHandler {
	return &RoomHandler{roomService: roomService, hub: hub}
}

type CreateRoomRequest struct {
	Name string `json:"room_name" binding:"required,min=1,max=100"`
	Type string `json:"room_type" binding:"max=20"`
}

type JoinRoomRequest struct {
	Code string `json:"room_code" binding:"required,len=8"`
}

// CreateRoom godoc
// @Summary      Create a room
// @Tags         rooms
// @Security     BearerAuth
// @Param        request body CreateRoomRequest true "Room payload"
// @Success      201 {object} map[string]interface{}
// @Router       /api/rooms/create [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(currentUserID(c), req.Name, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// JoinRoom godoc
// @Summary      Join a room by invite code
// @Tags         rooms
// @Security     BearerAuth
// @Param        request body JoinRoomRequest true "Join payload"
// @Success      200 {object} map[string]interface{}
// @Router       /api/rooms/join [post]
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.roomService.JoinRoom(req.Code, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *RoomHandler) MyRooms(c *gin.Context) {
	rooms, err := h.roomService.MyRooms(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := parseID(c, "id")
	if err != nil {
		return
	}

	room, err := h.roomService.GetRoom(roomID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

// DeleteRoom godoc
// @Summary      Delete a room (owner only)
// @Tags         rooms
// @Security     BearerAuth
// @Param        id path int true "Room ID"
// @Success      200 {object} MessageResponse
// @Router       /api/rooms/{id} [delete]
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if err := h.roomService.DeleteRoom(roomID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastToRoom(roomID, "room_deleted", gin.H{"room_id": roomID})

	c.JSON(http.StatusOK, MessageResponse{Message: "room deleted"})
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	roomID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if err := h.roomService.LeaveRoom(roomID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "left room"})
}

func parseID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param})
		return 0, err
	}
	return uint(id), nil
}
