package handlers

import (
	"errors"
	"net/http"

	"icebreaker-backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// respondError maps the service error taxonomy to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrInsufficientPlayers):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNoContent),
		errors.Is(err, apperr.ErrPersistence):
		status = http.StatusInternalServerError
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint("user_id")
}
