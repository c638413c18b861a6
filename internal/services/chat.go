package services

import (
	"fmt"
	"strings"
	"time"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/models"

	"gorm.io/gorm"
)

type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// SaveMessage persists a chat message and returns it with the sender
// profile loaded. Empty or whitespace-only text is rejected before any
// storage call.
func (s *ChatService) SaveMessage(roomID, userID uint, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", apperr.ErrInvalidState)
	}

	msg := models.ChatMessage{
		RoomID:    roomID,
		UserID:    userID,
		Message:   text,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	s.db.Preload("User").First(&msg, msg.ID)
	return &msg, nil
}

// History returns up to limit messages before the given timestamp, oldest
// first, plus whether older messages remain.
func (s *ChatService) History(roomID uint, limit int, before *time.Time) ([]models.ChatMessage, bool, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.Where("room_id = ?", roomID).
		Preload("User").
		Order("created_at DESC").
		Limit(limit)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []models.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, false, err
	}

	// Newest-first from the query; flip so the latest message sits last.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, len(messages) == limit, nil
}

func (s *ChatService) RecentCount(roomID uint, since *time.Time) (int64, error) {
	query := s.db.Model(&models.ChatMessage{}).Where("room_id = ?", roomID)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
