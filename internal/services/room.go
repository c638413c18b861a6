package services

import (
	"fmt"
	"math/rand"
	"time"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/models"

	"gorm.io/gorm"
)

const roomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type RoomService struct {
	db *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{db: db}
}

func (s *RoomService) CreateRoom(userID uint, name, roomType string) (*models.Room, error) {
	room := models.Room{
		Code:      s.generateUniqueCode(),
		Name:      name,
		Type:      roomType,
		CreatedBy: userID,
		IsActive:  true,
	}
	if err := s.db.Create(&room).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	member := models.RoomMember{
		RoomID:   room.ID,
		UserID:   userID,
		Role:     models.RoomRoleOwner,
		JoinedAt: time.Now(),
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	return &room, nil
}

func (s *RoomService) JoinRoom(code string, userID uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("code = ? AND is_active = ?", code, true).First(&room).Error; err != nil {
		return nil, fmt.Errorf("%w: room", apperr.ErrNotFound)
	}

	var existing models.RoomMember
	if err := s.db.Where("room_id = ? AND user_id = ?", room.ID, userID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: already a member", apperr.ErrConflict)
	}

	member := models.RoomMember{
		RoomID:   room.ID,
		UserID:   userID,
		Role:     models.RoomRoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	return &room, nil
}

func (s *RoomService) MyRooms(userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ? AND rooms.is_active = ?", userID, true).
		Order("rooms.created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetRoom returns the room with its member list. Only members may look.
func (s *RoomService) GetRoom(roomID, userID uint) (*models.Room, error) {
	if !s.IsMember(roomID, userID) {
		return nil, fmt.Errorf("%w: not a member of this room", apperr.ErrForbidden)
	}

	var room models.Room
	if err := s.db.Preload("Members.User").First(&room, roomID).Error; err != nil {
		return nil, fmt.Errorf("%w: room", apperr.ErrNotFound)
	}
	return &room, nil
}

// DeleteRoom removes the room and everything scoped to it. Owner only.
func (s *RoomService) DeleteRoom(roomID, userID uint) error {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return fmt.Errorf("%w: room", apperr.ErrNotFound)
	}
	if room.CreatedBy != userID {
		return fmt.Errorf("%w: only the room owner can delete the room", apperr.ErrForbidden)
	}

	s.db.Where("room_id = ?", roomID).Delete(&models.RoomMember{})
	s.db.Where("room_id = ?", roomID).Delete(&models.ChatMessage{})
	s.db.Where("room_id = ?", roomID).Delete(&models.Answer{})
	if err := s.db.Delete(&room).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func (s *RoomService) LeaveRoom(roomID, userID uint) error {
	var member models.RoomMember
	if err := s.db.Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error; err != nil {
		return fmt.Errorf("%w: not a member of this room", apperr.ErrNotFound)
	}
	if member.Role == models.RoomRoleOwner {
		return fmt.Errorf("%w: room owner cannot leave, delete the room instead", apperr.ErrInvalidState)
	}
	if err := s.db.Delete(&member).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func (s *RoomService) IsMember(roomID, userID uint) bool {
	var count int64
	s.db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count)
	return count > 0
}

func (s *RoomService) ListMembers(roomID uint) ([]models.RoomMember, error) {
	var members []models.RoomMember
	s.db.Where("room_id = ?", roomID).Preload("User").Order("joined_at ASC").Find(&members)
	return members, nil
}

func (s *RoomService) generateUniqueCode() string {
	for {
		code := make([]byte, 8)
		for i := range code {
			code[i] = roomCodeChars[rand.Intn(len(roomCodeChars))]
		}
		var count int64
		s.db.Model(&models.Room{}).
			Where("code = ? AND is_active = ?", string(code), true).
			Count(&count)
		if count == 0 {
			return string(code)
		}
	}
}
