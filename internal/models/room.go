package models

import "time"

type Room struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"size:8;uniqueIndex" json:"room_code"`
	Name      string       `gorm:"size:100;not null" json:"room_name"`
	Type      string       `gorm:"size:20;not null;default:'couple'" json:"room_type"`
	CreatedBy uint         `gorm:"not null;index" json:"created_by"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	Members   []RoomMember `gorm:"foreignKey:RoomID" json:"members,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

const (
	RoomRoleOwner  = "owner"
	RoomRoleMember = "member"
)

type RoomMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RoomID   uint      `gorm:"not null;uniqueIndex:idx_room_user" json:"room_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_room_user" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     string    `gorm:"size:10;not null;default:'member'" json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
