package models

import "time"

// Question is an icebreaker prompt answered inside a room.
type Question struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	Category string `gorm:"size:50;index" json:"category"`
	Level    int    `gorm:"not null;default:1;index" json:"level"`
}

// Answer is a member's free-form answer to a Question within a room.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoomID     uint      `gorm:"not null;index" json:"room_id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// BalanceQuestion is a paired-choice prompt used by game sessions.
type BalanceQuestion struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Text    string `gorm:"type:text;not null" json:"text"`
	OptionA string `gorm:"size:255;not null" json:"option_a"`
	OptionB string `gorm:"size:255;not null" json:"option_b"`
}
