package models

import "time"

const (
	GameStatusWaiting  = "waiting"
	GameStatusPlaying  = "playing"
	GameStatusFinished = "finished"
)

type GameSession struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	RoomID       uint              `gorm:"not null;index" json:"room_id"`
	CreatedBy    uint              `gorm:"not null;index" json:"created_by"`
	Status       string            `gorm:"size:20;not null;default:'waiting';index" json:"status"`
	CurrentRound int               `gorm:"not null;default:0" json:"current_round"`
	Questions    []GameQuestion    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Participants []GameParticipant `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
}

// GameQuestion pins one drawn BalanceQuestion to a round of a session.
type GameQuestion struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SessionID  uint            `gorm:"not null;uniqueIndex:idx_session_round" json:"session_id"`
	RoundIndex int             `gorm:"not null;uniqueIndex:idx_session_round" json:"round_index"`
	QuestionID uint            `gorm:"not null" json:"question_id"`
	Question   BalanceQuestion `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

type GameParticipant struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	SessionID uint         `gorm:"not null;uniqueIndex:idx_session_user" json:"session_id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_session_user" json:"user_id"`
	User      User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Answers   []GameAnswer `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	JoinedAt  time.Time    `json:"joined_at"`
}

// GameAnswer holds one participant's choice for one round. Resubmitting a
// round overwrites the existing row rather than creating a second one.
type GameAnswer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID uint      `gorm:"not null;uniqueIndex:idx_participant_round" json:"participant_id"`
	RoundIndex    int       `gorm:"not null;uniqueIndex:idx_participant_round" json:"round_index"`
	Choice        string    `gorm:"size:255;not null" json:"choice"`
	AnsweredAt    time.Time `json:"answered_at"`
}
