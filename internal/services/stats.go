package services

import (
	"icebreaker-backend/internal/models"

	"gorm.io/gorm"
)

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type RoomStats struct {
	TotalAnswers    int64      `json:"total_answers"`
	MatchingAnswers int64      `json:"matching_answers"`
	TotalGames      int64      `json:"total_games"`
	MessageCount    int64      `json:"message_count"`
	DaysActive      int64      `json:"days_active"`
	Scores          RoomScores `json:"scores"`
}

type RoomScores struct {
	Total         int `json:"total"`
	Empathy       int `json:"empathy"`
	Activity      int `json:"activity"`
	Communication int `json:"communication"`
	Consistency   int `json:"consistency"`
	Level         int `json:"level"`
}

// GetRoomStats derives the room's intimacy score from its activity counters.
func (s *StatsService) GetRoomStats(roomID uint) (*RoomStats, error) {
	stats := &RoomStats{}

	s.db.Model(&models.Answer{}).Where("room_id = ?", roomID).Count(&stats.TotalAnswers)
	s.db.Model(&models.GameSession{}).
		Where("room_id = ? AND status = ?", roomID, models.GameStatusFinished).
		Count(&stats.TotalGames)
	s.db.Model(&models.ChatMessage{}).Where("room_id = ?", roomID).Count(&stats.MessageCount)
	s.db.Model(&models.ChatMessage{}).
		Where("room_id = ?", roomID).
		Distinct("date(created_at)").
		Count(&stats.DaysActive)

	matches, err := s.matchingRounds(roomID)
	if err != nil {
		return nil, err
	}
	stats.MatchingAnswers = matches

	stats.Scores = calculateScores(stats)
	return stats, nil
}

// matchingRounds counts rounds in the room's finished games where every
// participant picked the same option.
func (s *StatsService) matchingRounds(roomID uint) (int64, error) {
	var sessions []models.GameSession
	err := s.db.Where("room_id = ? AND status = ?", roomID, models.GameStatusFinished).
		Preload("Participants.Answers").
		Find(&sessions).Error
	if err != nil {
		return 0, err
	}

	var matches int64
	for _, session := range sessions {
		if len(session.Participants) < 2 {
			continue
		}
		byRound := make(map[int][]string)
		for _, p := range session.Participants {
			for _, a := range p.Answers {
				byRound[a.RoundIndex] = append(byRound[a.RoundIndex], a.Choice)
			}
		}
		for _, choices := range byRound {
			if len(choices) < len(session.Participants) {
				continue
			}
			same := true
			for _, choice := range choices[1:] {
				if choice != choices[0] {
					same = false
					break
				}
			}
			if same {
				matches++
			}
		}
	}
	return matches, nil
}

func calculateScores(stats *RoomStats) RoomScores {
	answerScore := int(stats.TotalAnswers) * 10
	matchScore := int(stats.MatchingAnswers) * 20
	gameScore := int(stats.TotalGames) * 15
	chatScore := min(int(stats.MessageCount)*2, 100)
	consistencyScore := min(int(stats.DaysActive)*5, 100)

	total := answerScore + matchScore + gameScore + chatScore + consistencyScore

	empathyBase := max(int(stats.TotalAnswers)*20, 1)
	scores := RoomScores{
		Total:         total,
		Empathy:       min(matchScore*100/empathyBase, 100),
		Activity:      min((answerScore+gameScore)*100/500, 100),
		Communication: chatScore,
		Consistency:   consistencyScore,
	}
	scores.Level = total/100 + 1
	return scores
}
