package services

import (
	"fmt"
	"math/rand"
	"time"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

func (s *QuestionService) ListQuestions(category string, level, limit int, shuffle bool) ([]models.Question, error) {
	query := s.db.Model(&models.Question{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if level > 0 {
		query = query.Where("level = ?", level)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}

	if shuffle {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if limit <= 0 {
		limit = 10
	}
	if len(questions) > limit {
		questions = questions[:limit]
	}
	return questions, nil
}

// RandomQuestion picks one question, skipping ids the caller has seen.
func (s *QuestionService) RandomQuestion(level int, excludeIDs []uint) (*models.Question, error) {
	query := s.db.Model(&models.Question{})
	if level > 0 {
		query = query.Where("level = ?", level)
	}
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var questions []models.Question
	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions available", apperr.ErrNoContent)
	}
	return &questions[rand.Intn(len(questions))], nil
}

func (s *QuestionService) SaveAnswer(roomID, questionID, userID uint, text string) (*models.Answer, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		return nil, fmt.Errorf("%w: question", apperr.ErrNotFound)
	}

	answer := models.Answer{
		RoomID:     roomID,
		QuestionID: questionID,
		UserID:     userID,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := s.db.Create(&answer).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	return &answer, nil
}

func (s *QuestionService) AnswerCount(roomID uint) int64 {
	var count int64
	s.db.Model(&models.Answer{}).Where("room_id = ?", roomID).Count(&count)
	return count
}

// DrawBalanceQuestions returns up to limit paired-choice prompts in stable
// (primary key) order. One draw backs one game session.
func (s *QuestionService) DrawBalanceQuestions(limit int) ([]models.BalanceQuestion, error) {
	var questions []models.BalanceQuestion
	if err := s.db.Order("id ASC").Limit(limit).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	return questions, nil
}
