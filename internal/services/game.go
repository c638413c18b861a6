package services

import (
	"fmt"
	"sync"
	"time"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const roundsPerGame = 10

// Broadcaster delivers an event to every connection subscribed to a room.
// Satisfied by ws.Hub; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToRoom(roomID uint, event string, data any)
}

// BalanceQuestionSource supplies the paired-choice prompts a session plays
// through. Order must be stable within one call.
type BalanceQuestionSource interface {
	DrawBalanceQuestions(limit int) ([]models.BalanceQuestion, error)
}

// GameService drives game sessions from lobby to finish and owns the
// active-session directory.
type GameService struct {
	db          *gorm.DB
	broadcaster Broadcaster
	questions   BalanceQuestionSource
	directory   *SessionDirectory

	// createMu makes the conflict check and the insert one logical step.
	createMu sync.Mutex
}

func NewGameService(db *gorm.DB, broadcaster Broadcaster, questions BalanceQuestionSource) *GameService {
	return &GameService{
		db:          db,
		broadcaster: broadcaster,
		questions:   questions,
		directory:   NewSessionDirectory(),
	}
}

// CreateGame opens a waiting session for the room with the creator as first
// participant. At most one non-terminal session may exist per room.
func (s *GameService) CreateGame(roomID, userID uint) (*models.GameSession, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	if _, ok := s.directory.Active(roomID); ok {
		return nil, fmt.Errorf("%w: game already in progress", apperr.ErrConflict)
	}
	// Directory is process-local; re-adopt anything storage still holds.
	var existing models.GameSession
	err := s.db.Where("room_id = ? AND status <> ?", roomID, models.GameStatusFinished).
		First(&existing).Error
	if err == nil {
		s.directory.Register(roomID, existing.ID)
		return nil, fmt.Errorf("%w: game already in progress", apperr.ErrConflict)
	}

	session := models.GameSession{
		RoomID:    roomID,
		CreatedBy: userID,
		Status:    models.GameStatusWaiting,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	creator := models.GameParticipant{
		SessionID: session.ID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	if err := s.db.Create(&creator).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	s.directory.Register(roomID, session.ID)

	log.Info().Str("module", "services.game").Uint("session_id", session.ID).Uint("room_id", roomID).Msg("game created")
	s.broadcaster.BroadcastToRoom(roomID, "game_created", map[string]any{
		"session_id": session.ID,
		"created_by": userID,
	})

	session.Participants = []models.GameParticipant{creator}
	return &session, nil
}

// JoinGame enrolls a user while the session is still waiting. A repeat join
// is a no-op that returns the current roster.
func (s *GameService) JoinGame(sessionID, userID uint) (*models.GameSession, []models.GameParticipant, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != models.GameStatusWaiting {
		return nil, nil, fmt.Errorf("%w: game already started", apperr.ErrInvalidState)
	}

	var existing models.GameParticipant
	err = s.db.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&existing).Error
	if err == nil {
		roster, rerr := s.roster(sessionID)
		return session, roster, rerr
	}

	participant := models.GameParticipant{
		SessionID: sessionID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	if err := s.db.Create(&participant).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	roster, err := s.roster(sessionID)
	if err != nil {
		return nil, nil, err
	}

	s.broadcaster.BroadcastToRoom(session.RoomID, "player_joined", map[string]any{
		"session_id":   sessionID,
		"user_id":      userID,
		"participants": roster,
		"player_count": len(roster),
	})
	return session, roster, nil
}

// StartGame transitions waiting -> playing: creator only, at least two
// participants, and a non-empty question draw.
func (s *GameService) StartGame(sessionID, userID uint) (*models.GameSession, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatedBy != userID {
		return nil, fmt.Errorf("%w: only the creator can start the game", apperr.ErrForbidden)
	}
	if session.Status != models.GameStatusWaiting {
		return nil, fmt.Errorf("%w: game already started", apperr.ErrInvalidState)
	}

	roster, err := s.roster(sessionID)
	if err != nil {
		return nil, err
	}
	if len(roster) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players", apperr.ErrInsufficientPlayers)
	}

	questions, err := s.questions.DrawBalanceQuestions(roundsPerGame)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions available", apperr.ErrNoContent)
	}

	drawn := make([]models.GameQuestion, 0, len(questions))
	for i, q := range questions {
		drawn = append(drawn, models.GameQuestion{
			SessionID:  sessionID,
			RoundIndex: i,
			QuestionID: q.ID,
			Question:   q,
		})
	}
	if err := s.db.Create(&drawn).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	now := time.Now()
	session.Status = models.GameStatusPlaying
	session.CurrentRound = 0
	session.StartedAt = &now
	if err := s.db.Save(session).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	session.Questions = drawn
	session.Participants = roster

	log.Info().Str("module", "services.game").Uint("session_id", sessionID).Int("questions", len(drawn)).Msg("game started")
	s.broadcaster.BroadcastToRoom(session.RoomID, "game_started", map[string]any{
		"session_id":      sessionID,
		"question":        questions[0],
		"question_index":  0,
		"total_questions": len(questions),
		"participants":    roster,
	})
	return session, nil
}

// SubmitAnswer records a participant's choice for a round, overwriting any
// earlier choice for the same round. When the last outstanding participant
// answers, round_complete goes out exactly once.
func (s *GameService) SubmitAnswer(sessionID, userID uint, roundIndex int, choice string) (bool, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return false, err
	}

	var participant models.GameParticipant
	err = s.db.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&participant).Error
	if err != nil {
		return false, fmt.Errorf("%w: not a participant", apperr.ErrForbidden)
	}

	// State before the write decides whether completion is news.
	wasComplete, _, err := s.roundAnswers(sessionID, roundIndex)
	if err != nil {
		return false, err
	}

	var answer models.GameAnswer
	err = s.db.Where("participant_id = ? AND round_index = ?", participant.ID, roundIndex).
		First(&answer).Error
	if err == nil {
		answer.Choice = choice
		answer.AnsweredAt = time.Now()
		if err := s.db.Save(&answer).Error; err != nil {
			return false, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
		}
	} else {
		answer = models.GameAnswer{
			ParticipantID: participant.ID,
			RoundIndex:    roundIndex,
			Choice:        choice,
			AnsweredAt:    time.Now(),
		}
		if err := s.db.Create(&answer).Error; err != nil {
			return false, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
		}
	}

	isComplete, pairs, err := s.roundAnswers(sessionID, roundIndex)
	if err != nil {
		return false, err
	}

	s.broadcaster.BroadcastToRoom(session.RoomID, "answer_submitted", map[string]any{
		"session_id":     sessionID,
		"user_id":        userID,
		"question_index": roundIndex,
		"all_answered":   isComplete,
	})

	if isComplete && !wasComplete {
		s.broadcaster.BroadcastToRoom(session.RoomID, "round_complete", map[string]any{
			"session_id":     sessionID,
			"question_index": roundIndex,
			"answers":        pairs,
		})
	}
	return isComplete, nil
}

// AdvanceResult reports what advancing produced: either the next question
// or the finished flag with the final roster.
type AdvanceResult struct {
	Finished      bool                     `json:"finished"`
	QuestionIndex int                      `json:"question_index,omitempty"`
	Question      *models.BalanceQuestion  `json:"question,omitempty"`
	Participants  []models.GameParticipant `json:"participants,omitempty"`
}

// AdvanceRound moves a playing session to the next question, or finishes it
// when none remain. Creator only.
func (s *GameService) AdvanceRound(sessionID, userID uint) (*AdvanceResult, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatedBy != userID {
		return nil, fmt.Errorf("%w: only the creator can advance the game", apperr.ErrForbidden)
	}
	if session.Status != models.GameStatusPlaying {
		return nil, fmt.Errorf("%w: game is not in progress", apperr.ErrInvalidState)
	}

	var questions []models.GameQuestion
	err = s.db.Where("session_id = ?", sessionID).
		Preload("Question").
		Order("round_index ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	next := session.CurrentRound + 1
	if next >= len(questions) {
		now := time.Now()
		session.Status = models.GameStatusFinished
		session.EndedAt = &now
		if err := s.db.Save(session).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
		}
		s.directory.Unregister(session.RoomID, sessionID)

		roster, err := s.roster(sessionID)
		if err != nil {
			return nil, err
		}

		log.Info().Str("module", "services.game").Uint("session_id", sessionID).Msg("game finished")
		s.broadcaster.BroadcastToRoom(session.RoomID, "game_finished", map[string]any{
			"session_id":   sessionID,
			"participants": roster,
		})
		return &AdvanceResult{Finished: true, Participants: roster}, nil
	}

	session.CurrentRound = next
	if err := s.db.Save(session).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	question := questions[next].Question
	s.broadcaster.BroadcastToRoom(session.RoomID, "next_question", map[string]any{
		"session_id":     sessionID,
		"question_index": next,
		"question":       question,
	})
	return &AdvanceResult{QuestionIndex: next, Question: &question}, nil
}

// DeleteGame cancels and removes a session. Creator only, broadcast
// regardless of who is still around to hear it.
func (s *GameService) DeleteGame(sessionID, userID uint) error {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return err
	}
	if session.CreatedBy != userID {
		return fmt.Errorf("%w: only the creator can delete the game", apperr.ErrForbidden)
	}

	if err := s.removeSession(session); err != nil {
		return err
	}

	log.Info().Str("module", "services.game").Uint("session_id", sessionID).Msg("game deleted")
	s.broadcaster.BroadcastToRoom(session.RoomID, "game_cancelled", map[string]any{
		"session_id": sessionID,
	})
	return nil
}

// GetSession returns a session with participants and drawn questions.
func (s *GameService) GetSession(sessionID uint) (*models.GameSession, error) {
	var session models.GameSession
	err := s.db.Preload("Participants.User").
		Preload("Participants.Answers").
		Preload("Questions.Question").
		First(&session, sessionID).Error
	if err != nil {
		return nil, fmt.Errorf("%w: game session", apperr.ErrNotFound)
	}
	return &session, nil
}

// ActiveSessions lists the room's non-terminal sessions for display. The
// directory invariant keeps this at most one, but the query does not lean
// on that.
func (s *GameService) ActiveSessions(roomID uint) ([]models.GameSession, error) {
	var sessions []models.GameSession
	err := s.db.Where("room_id = ? AND status <> ?", roomID, models.GameStatusFinished).
		Preload("Participants.User").
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CleanupStale silently removes waiting sessions older than the retention
// window. No cancellation broadcast; this is batch housekeeping.
func (s *GameService) CleanupStale(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)

	var stale []models.GameSession
	err := s.db.Where("status = ? AND created_at < ?", models.GameStatusWaiting, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	for i := range stale {
		if err := s.removeSession(&stale[i]); err != nil {
			return 0, err
		}
	}
	if len(stale) > 0 {
		log.Info().Str("module", "services.game").Int("count", len(stale)).Msg("cleaned up stale sessions")
	}
	return len(stale), nil
}

func (s *GameService) loadSession(sessionID uint) (*models.GameSession, error) {
	var session models.GameSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, fmt.Errorf("%w: game session", apperr.ErrNotFound)
	}
	return &session, nil
}

func (s *GameService) roster(sessionID uint) ([]models.GameParticipant, error) {
	var participants []models.GameParticipant
	err := s.db.Where("session_id = ?", sessionID).
		Preload("User").
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}
	return participants, nil
}

type roundAnswer struct {
	UserID uint   `json:"user_id"`
	Answer string `json:"answer"`
}

// roundAnswers reports whether every current participant has answered the
// round, along with the recorded pairs.
func (s *GameService) roundAnswers(sessionID uint, roundIndex int) (bool, []roundAnswer, error) {
	var participants []models.GameParticipant
	err := s.db.Where("session_id = ?", sessionID).
		Preload("Answers", "round_index = ?", roundIndex).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	pairs := make([]roundAnswer, 0, len(participants))
	complete := len(participants) > 0
	for _, p := range participants {
		if len(p.Answers) == 0 {
			complete = false
			continue
		}
		pairs = append(pairs, roundAnswer{UserID: p.UserID, Answer: p.Answers[0].Choice})
	}
	return complete, pairs, nil
}

func (s *GameService) removeSession(session *models.GameSession) error {
	var participantIDs []uint
	s.db.Model(&models.GameParticipant{}).
		Where("session_id = ?", session.ID).
		Pluck("id", &participantIDs)

	if len(participantIDs) > 0 {
		s.db.Where("participant_id IN ?", participantIDs).Delete(&models.GameAnswer{})
	}
	s.db.Where("session_id = ?", session.ID).Delete(&models.GameParticipant{})
	s.db.Where("session_id = ?", session.ID).Delete(&models.GameQuestion{})
	if err := s.db.Delete(session).Error; err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
	}

	s.directory.Unregister(session.RoomID, session.ID)
	return nil
}
