package services

import (
	"testing"
	"time"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGameFixture(t *testing.T) (*gorm.DB, *GameService, *fakeBroadcaster) {
	t.Helper()
	db := newTestDB(t)
	bc := &fakeBroadcaster{}
	svc := NewGameService(db, bc, NewQuestionService(db))
	return db, svc, bc
}

func TestCreateGameSingleActiveSession(t *testing.T) {
	db, svc, bc := newGameFixture(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusWaiting, session.Status)
	require.Len(t, session.Participants, 1)
	require.Equal(t, alice.ID, session.Participants[0].UserID)
	require.Len(t, bc.named("game_created"), 1)

	_, err = svc.CreateGame(room.ID, bob.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateGameAdoptsSessionLeftInStorage(t *testing.T) {
	db, _, _ := newGameFixture(t)
	alice := createUser(t, db, "alice")
	room := createRoom(t, db, alice)

	orphan := models.GameSession{RoomID: room.ID, CreatedBy: alice.ID, Status: models.GameStatusWaiting}
	require.NoError(t, db.Create(&orphan).Error)

	// Fresh service simulates a restart; its directory starts empty.
	svc := NewGameService(db, &fakeBroadcaster{}, NewQuestionService(db))
	_, err := svc.CreateGame(room.ID, alice.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, ok := svc.directory.Active(room.ID)
	require.True(t, ok)
}

func TestJoinGameIdempotent(t *testing.T) {
	db, svc, bc := newGameFixture(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)

	_, roster, err := svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Len(t, bc.named("player_joined"), 1)

	// Second join of the same user returns the roster without a broadcast.
	_, roster, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Len(t, bc.named("player_joined"), 1)
}

func TestJoinGameAfterStart(t *testing.T) {
	db, svc, _ := newGameFixture(t)
	seedBalanceQuestions(t, db, 10)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	room := createRoom(t, db, alice, bob, carol)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
	_, _, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.StartGame(session.ID, alice.ID)
	require.NoError(t, err)

	_, _, err = svc.JoinGame(session.ID, carol.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestStartGamePreconditions(t *testing.T) {
	db, svc, _ := newGameFixture(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)

	_, err = svc.StartGame(session.ID, bob.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.StartGame(session.ID, alice.ID)
	require.ErrorIs(t, err, apperr.ErrInsufficientPlayers)

	_, _, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)

	// Two players but no prompts seeded.
	_, err = svc.StartGame(session.ID, alice.ID)
	require.ErrorIs(t, err, apperr.ErrNoContent)
}

func TestStartGameDrawsQuestions(t *testing.T) {
	db, svc, bc := newGameFixture(t)
	seedBalanceQuestions(t, db, 15)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
	_, _, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)

	started, err := svc.StartGame(session.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusPlaying, started.Status)
	require.Equal(t, 0, started.CurrentRound)
	require.NotNil(t, started.StartedAt)
	require.Len(t, started.Questions, 10)
	for i, q := range started.Questions {
		require.Equal(t, i, q.RoundIndex)
	}

	events := bc.named("game_started")
	require.Len(t, events, 1)
	require.Equal(t, 0, events[0].data["question_index"])
	require.Equal(t, 10, events[0].data["total_questions"])

	_, err = svc.StartGame(session.ID, alice.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestSubmitAnswerRoundCompleteExactlyOnce(t *testing.T) {
	db, svc, bc := newGameFixture(t)
	seedBalanceQuestions(t, db, 3)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
	_, _, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.StartGame(session.ID, alice.ID)
	require.NoError(t, err)

	all, err := svc.SubmitAnswer(session.ID, alice.ID, 0, "A")
	require.NoError(t, err)
	require.False(t, all)
	require.Empty(t, bc.named("round_complete"))

	all, err = svc.SubmitAnswer(session.ID, bob.ID, 0, "B")
	require.NoError(t, err)
	require.True(t, all)
	require.Len(t, bc.named("round_complete"), 1)

	// Resubmission overwrites the stored choice and does not re-announce
	// a round that was already complete.
	all, err = svc.SubmitAnswer(session.ID, alice.ID, 0, "B")
	require.NoError(t, err)
	require.True(t, all)
	require.Len(t, bc.named("round_complete"), 1)

	var answers []models.GameAnswer
	require.NoError(t, db.Where("round_index = ?", 0).Find(&answers).Error)
	require.Len(t, answers, 2)
	for _, a := range answers {
		require.Equal(t, "B", a.Choice)
	}
}

func TestSubmitAnswerNonParticipant(t *testing.T) {
	db, svc, _ := newGameFixture(t)
	seedBalanceQuestions(t, db, 3)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	mallory := createUser(t, db, "mallory")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
	_, _, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.StartGame(session.ID, alice.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(session.ID, mallory.ID, 0, "A")
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAdvanceRoundThroughToFinish(t *testing.T) {
	db, svc, bc := newGameFixture(t)
	seedBalanceQuestions(t, db, 2)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
	_, _, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.StartGame(session.ID, alice.ID)
	require.NoError(t, err)

	_, err = svc.AdvanceRound(session.ID, bob.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	result, err := svc.AdvanceRound(session.ID, alice.ID)
	require.NoError(t, err)
	require.False(t, result.Finished)
	require.Equal(t, 1, result.QuestionIndex)
	require.NotNil(t, result.Question)
	require.Len(t, bc.named("next_question"), 1)

	result, err = svc.AdvanceRound(session.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, result.Finished)
	require.Len(t, result.Participants, 2)
	require.Len(t, bc.named("game_finished"), 1)

	reloaded, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusFinished, reloaded.Status)
	require.NotNil(t, reloaded.EndedAt)

	_, err = svc.AdvanceRound(session.ID, alice.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	// A finished game frees the room for the next one.
	_, err = svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
}

func TestDeleteGame(t *testing.T) {
	db, svc, bc := newGameFixture(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	room := createRoom(t, db, alice, bob)

	session, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
	_, _, err = svc.JoinGame(session.ID, bob.ID)
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteGame(session.ID, bob.ID), apperr.ErrForbidden)
	require.NoError(t, svc.DeleteGame(session.ID, alice.ID))
	require.Len(t, bc.named("game_cancelled"), 1)

	_, err = svc.GetSession(session.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	var participants int64
	db.Model(&models.GameParticipant{}).Where("session_id = ?", session.ID).Count(&participants)
	require.Zero(t, participants)

	_, err = svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)
}

func TestCleanupStaleRemovesOldWaitingSessions(t *testing.T) {
	db, svc, bc := newGameFixture(t)
	alice := createUser(t, db, "alice")
	roomA := createRoom(t, db, alice)
	roomB := createRoom(t, db, alice)

	stale, err := svc.CreateGame(roomA.ID, alice.ID)
	require.NoError(t, err)
	fresh, err := svc.CreateGame(roomB.ID, alice.ID)
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.GameSession{}).
		Where("id = ?", stale.ID).
		Update("created_at", old).Error)

	cleaned, err := svc.CleanupStale(StaleSessionRetention)
	require.NoError(t, err)
	require.Equal(t, 1, cleaned)

	_, err = svc.GetSession(stale.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.GetSession(fresh.ID)
	require.NoError(t, err)

	// Housekeeping is silent.
	require.Empty(t, bc.named("game_cancelled"))

	_, err = svc.CreateGame(roomA.ID, alice.ID)
	require.NoError(t, err)
}

func TestActiveSessions(t *testing.T) {
	db, svc, _ := newGameFixture(t)
	alice := createUser(t, db, "alice")
	room := createRoom(t, db, alice)

	sessions, err := svc.ActiveSessions(room.ID)
	require.NoError(t, err)
	require.Empty(t, sessions)

	created, err := svc.CreateGame(room.ID, alice.ID)
	require.NoError(t, err)

	sessions, err = svc.ActiveSessions(room.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, created.ID, sessions[0].ID)
}
