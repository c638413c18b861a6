package services

import (
	"testing"

	"icebreaker-backend/internal/apperr"
	"icebreaker-backend/internal/models"

	"github.com/stretchr/testify/require"
)

func seedQuestions(t *testing.T, svc *QuestionService) []models.Question {
	t.Helper()
	questions := []models.Question{
		{Text: "first date memory?", Category: "memories", Level: 1},
		{Text: "dream trip?", Category: "future", Level: 1},
		{Text: "biggest fear?", Category: "deep", Level: 3},
	}
	require.NoError(t, svc.db.Create(&questions).Error)
	return questions
}

func TestListQuestionsFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	seedQuestions(t, svc)

	all, err := svc.ListQuestions("", 0, 10, false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byCategory, err := svc.ListQuestions("memories", 0, 10, false)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.Equal(t, "first date memory?", byCategory[0].Text)

	byLevel, err := svc.ListQuestions("", 3, 10, false)
	require.NoError(t, err)
	require.Len(t, byLevel, 1)

	limited, err := svc.ListQuestions("", 0, 2, false)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestRandomQuestionExclusions(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	questions := seedQuestions(t, svc)

	exclude := []uint{questions[0].ID, questions[1].ID}
	got, err := svc.RandomQuestion(0, exclude)
	require.NoError(t, err)
	require.Equal(t, questions[2].ID, got.ID)

	exclude = append(exclude, questions[2].ID)
	_, err = svc.RandomQuestion(0, exclude)
	require.ErrorIs(t, err, apperr.ErrNoContent)
}

func TestSaveAnswer(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	questions := seedQuestions(t, svc)
	alice := createUser(t, db, "alice")
	room := createRoom(t, db, alice)

	answer, err := svc.SaveAnswer(room.ID, questions[0].ID, alice.ID, "at the beach")
	require.NoError(t, err)
	require.Equal(t, "at the beach", answer.Text)
	require.EqualValues(t, 1, svc.AnswerCount(room.ID))

	_, err = svc.SaveAnswer(room.ID, 9999, alice.ID, "no such question")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDrawBalanceQuestionsStableOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	seedBalanceQuestions(t, db, 5)

	drawn, err := svc.DrawBalanceQuestions(3)
	require.NoError(t, err)
	require.Len(t, drawn, 3)
	for i := 1; i < len(drawn); i++ {
		require.Greater(t, drawn[i].ID, drawn[i-1].ID)
	}

	again, err := svc.DrawBalanceQuestions(3)
	require.NoError(t, err)
	require.Equal(t, drawn, again)
}
