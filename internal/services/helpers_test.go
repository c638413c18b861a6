package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"icebreaker-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Named in-memory database with a shared cache, so gorm's connection
	// pool sees one schema instead of one empty database per connection.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.RoomMember{},
		&models.ChatMessage{},
		&models.Question{},
		&models.Answer{},
		&models.BalanceQuestion{},
		&models.GameSession{},
		&models.GameQuestion{},
		&models.GameParticipant{},
		&models.GameAnswer{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		DisplayName:  username,
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createRoom(t *testing.T, db *gorm.DB, owner *models.User, members ...*models.User) *models.Room {
	t.Helper()
	svc := NewRoomService(db)
	room, err := svc.CreateRoom(owner.ID, "test room", "couple")
	require.NoError(t, err)
	for _, m := range members {
		_, err := svc.JoinRoom(room.Code, m.ID)
		require.NoError(t, err)
	}
	return room
}

func seedBalanceQuestions(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		q := models.BalanceQuestion{
			Text:    fmt.Sprintf("prompt %d", i),
			OptionA: "A",
			OptionB: "B",
		}
		require.NoError(t, db.Create(&q).Error)
	}
}

func createMessage(t *testing.T, db *gorm.DB, roomID, userID uint, text string, at time.Time) {
	t.Helper()
	msg := models.ChatMessage{RoomID: roomID, UserID: userID, Message: text, CreatedAt: at}
	require.NoError(t, db.Create(&msg).Error)
}

type broadcastEvent struct {
	roomID uint
	event  string
	data   map[string]any
}

// fakeBroadcaster records room broadcasts so tests can assert on the event
// stream without a live hub.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID uint, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, _ := data.(map[string]any)
	f.events = append(f.events, broadcastEvent{roomID: roomID, event: event, data: payload})
}

func (f *fakeBroadcaster) named(event string) []broadcastEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcastEvent
	for _, e := range f.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}
