package database

import (
	"fmt"

	"icebreaker-backend/internal/config"
	"icebreaker-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	log.Info().Str("module", "database").Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
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
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	log.Info().Str("module", "database").Msg("database migrated")
}

// SeedBalanceQuestions inserts a starter set of paired-choice prompts when the
// table is empty, so a fresh install can start a game immediately.
func SeedBalanceQuestions(db *gorm.DB) {
	var count int64
	db.Model(&models.BalanceQuestion{}).Count(&count)
	if count > 0 {
		return
	}

	questions := []models.BalanceQuestion{
		{Text: "Would you rather travel to the past or the future?", OptionA: "Past", OptionB: "Future"},
		{Text: "Mountains or the ocean for a long weekend?", OptionA: "Mountains", OptionB: "Ocean"},
		{Text: "Would you rather always be 10 minutes late or 20 minutes early?", OptionA: "10 late", OptionB: "20 early"},
		{Text: "Coffee or tea every morning for the rest of your life?", OptionA: "Coffee", OptionB: "Tea"},
		{Text: "Would you rather read minds or be invisible?", OptionA: "Read minds", OptionB: "Invisible"},
		{Text: "Big party or small dinner for your birthday?", OptionA: "Big party", OptionB: "Small dinner"},
		{Text: "Would you rather never use social media again or never watch another movie?", OptionA: "No social media", OptionB: "No movies"},
		{Text: "Summer forever or winter forever?", OptionA: "Summer", OptionB: "Winter"},
		{Text: "Would you rather cook every meal or clean up after every meal?", OptionA: "Cook", OptionB: "Clean"},
		{Text: "Live in a city with no car or the countryside with no internet?", OptionA: "City", OptionB: "Countryside"},
	}
	if err := db.Create(&questions).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed balance questions")
		return
	}
	log.Info().Str("module", "database").Int("count", len(questions)).Msg("seeded balance questions")
}
