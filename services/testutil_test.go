package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"jungle-squad-academy/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// newTestDB opens an isolated in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.UserXP{},
		&models.XPTransaction{},
		&models.UserCoins{},
		&models.CoinTransaction{},
		&models.Competition{},
		&models.CompetitionParticipant{},
		&models.QuoteEntry{},
		&models.QuoteShare{},
		&models.QuoteVote{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.SubscriptionMirror{},
		&models.RewardGrant{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
