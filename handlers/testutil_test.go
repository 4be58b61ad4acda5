package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"jungle-squad-academy/models"
	"jungle-squad-academy/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdminSecret = "test-admin-secret"

var testDBCounter int64

// testEnv bundles the fiber app with the services behind it so tests can seed
// state directly before driving the HTTP surface.
type testEnv struct {
	App          *fiber.App
	DB           *gorm.DB
	XP           *services.XPService
	Coins        *services.CoinService
	Competitions *services.CompetitionService
	Rewards      *services.RewardService
}

// newTestEnv wires all route groups against an isolated in-memory SQLite
// database, mirroring the route setup in main.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:handlertestdb%d?mode=memory&cache=shared", n)
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

	t.Setenv("ACADEMY_ADMIN_SECRET", testAdminSecret)

	xp := services.NewXPService(db)
	coins := services.NewCoinService(db)
	comps := services.NewCompetitionService(db, coins)
	rewards := services.NewRewardService(db, xp, coins)

	app := fiber.New()
	SetupEconomyRoutes(app, xp, coins)
	SetupCompetitionRoutes(app, comps)
	SetupQuoteRoutes(app, rewards)

	return &testEnv{App: app, DB: db, XP: xp, Coins: coins, Competitions: comps, Rewards: rewards}
}

// request drives one HTTP call through the fiber app and returns the response.
func (e *testEnv) request(t *testing.T, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.App.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
