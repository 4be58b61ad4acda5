package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"jungle-squad-academy/handlers"
	"jungle-squad-academy/middleware"
	"jungle-squad-academy/models"
	"jungle-squad-academy/services"
	"jungle-squad-academy/utils"
	"jungle-squad-academy/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, banners only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

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
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedAchievements(db); err != nil {
		log.Fatal("failed to seed achievement catalog:", err)
	}

	xpService := services.NewXPService(db)
	coinService := services.NewCoinService(db)
	competitionService := services.NewCompetitionService(db, coinService)
	rewardService := services.NewRewardService(db, xpService, coinService)

	// --- CONFIGURE billing service sync ---
	billingServiceURL := os.Getenv("BILLING_SERVICE_URL")
	if billingServiceURL == "" {
		log.Fatal("BILLING_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("ACADEMY_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("ACADEMY_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tierSyncWorker := workers.NewTierSyncWorker(db, billingServiceURL, "/api/v1/public/subscriptions", serviceToken)
	tierSyncWorker.Start(ctx)

	services.NewScheduler(xpService, competitionService).Start()

	// ✅ Setup routes — enforced Gateway auth on everything
	handlers.SetupEconomyRoutes(app, xpService, coinService)
	handlers.SetupCompetitionRoutes(app, competitionService)
	handlers.SetupQuoteRoutes(app, rewardService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Tier Sync Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
