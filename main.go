package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"offerwall-credit-system/handlers"
	"offerwall-credit-system/models"
	"offerwall-credit-system/partners"
	"offerwall-credit-system/services"
	"offerwall-credit-system/workers"

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

	app := fiber.New(fiber.Config{})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOriginsList, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-User-ID, X-Email-Verified, X-Device-ID, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError turns unique-index collisions into gorm.ErrDuplicatedKey,
	// which the ledger relies on for its dedup compare-and-set.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.CompletedOffer{},
		&models.OfferHistory{},
		&models.PendingOffer{},
		&models.AuditEntry{},
		&models.ReferralEdge{},
		&models.FraudLog{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerService := services.NewLedgerService(db)
	velocityService := services.NewVelocityService(db)
	referralService := services.NewReferralService(db)
	checkinService := services.NewCheckinService(db)

	adapters := []partners.Adapter{
		partners.NewCPXAdapter(requireEnv("CPX_SECRET")),
		partners.NewBitLabsAdapter(requireEnv("BITLABS_SECRET")),
		partners.NewAyetAdapter(requireEnv("AYET_SECRET")),
		partners.NewLootablyAdapter(requireEnv("LOOTABLY_SECRET")),
		partners.NewScanlyAdapter(requireEnv("SCANLY_SECRET")),
	}

	authServiceURL := requireEnv("AUTH_SERVICE_URL")
	serviceToken := requireEnv("CREDIT_SERVICE_TOKEN")

	syncWorker := workers.NewProfileSyncWorker(db, referralService, authServiceURL, "/api/v1/public/profiles", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker.Start(ctx)
	ledgerService.StartRetentionSweeper()

	handlers.SetupPostbackRoutes(app, ledgerService, velocityService, adapters...)
	handlers.SetupUserRoutes(app, ledgerService, checkinService, referralService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5100"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Retention sweeper scheduled (hourly)")
	log.Printf("✅ Postback endpoints registered for %d partner(s)", len(adapters))

	<-ctx.Done()
	log.Println("Shutting down server...")
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s environment variable not set", key)
	}
	return value
}
