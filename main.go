package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"zorapad/handlers"
	"zorapad/middleware"
	"zorapad/models"
	"zorapad/services"
	"zorapad/utils"
	"zorapad/workers"

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
		BodyLimit: 200 * 1024 * 1024, // 200MB — manuscript archives and cover images
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token, X-User-ID",
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

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Novel{},
		&models.Chapter{},
		&models.Comment{},
		&models.Reply{},
		&models.Request{},
		&models.RequestReply{},
		&models.Upvote{},
		&models.Stake{},
		&models.NovelStake{},
		&models.PlatformUser{},
		&models.WalletMirror{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	engagementService := services.NewEngagementService(db)
	novelService := services.NewNovelService(db)
	discussionService := services.NewDiscussionService(db, engagementService)
	awardService := services.NewAwardService(db)
	claimService := services.NewClaimService(db)
	rewardsService := services.NewRewardsService(db)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("ZORAPAD_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("ZORAPAD_SERVICE_TOKEN environment variable not set")
	}

	marketServiceURL := os.Getenv("MARKET_SERVICE_URL")
	if marketServiceURL == "" {
		log.Println("⚠️  MARKET_SERVICE_URL not set — token prices will be null")
	}
	marketService := services.NewMarketService(db, marketServiceURL)

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	authClient := services.NewAuthServiceClient(authServiceURL, serviceToken)

	syncWorker := workers.NewUserSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", serviceToken)

	walletSyncClient := workers.NewWalletSyncClient(db)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workers.PollWallets(ctx, walletSyncClient, 10*time.Second)

	go func() {
		log.Println("Starting User Sync Worker...")
		syncWorker.Start(ctx)
	}()

	novelService.StartPublishScheduler()

	// ✅ Setup routes — enforced Gateway auth everywhere
	handlers.SetupNovelRoutes(app, novelService, marketService)
	handlers.SetupDiscussionRoutes(app, discussionService)
	handlers.SetupRewardRoutes(app, engagementService, awardService, claimService, rewardsService, authClient)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ User Sync Worker running")
	log.Println("✅ Wallet polling running (every 10s)")
	log.Println("✅ Publish scheduler running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
