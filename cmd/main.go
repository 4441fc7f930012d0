package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"privacyreport/backend/internal/api/handler"
	"privacyreport/backend/internal/config"
	"privacyreport/backend/internal/discord"
	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/reviewhub"
	"privacyreport/backend/internal/storage"
	"privacyreport/backend/internal/token"
	"privacyreport/backend/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Report{},
		&models.MessageWindow{},
		&models.Message{},
		&models.Attachment{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Privacy Reporting Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	codec := token.NewCodec(cfg.MagicKey)
	s := storage.NewStorageService(db, rdb, codec)

	hub := reviewhub.NewHub()
	go hub.Run()

	engine := workflow.NewEngine(s, workflow.FullSteps)
	client := discord.NewClient(cfg.AppID, cfg.BotToken)
	h := handler.NewHandler(s, client, engine, hub, codec, cfg)

	r := gin.Default()

	r.POST("/interactions", discord.VerifySignature(cfg.PublicKey), h.HandleInteractions)

	r.GET("/redact-reports", h.GetRedactReports)
	r.POST("/report-discord", h.PostReportDiscord)

	review := r.Group("/", h.ModeratorAuth())
	review.GET("/review-reports", h.GetReviewReports)
	review.GET("/review-feed", h.GetReviewFeed)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
