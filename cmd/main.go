package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"collabcode/backend/internal/api"
	"collabcode/backend/internal/api/handler"
	"collabcode/backend/internal/auth"
	"collabcode/backend/internal/config"
	"collabcode/backend/internal/hub"
	"collabcode/backend/internal/ratelimit"
	"collabcode/backend/internal/storage"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	// TranslateError turns driver duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the room id collision check relies on.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("Warning: Redis unavailable (%v); presence and cross-instance relay disabled", err)
		rdb = nil
	}

	return db, rdb
}

func main() {
	log.Println("Starting CollabCode Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)
	if err := s.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database connection established, migrations complete.")

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpire)

	limiter := ratelimit.NewLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	limiter.StartSweeper(context.Background(), cfg.RateLimitWindow)

	sessionHub := hub.NewManager(s)
	go sessionHub.Run()
	sessionHub.StartPubSubListener()

	h := handler.NewHandler(s, tokens, sessionHub)
	r := api.NewRouter(h, tokens, s, limiter, cfg.FrontendURL)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Server running on port %s", cfg.Port)
	log.Fatal(server.ListenAndServe())
}
