package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/sessions"

	"backoffice-api/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	// Gorilla cookie store for session management.
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))

	tokens, err := core.NewTokenService([]byte(cfg.SecretKey))
	if err != nil {
		log.Fatalf("failed to build token service: %v", err)
	}

	userRepo := core.NewPgUserRepository(db)
	auditRepo := core.NewPgAuditRepository(db)
	tokenTTL := time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute
	auth := core.NewAdminAuth(userRepo, tokens, auditRepo, tokenTTL)
	metrics := core.NewMetricsService(redisClient)

	if err := core.BootstrapSuperuser(ctx, userRepo, cfg); err != nil {
		log.Fatalf("bootstrap superuser failed: %v", err)
	}

	router := core.NewRouter(cfg, store, auth, userRepo, auditRepo, metrics, db, redisClient)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
