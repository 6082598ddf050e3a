package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/linklens/worker/internal/config"
	"github.com/linklens/worker/internal/server"
	"github.com/linklens/worker/internal/storage"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	cfg := config.Load()

	var redis *storage.RedisClient
	if cfg.RedisAddr != "" {
		var err error
		redis, err = storage.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()

		log.Println("Connected to Redis, rate limits are shared across instances")
	}

	var postgres *storage.Postgres
	if cfg.DatabaseURL != "" {
		var err error
		postgres, err = storage.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer postgres.Close()

		if err := postgres.AutoMigrate(); err != nil {
			log.Fatalf("Failed to migrate request log schema: %v", err)
		}

		log.Println("Connected to Postgres, request logging enabled")
	}

	// Create server
	srv := server.New(cfg, redis, postgres)

	go func() {
		addr := ":" + cfg.Port
		if err := srv.Run(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
