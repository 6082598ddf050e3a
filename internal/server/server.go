package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linklens/worker/internal/config"
	"github.com/linklens/worker/internal/fetch"
	"github.com/linklens/worker/internal/handler"
	"github.com/linklens/worker/internal/identity"
	"github.com/linklens/worker/internal/middleware"
	"github.com/linklens/worker/internal/ratelimit"
	"github.com/linklens/worker/internal/repository"
	"github.com/linklens/worker/internal/service"
	"github.com/linklens/worker/internal/storage"
	"github.com/linklens/worker/internal/summarize"
)

type Server struct {
	router           *gin.Engine
	config           *config.Config
	redis            *storage.RedisClient
	postgres         *storage.Postgres
	verifier         *identity.Verifier
	limiter          ratelimit.Limiter
	analyzeHandler   *handler.AnalyzeHandler
	analyticsService *service.AnalyticsService
	analyticsHandler *handler.AnalyticsHandler
	httpServer       *http.Server
}

// Request logs older than this are purged by the cleanup loop
const logRetentionDays = 30

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	verifier := identity.NewVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	limiter := ratelimit.NewLimiter(redis, cfg.RequestsPerMinute, time.Minute)

	fetcher := fetch.New(cfg.ReaderBaseURL)
	summarizer := summarize.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	analyzeHandler := handler.NewAnalyzeHandler(fetcher, summarizer)

	s := &Server{
		router:         router,
		config:         cfg,
		redis:          redis,
		postgres:       postgres,
		verifier:       verifier,
		limiter:        limiter,
		analyzeHandler: analyzeHandler,
	}

	if postgres != nil {
		logRepo := repository.NewRequestLogRepository(postgres)
		s.analyticsService = service.NewAnalyticsService(logRepo)
		s.analyticsHandler = handler.NewAnalyticsHandler(s.analyticsService)

		go s.logCleanupLoop()
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS(s.config.AllowedOrigins))

	if s.postgres != nil {
		middleware.InitRequestLogger(s.postgres, 1000)
		s.router.Use(middleware.RequestLogger())
	}
}

func (s *Server) setupRoutes() {
	s.router.HandleMethodNotAllowed = true
	s.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("")
	api.Use(middleware.RequireAuth(s.verifier))
	api.Use(middleware.RateLimit(s.limiter))
	{
		api.POST("/analyze", s.analyzeHandler.Analyze)
		api.POST("/preview", s.analyzeHandler.Preview)
	}

	if s.analyticsHandler != nil {
		admin := s.router.Group("/admin")
		admin.Use(middleware.RequireAuth(s.verifier))
		{
			admin.GET("/stats", s.analyticsHandler.GetSummary)
		}
	}
}

func (s *Server) logCleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		deleted, err := s.analyticsService.CleanupOldLogs(context.Background(), logRetentionDays)
		if err != nil {
			log.Printf("Request log cleanup failed: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("Deleted %d request logs older than %d days", deleted, logRetentionDays)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	redisHealthy := true
	if s.redis != nil {
		if err := s.redis.Ping(c.Request.Context()); err != nil {
			redisHealthy = false
			log.Printf("Redis health check failed: %v", err)
		}
	}

	dbHealthy := true
	if s.postgres != nil {
		if err := s.postgres.Ping(c.Request.Context()); err != nil {
			dbHealthy = false
			log.Printf("Database health check failed: %v", err)
		}
	}

	status := "healthy"
	statusCode := http.StatusOK

	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "linklens-worker",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"redis":    redisHealthy,
			"database": dbHealthy,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting LinkLens worker on %s", addr)
	log.Printf("Environment: %s", s.config.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
