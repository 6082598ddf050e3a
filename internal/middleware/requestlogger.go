package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linklens/worker/internal/models"
	"github.com/linklens/worker/internal/storage"
)

// Buffered channel for async logging
var logChannel chan models.RequestLog

// Initializes the request logger
func InitRequestLogger(db *storage.Postgres, bufferSize int) {
	logChannel = make(chan models.RequestLog, bufferSize)

	// Start background worker to batch insert logs
	go func() {
		batch := make([]models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case entry := <-logChannel:
				batch = append(batch, entry)

				// Insert when batch is full
				if len(batch) >= 100 {
					insertBatch(db, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			case <-ticker.C:
				// Periodically insert remaining logs
				if len(batch) > 0 {
					insertBatch(db, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			}
		}
	}()
}

// Inserts a batch of logs into the database
func insertBatch(db *storage.Postgres, logs []models.RequestLog) {
	if len(logs) == 0 {
		return
	}

	if err := db.DB.Create(&logs).Error; err != nil {
		// Log error but dont block
		log.Printf("Failed to insert request logs: %v", err)
	}
}

// Logs every proxied request for the analytics endpoint
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		requestID, _ := uuid.Parse(c.GetString("request_id"))

		entry := models.RequestLog{
			RequestID:      requestID,
			Timestamp:      start,
			UserID:         c.GetString("user_id"),
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(duration.Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
		}

		// Send to channel for async processing
		select {
		case logChannel <- entry:
			// Successfully queued
		default:
			// Channel full, skip logging to avoid blocking
			log.Println("Request log channel full, skipping log entry")
		}
	}
}
