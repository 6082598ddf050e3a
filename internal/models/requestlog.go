package models

import (
	"time"

	"github.com/google/uuid"
)

// Represents one proxied analyze/preview request
type RequestLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RequestID      uuid.UUID `gorm:"type:uuid;index" json:"request_id"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
	UserID         string    `gorm:"index" json:"user_id,omitempty"`
	Method         string    `json:"method"`
	Path           string    `gorm:"index" json:"path"`
	StatusCode     int       `gorm:"index" json:"status_code"`
	ResponseTimeMs int       `json:"response_time_ms"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
}

func (RequestLog) TableName() string {
	return "request_logs"
}
