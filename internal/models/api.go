package models

import (
	"encoding/json"
	"time"
)

// StatsResponse is returned by GET /api/stats
type StatsResponse struct {
	Policy        string    `json:"policy"`
	OnlineSeekers int64     `json:"onlineSeekers"`
	OnlineHelpers int64     `json:"onlineHelpers"`
	Connected     int       `json:"connected"`
	QueuedSeekers int       `json:"queuedSeekers"`
	ReadyHelpers  int       `json:"readyHelpers"`
	ActiveCalls   int       `json:"activeCalls"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// NotificationRequest is the body of POST /api/send-notification
type NotificationRequest struct {
	Topic string          `json:"topic" binding:"required"`
	Data  json.RawMessage `json:"data"`
}

// Notification is what gets published for a push gateway to deliver
type Notification struct {
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
