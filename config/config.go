package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Policy selects the matchmaking protocol a server instance speaks
type Policy string

const (
	// PolicyQueue pairs blind seekers with ready volunteers in FIFO order
	PolicyQueue Policy = "queue"
	// PolicyLegacy assigns caller/callee to the first two logins
	PolicyLegacy Policy = "legacy"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	JWTSecret      string
	Policy         Policy
	LogLevel       string
	WebSocket      WebSocketConfig
	Redis          RedisConfig
}

type WebSocketConfig struct {
	MaxMessageBytes      int64
	PongWait             time.Duration
	MaxMessagesPerSecond int
	SendBuffer           int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func Load() *Config {
	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := strings.Split(originsStr, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:           getEnv("PORT", "3000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		Policy:         Policy(strings.ToLower(getEnv("SIGNALING_POLICY", string(PolicyQueue)))),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		WebSocket: WebSocketConfig{
			MaxMessageBytes:      int64(getEnvInt("WS_MAX_MESSAGE_BYTES", 64*1024)),
			PongWait:             getEnvDuration("WS_PONG_WAIT", 60*time.Second),
			MaxMessagesPerSecond: getEnvInt("WS_MAX_MESSAGES_PER_SECOND", 50),
			SendBuffer:           getEnvInt("CLIENT_SEND_BUFFER", 256),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 24*time.Hour),
		},
	}
}

// Validate reports settings the server cannot run with
func (c *Config) Validate() error {
	switch c.Policy {
	case PolicyQueue, PolicyLegacy:
	default:
		return fmt.Errorf("invalid SIGNALING_POLICY %q (want %q or %q)", c.Policy, PolicyQueue, PolicyLegacy)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.WebSocket.MaxMessageBytes <= 0 {
		return fmt.Errorf("WS_MAX_MESSAGE_BYTES must be positive")
	}
	if c.WebSocket.PongWait <= 0 {
		return fmt.Errorf("WS_PONG_WAIT must be positive")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("CLIENT_SEND_BUFFER must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
