package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting the service needs. It is read once at
// startup and passed explicitly to the components that need it; nothing in
// the application reads the environment after this point.
type Config struct {
	AppPort        string
	DatabaseDSN    string
	AllowedOrigins []string
	BcryptCost     int
	JWTSecret      string
	TokenTTL       time.Duration
	StoreTimeout   time.Duration
	RabbitMQURL    string
}

// Load reads configuration from environment variables, falling back to
// sensible development defaults.
func Load() *Config {
	v := viper.New()
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("DATABASE_DSN", "file:akun.db")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("RABBITMQ_URL", "") // empty disables event publishing
	v.AutomaticEnv()

	return &Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		AllowedOrigins: splitOrigins(v.GetString("ALLOWED_ORIGINS")),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		StoreTimeout:   v.GetDuration("STORE_TIMEOUT"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
	}
}

// splitOrigins parses a comma-separated origin allow-list.
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
