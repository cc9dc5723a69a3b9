package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds configuration for the portal client and the mock backend
type Config struct {
	API       APIConfig
	Redis     RedisConfig
	Mock      MockConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type APIConfig struct {
	// BaseURL is the portal backend origin, e.g. http://localhost:5080
	BaseURL string
	Timeout time.Duration
	// CookieTTL bounds the HTTP-visible token copy. The persistent
	// store copy carries no client-side expiry at all.
	CookieTTL time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MockConfig struct {
	Port            string
	Host            string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("PORTAL_API_URL", "http://localhost:5080")
	viper.SetDefault("PORTAL_API_TIMEOUT", 15)
	viper.SetDefault("PORTAL_COOKIE_TTL_HOURS", 168)
	viper.SetDefault("MOCK_PORT", "5080")
	viper.SetDefault("MOCK_HOST", "0.0.0.0")
	viper.SetDefault("MOCK_JWT_SECRET", "dev-only-secret")
	viper.SetDefault("MOCK_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("MOCK_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		API: APIConfig{
			BaseURL:   viper.GetString("PORTAL_API_URL"),
			Timeout:   time.Duration(viper.GetInt("PORTAL_API_TIMEOUT")) * time.Second,
			CookieTTL: time.Duration(viper.GetInt("PORTAL_COOKIE_TTL_HOURS")) * time.Hour,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		Mock: MockConfig{
			Port:            viper.GetString("MOCK_PORT"),
			Host:            viper.GetString("MOCK_HOST"),
			JWTSecret:       viper.GetString("MOCK_JWT_SECRET"),
			AccessTokenTTL:  time.Duration(viper.GetInt("MOCK_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("MOCK_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	return cfg, nil
}
