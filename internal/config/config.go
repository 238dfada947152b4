package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds all runtime configuration, populated from the environment.
type Config struct {
	AppEnv   string `env:"APP_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	HTTPListenAddr string `env:"HTTP_LISTEN_ADDR,default=:8080"`
	PublicBasePath string `env:"PUBLIC_BASE_PATH"`

	DatabaseURL    string `env:"DATABASE_URL,required"`
	DatabaseSchema string `env:"DATABASE_SCHEMA"`

	RedisAddr     string `env:"REDIS_ADDR,default=127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	RedisTLS      bool   `env:"REDIS_TLS,default=false"`

	MetricsNamespace string `env:"METRICS_NAMESPACE,default=xbin"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=24h"`

	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL,default=1h"`

	// Bootstrap admin, ensured at startup when both values are set.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	PriceAPIBaseURL      string        `env:"PRICE_API_BASE_URL,default=https://api.coingecko.com"`
	PriceAPITimeout      time.Duration `env:"PRICE_API_TIMEOUT,default=10s"`
	PriceRefreshInterval time.Duration `env:"PRICE_REFRESH_INTERVAL,default=5m"`
	PriceCacheTTL        time.Duration `env:"PRICE_CACHE_TTL,default=5m"`

	AuthRateLimitPerSec int `env:"AUTH_RATE_LIMIT_PER_SEC,default=5"`
	AuthRateLimitBurst  int `env:"AUTH_RATE_LIMIT_BURST,default=10"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	return cfg, nil
}
