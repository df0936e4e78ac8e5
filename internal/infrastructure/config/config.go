package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string `env:"PORT,             default=3000"`
	Env            string `env:"ENV,              default=development"`
	BackendBaseURL string `env:"BACKEND_BASE_URL, default=http://localhost:8080"`
	LogLevel       string `env:"LOG_LEVEL,        default=info"`

	// GuardRefreshTimeout bounds the route guard's proactive token renewal
	// so a slow backend never hangs a navigation.
	GuardRefreshTimeout time.Duration `env:"GUARD_REFRESH_TIMEOUT, default=3s"`

	Login LoginConfig
	Redis RedisConfig
	Mongo MongoConfig
}

type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS,   default=10"`
	Window      time.Duration `env:"LOGIN_ATTEMPT_WINDOW, default=5m"`
}

// RedisConfig enables the login limiter when Addr is set.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// MongoConfig enables the audit trail when URI is set.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=admin_gateway"`
}

// IsProduction reports whether the deployment mode is production. It drives
// the cookie Secure flag and log formatting.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
