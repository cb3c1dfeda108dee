package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret           string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`

	ScoringModelPath string `env:"SCORING_MODEL_PATH"`
	ModelCacheSize   int    `env:"MODEL_CACHE_SIZE" envDefault:"8"`

	RecomputeWorkers     int           `env:"RECOMPUTE_WORKERS" envDefault:"4"`
	RecomputeCallTimeout time.Duration `env:"RECOMPUTE_CALL_TIMEOUT" envDefault:"5s"`
	RecomputeMaxRetries  int           `env:"RECOMPUTE_MAX_RETRIES" envDefault:"3"`
	SessionLockTTL       time.Duration `env:"SESSION_LOCK_TTL" envDefault:"2m"`

	ShareTokenTTL      time.Duration `env:"SHARE_TOKEN_TTL" envDefault:"168h"`
	ResultsRateLimit   int           `env:"RESULTS_RATE_LIMIT" envDefault:"30"`
	ResultsRateWindow  time.Duration `env:"RESULTS_RATE_WINDOW" envDefault:"1m"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
