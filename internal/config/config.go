package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Media     MediaConfig
	MinIO     MinIOConfig
	Redis     RedisConfig
	Tracker   TrackerConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	PublicURL    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StorageConfig selects where institution collections live.
type StorageConfig struct {
	Backend string // file | mongo
	DataDir string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MediaConfig controls attachment uploads and the orphan sweep.
type MediaConfig struct {
	Backend         string // local | minio
	MaxBytes        int64
	AllowedPrefixes []string
	CleanupInterval time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// TrackerConfig selects the last-update store (memory | redis).
type TrackerConfig struct {
	Backend string
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// AuthConfig gates institution routes behind the login token.
type AuthConfig struct {
	Required bool
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "4000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("STORE_BACKEND", "file")
	v.SetDefault("DATA_DIR", "./institutions")
	v.SetDefault("MONGODB_DATABASE", "maintenance")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MEDIA_BACKEND", "local")
	v.SetDefault("MEDIA_MAX_BYTES", 50<<20)
	v.SetDefault("MEDIA_ALLOWED_PREFIXES", "image/,video/")
	v.SetDefault("MEDIA_CLEANUP_INTERVAL", "1h")
	v.SetDefault("MINIO_BUCKET", "maintenance-media")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("TRACKER_BACKEND", "memory")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 720)

	cleanup, err := parseInterval(v.GetString("MEDIA_CLEANUP_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("MEDIA_CLEANUP_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			PublicURL:    strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
			DataDir: v.GetString("DATA_DIR"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Media: MediaConfig{
			Backend:         strings.ToLower(v.GetString("MEDIA_BACKEND")),
			MaxBytes:        v.GetInt64("MEDIA_MAX_BYTES"),
			AllowedPrefixes: splitList(v.GetString("MEDIA_ALLOWED_PREFIXES")),
			CleanupInterval: cleanup,
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Tracker: TrackerConfig{
			Backend: strings.ToLower(v.GetString("TRACKER_BACKEND")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		Auth: AuthConfig{
			Required: v.GetBool("AUTH_REQUIRED"),
		},
	}

	// Basic validation
	if cfg.Auth.Required && cfg.JWT.Secret == "" {
		log.Println("WARNING: AUTH_REQUIRED is set without JWT_SECRET; institution routes stay open")
		cfg.Auth.Required = false
	}
	if cfg.Media.MaxBytes <= 0 {
		cfg.Media.MaxBytes = 50 << 20
	}
	if len(cfg.Media.AllowedPrefixes) == 0 {
		cfg.Media.AllowedPrefixes = []string{"image/", "video/"}
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseInterval accepts a Go duration ("15m") or a bare number of seconds.
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
