// Package config reads server settings from the environment and .env.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string // dev or prod
	Addr string // listen address, e.g. :3000

	DBURL string // postgres URL, or sqlite://path for a local file

	JWTSecret string
	JWTExpire time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	AITimeout     time.Duration
	AIRatePerMin  int // per-user AI requests per minute
	AIBurst       int

	DefaultTimezone *time.Location

	BlobBackend   string // disk or http
	BlobDir       string
	PublicBaseURL string // prefix for disk blob URLs
	StorageURL    string
	StorageKey    string
	StorageBucket string
}

// Load reads .env (if present) and the environment.
// Precedence: environment > .env > default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		Env:           get("ENV", "dev"),
		Addr:          get("ADDR", ":3000"),
		DBURL:         get("DB_URL", ""),
		JWTSecret:     get("JWT_SECRET", ""),
		OpenAIAPIKey:  get("OPENAI_API_KEY", ""),
		OpenAIBaseURL: get("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:   get("OPENAI_MODEL", "gpt-4o-mini"),
		BlobBackend:   get("BLOB_BACKEND", "disk"),
		BlobDir:       get("BLOB_DIR", "media"),
		PublicBaseURL: get("PUBLIC_BASE_URL", ""),
		StorageURL:    get("STORAGE_URL", ""),
		StorageKey:    get("STORAGE_KEY", ""),
		StorageBucket: get("STORAGE_BUCKET", "meal-photos"),
	}

	var err error
	if c.JWTExpire, err = duration("JWT_EXPIRE", "720h"); err != nil {
		return nil, err
	}
	if c.AITimeout, err = duration("AI_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if c.AIRatePerMin, err = integer("AI_RATE_PER_MINUTE", "10"); err != nil {
		return nil, err
	}
	if c.AIBurst, err = integer("AI_BURST", "3"); err != nil {
		return nil, err
	}
	tz := get("DEFAULT_TIMEZONE", "UTC")
	if c.DefaultTimezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("DEFAULT_TIMEZONE %q: %w", tz, err)
	}

	switch c.BlobBackend {
	case "disk":
	case "http":
		if c.StorageURL == "" {
			return nil, fmt.Errorf("BLOB_BACKEND=http requires STORAGE_URL")
		}
	default:
		return nil, fmt.Errorf("BLOB_BACKEND must be disk or http, got %q", c.BlobBackend)
	}
	if c.Env == "prod" && c.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when ENV=prod")
	}
	if c.JWTSecret == "" {
		// Tokens signed with it stop verifying when the process exits.
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate JWT secret: %w", err)
		}
		c.JWTSecret = hex.EncodeToString(secret)
		log.Printf("[config] JWT_SECRET not set; using a random secret, sessions end on restart")
	}
	return c, nil
}

// get returns the environment value for k, or def when unset or empty.
func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func duration(k, def string) (time.Duration, error) {
	d, err := time.ParseDuration(get(k, def))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func integer(k, def string) (int, error) {
	n, err := strconv.Atoi(get(k, def))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
