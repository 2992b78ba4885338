package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"

	"github.com/idozri/vidto-listen/internal/logging"
)

const (
	keyringService = "vidto-listen"
	keyringUser    = "jwt-secret"
)

type Config struct {
	Port            int
	DataPath        string
	DBPath          string
	UploadPath      string
	ThumbnailPath   string
	JWTSecret       string
	CORSOrigins     []string
	ProcessingDelay time.Duration
	MaxUploadBytes  int64
	SessionTTL      time.Duration
	// TokenTTL bounds a bearer token's lifetime. Inactivity is enforced by
	// the session manager, so this is never shorter than SessionTTL.
	TokenTTL time.Duration
}

// Load reads configuration from the environment, after applying an optional
// .env file in the working directory.
func Load(logger *logging.Logger) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	delay, err := time.ParseDuration(getEnv("PROCESSING_DELAY", "3s"))
	if err != nil {
		return nil, fmt.Errorf("PROCESSING_DELAY: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "2h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if tokenTTL < ttl {
		return nil, fmt.Errorf("TOKEN_TTL (%s) must not be shorter than SESSION_TTL (%s)", tokenTTL, ttl)
	}
	maxMB, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "2048"), 10, 64)
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB: must be a positive integer")
	}

	data := dataPath()

	return &Config{
		Port:            port,
		DataPath:        data,
		DBPath:          dbPath(),
		UploadPath:      getEnv("UPLOAD_PATH", filepath.Join(data, "uploads")),
		ThumbnailPath:   filepath.Join(data, "thumbnails"),
		JWTSecret:       jwtSecret(logger),
		CORSOrigins:     parseOrigins(os.Getenv("CORS_ORIGINS")),
		ProcessingDelay: delay,
		MaxUploadBytes:  maxMB << 20,
		SessionTTL:      ttl,
		TokenTTL:        tokenTTL,
	}, nil
}

// DBPath returns the database location without loading the rest of the
// configuration. Used by commands that only read the dashboard.
func DBPath() (string, error) {
	if err := loadDotEnv(); err != nil {
		return "", err
	}
	return dbPath(), nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func dbPath() string {
	return getEnv("DB_PATH", filepath.Join(dataPath(), "vidto-listen.db"))
}

func dataPath() string {
	return getEnv("DATA_PATH", "./data")
}

// jwtSecret prefers JWT_SECRET, then a secret kept in the OS keyring, and
// generates and stores a new one when neither exists. The secret also signs
// dashboard thumbnail links, which stay valid across restarts only while it
// is unchanged.
func jwtSecret(logger *logging.Logger) string {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		return v
	}

	secret, err := keyring.Get(keyringService, keyringUser)
	if err == nil && secret != "" {
		return secret
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Warnw("keyring unavailable, thumbnail links will change on restart", "error", err)
		return randomSecret()
	}

	secret = randomSecret()
	if err := keyring.Set(keyringService, keyringUser, secret); err != nil {
		logger.Warnw("could not store JWT secret in keyring, thumbnail links will change on restart", "error", err)
	}
	return secret
}

func randomSecret() string {
	b := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// parseOrigins splits a comma-separated list; empty means "*".
func parseOrigins(v string) []string {
	if v == "" {
		return []string{"*"}
	}
	origins := strings.Split(v, ",")
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
