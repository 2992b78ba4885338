package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/idozri/vidto-listen/internal/logging"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_PATH", "DB_PATH", "UPLOAD_PATH", "JWT_SECRET",
		"CORS_ORIGINS", "PROCESSING_DELAY", "MAX_UPLOAD_MB", "SESSION_TTL", "TOKEN_TTL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	keyring.MockInit()
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("JWT_SECRET", "fixed")

	cfg, err := Load(logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.DataPath != "./data" {
		t.Errorf("port=%d data=%q", cfg.Port, cfg.DataPath)
	}
	if cfg.DBPath != filepath.Join("data", "vidto-listen.db") || cfg.UploadPath != filepath.Join("data", "uploads") {
		t.Errorf("db=%q uploads=%q", cfg.DBPath, cfg.UploadPath)
	}
	if cfg.ProcessingDelay != 3*time.Second || cfg.SessionTTL != 2*time.Hour {
		t.Errorf("delay=%v ttl=%v", cfg.ProcessingDelay, cfg.SessionTTL)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Errorf("token ttl = %v", cfg.TokenTTL)
	}
	if cfg.MaxUploadBytes != 2048<<20 {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes)
	}
	if cfg.JWTSecret != "fixed" || len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("secret=%q cors=%v", cfg.JWTSecret, cfg.CORSOrigins)
	}
}

func TestLoadDotEnv(t *testing.T) {
	keyring.MockInit()
	dir := chdirTemp(t)
	clearEnv(t)
	os.Unsetenv("PORT")
	os.Unsetenv("CORS_ORIGINS")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("CORS_ORIGINS")
	})

	env := "PORT=9090\nCORS_ORIGINS=http://a.test, http://b.test\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("cors = %v", cfg.CORSOrigins)
	}
}

func TestJWTSecretPersistedInKeyring(t *testing.T) {
	keyring.MockInit()
	chdirTemp(t)
	clearEnv(t)

	first, err := Load(logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Load(logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if first.JWTSecret == "" || first.JWTSecret != second.JWTSecret {
		t.Errorf("secrets differ: %q vs %q", first.JWTSecret, second.JWTSecret)
	}
	stored, _ := keyring.Get(keyringService, keyringUser)
	if stored != first.JWTSecret {
		t.Errorf("keyring holds %q", stored)
	}
}

func TestLoadInvalid(t *testing.T) {
	keyring.MockInit()
	chdirTemp(t)
	tests := map[string]string{
		"PORT":             "eighty",
		"PROCESSING_DELAY": "soon",
		"MAX_UPLOAD_MB":    "0",
		"SESSION_TTL":      "-",
		"TOKEN_TTL":        "1m",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "x")
			t.Setenv(key, val)
			if _, err := Load(logging.Nop()); err == nil {
				t.Errorf("%s=%q accepted", key, val)
			}
		})
	}
}

func TestDBPath(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	t.Setenv("DATA_PATH", "/srv/listen")
	if got, err := DBPath(); err != nil || got != filepath.Join("/srv/listen", "vidto-listen.db") {
		t.Errorf("DBPath() = %q, %v", got, err)
	}
	t.Setenv("DB_PATH", "/tmp/other.db")
	if got, _ := DBPath(); got != "/tmp/other.db" {
		t.Errorf("DB_PATH override: %q", got)
	}
}
