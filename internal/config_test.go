package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/resumectl/pkg/config"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Auth.Secret = "0123456789abcdef0123"
	return cfg
}

func TestDefaultConfig_NeedsSecret(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("default config without a secret should fail")
	}
	if !strings.Contains(err.Error(), "secret") {
		t.Errorf("unexpected error: %v", err)
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("config with secret should pass: %v", err)
	}
}

func TestAuthConfig_ShortSecret(t *testing.T) {
	cfg := AuthConfig{Secret: "short", BcryptCost: 10}
	if err := cfg.Validate(); err == nil {
		t.Fatal("short secret should fail validation")
	}
}

func TestAuthConfig_BcryptCostRange(t *testing.T) {
	for _, cost := range []int{0, 3, 32} {
		cfg := AuthConfig{Secret: "0123456789abcdef", BcryptCost: cost}
		if err := cfg.Validate(); err == nil {
			t.Errorf("cost %d should fail validation", cost)
		}
	}
}

func TestAuthConfig_NegativeTTL(t *testing.T) {
	cfg := AuthConfig{Secret: "0123456789abcdef", BcryptCost: 10, TokenTTL: -time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative ttl should fail validation")
	}
}

func TestSectionsConfig(t *testing.T) {
	cfg := SectionsConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty seed list should fail")
	}
	cfg.Seed = []string{"Education", ""}
	if err := cfg.Validate(); err == nil {
		t.Error("blank section name should fail")
	}
}

func TestMCPConfig(t *testing.T) {
	if err := (&MCPConfig{}).Validate(); err == nil {
		t.Error("missing username should fail")
	}
	if err := (&MCPConfig{Username: "alice"}).Validate(); err != nil {
		t.Errorf("username set should pass: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("RESUMECTL_TEST_SECRET", "a-very-long-test-secret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
sqlite:
  path: /tmp/resumectl.db
auth:
  secret: ${RESUMECTL_TEST_SECRET}
  token_ttl: 1h
  bcrypt_cost: 12
sections:
  seed: [Education, Projects]
cache:
  sections_ttl: 30s
mcp:
  username: alice
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.App.HTTP.Address() != ":9090" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
	if cfg.Auth.Secret != "a-very-long-test-secret" || cfg.Auth.TokenTTL != time.Hour || cfg.Auth.BcryptCost != 12 {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if len(cfg.Sections.Seed) != 2 || cfg.Sections.Seed[1] != "Projects" {
		t.Errorf("sections = %v", cfg.Sections.Seed)
	}
	if cfg.Cache.SectionsTTL != 30*time.Second {
		t.Errorf("sections ttl = %v", cfg.Cache.SectionsTTL)
	}
	// Defaults survive for keys the file leaves out.
	if cfg.Events.ListThrottle != 2*time.Second {
		t.Errorf("list throttle = %v", cfg.Events.ListThrottle)
	}
	if cfg.MCP.Username != "alice" {
		t.Errorf("mcp username = %q", cfg.MCP.Username)
	}
}

func TestReloadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	write := func(level string) {
		t.Helper()
		data := "app:\n  log_level: " + level + "\n  http:\n    port: 8080\nauth:\n  secret: 0123456789abcdef\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	level := new(slog.LevelVar)

	write("warn")
	reloadLogLevel(path, level, logger)
	if level.Level() != slog.LevelWarn {
		t.Fatalf("level = %v, want warn", level.Level())
	}

	// An invalid file keeps the current level.
	write("loud")
	reloadLogLevel(path, level, logger)
	if level.Level() != slog.LevelWarn {
		t.Fatalf("level = %v after invalid file, want warn", level.Level())
	}
}
