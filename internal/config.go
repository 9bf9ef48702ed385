package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Sections SectionsConfig    `yaml:"sections"`
	Cache    CacheConfig       `yaml:"cache"`
	Events   EventsConfig      `yaml:"events"`
	MCP      MCPConfig         `yaml:"mcp"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Sections.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds token signing and password hashing configuration.
//
// A zero TokenTTL issues tokens that never expire.
type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Secret, validation.Required.Error("is required to sign tokens"), validation.Length(16, 0)),
		validation.Field(&c.TokenTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
	)
}

// SectionsConfig lists the section names seeded at startup.
type SectionsConfig struct {
	Seed []string `yaml:"seed"`
}

// Validate validates the sections configuration.
func (c *SectionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Seed, validation.Required, validation.Each(validation.Required, validation.Length(1, 50))),
	)
}

// CacheConfig holds in-memory cache configuration.
type CacheConfig struct {
	SectionsTTL time.Duration `yaml:"sections_ttl"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SectionsTTL, validation.Required, validation.Min(time.Second)),
	)
}

// EventsConfig holds server-sent events configuration.
type EventsConfig struct {
	// ListThrottle is the minimum gap between two "documents.changed"
	// events sent to one user.
	ListThrottle time.Duration `yaml:"list_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ListThrottle, validation.Min(time.Duration(0))),
	)
}

// MCPConfig holds the MCP server configuration.
type MCPConfig struct {
	// Username is the user whose data the MCP tools read.
	Username string `yaml:"username"`
}

var errMCPUsername = errors.New("mcp: username is required")

// Validate validates the MCP configuration. It only applies to the mcp
// command.
func (c *MCPConfig) Validate() error {
	if c.Username == "" {
		return errMCPUsername
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./resumectl.db",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: bcrypt.DefaultCost,
		},
		Sections: SectionsConfig{
			Seed: []string{"Education", "Experience", "Skills"},
		},
		Cache: CacheConfig{
			SectionsTTL: 5 * time.Minute,
		},
		Events: EventsConfig{
			ListThrottle: 2 * time.Second,
		},
	}
}
