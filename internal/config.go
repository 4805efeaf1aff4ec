package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Notion NotionConfig      `yaml:"notion"`
	Assets AssetsConfig      `yaml:"assets"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Render RenderConfig      `yaml:"render"`
	Sync   SyncConfig        `yaml:"sync"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Notion.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// HTTPConfig holds preview server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NotionConfig holds the integration token and the database to sync.
type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// Validate validates the Notion configuration.
func (c *NotionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.DatabaseID, validation.Required),
	)
}

// AssetsConfig holds the local asset cache directory.
//
// IgnoreCache forces every eligible asset to be re-downloaded even when a
// cached copy exists; also settable through ANSUZ_IGNORE_ASSET_CACHE.
type AssetsConfig struct {
	Dir         string `yaml:"dir"`
	IgnoreCache bool   `yaml:"ignore_cache"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
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

// RenderConfig selects the output format and the optional transform stages,
// applied in the order listed.
type RenderConfig struct {
	Format string               `yaml:"format"`
	Stages []render.StageConfig `yaml:"stages"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	if c.Format == "" {
		c.Format = render.FormatHTML
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.In(render.FormatHTML, render.FormatMarkdown)),
	)
}

// SyncConfig holds sync pass behavior.
//
// Force re-renders every document regardless of fingerprint comparison;
// also settable through the ANSUZ_FORCE_SYNC environment variable.
type SyncConfig struct {
	Force           bool `yaml:"force"`
	IncludeArchived bool `yaml:"include_archived"`
}

// AuthConfig holds preview-server authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
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
		Assets: AssetsConfig{
			Dir: "./public/assets",
		},
		SQLite: SQLiteConfig{
			Path: "./ansuz.db",
		},
		Render: RenderConfig{
			Format: render.FormatHTML,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
