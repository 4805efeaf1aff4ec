package internal

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/render"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Notion.Token = "secret"
	cfg.Notion.DatabaseID = "db-id"
	return cfg
}

func TestConfigValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config should pass: %v", err)
	}
}

func TestNotionConfigRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Notion.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing token should fail")
	}

	cfg = validConfig()
	cfg.Notion.DatabaseID = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing database id should fail")
	}
}

func TestHTTPConfigPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 should fail")
	}

	cfg = validConfig()
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("out-of-range port should fail")
	}
}

func TestRenderConfigFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Render.Format = "pdf"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown format should fail")
	}

	cfg = validConfig()
	cfg.Render.Format = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty format should default: %v", err)
	}
	if cfg.Render.Format != render.FormatHTML {
		t.Errorf("format = %q, want %q", cfg.Render.Format, render.FormatHTML)
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
