package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/docview/internal/config"
	"github.com/JaimeStill/docview/pkg/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

func TestConfig_Finalize_Defaults(t *testing.T) {
	cfg := &config.Config{}

	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("API.BaseURL = %q, want default", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutDuration() != 30*time.Second {
		t.Errorf("API.TimeoutDuration() = %v, want 30s", cfg.API.TimeoutDuration())
	}
	if cfg.API.MaxFileSizeBytes() != 100_000_000 {
		t.Errorf("API.MaxFileSizeBytes() = %d, want 100000000", cfg.API.MaxFileSizeBytes())
	}
	if cfg.Auth.TokenEnv != "DOCVIEW_TOKEN" {
		t.Errorf("Auth.TokenEnv = %q, want DOCVIEW_TOKEN", cfg.Auth.TokenEnv)
	}
	if cfg.Preview.MaxLive != 4 {
		t.Errorf("Preview.MaxLive = %d, want 4", cfg.Preview.MaxLive)
	}
	if cfg.Storage.BasePath != ".data/downloads" {
		t.Errorf("Storage.BasePath = %q, want .data/downloads", cfg.Storage.BasePath)
	}
	if cfg.Logging.Level != logging.LevelInfo || cfg.Logging.Format != logging.FormatText {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
	if cfg.ShutdownTimeoutDuration() != 10*time.Second {
		t.Errorf("ShutdownTimeoutDuration() = %v, want 10s", cfg.ShutdownTimeoutDuration())
	}
}

func TestConfig_Finalize_EnvOverride(t *testing.T) {
	t.Setenv(config.EnvAPIBaseURL, "https://docs.example.com/")
	t.Setenv(config.EnvAPIMaxFileSize, "2MB")
	t.Setenv(config.EnvPreviewMaxLive, "2")
	t.Setenv(config.EnvStorageBasePath, "/tmp/dl")
	t.Setenv("LOGGING_LEVEL", "DEBUG")

	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.API.BaseURL != "https://docs.example.com" {
		t.Errorf("API.BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.API.MaxFileSizeBytes() != 2_000_000 {
		t.Errorf("API.MaxFileSizeBytes() = %d, want 2000000", cfg.API.MaxFileSizeBytes())
	}
	if cfg.Preview.MaxLive != 2 {
		t.Errorf("Preview.MaxLive = %d, want 2", cfg.Preview.MaxLive)
	}
	if cfg.Storage.BasePath != "/tmp/dl" {
		t.Errorf("Storage.BasePath = %q, want /tmp/dl", cfg.Storage.BasePath)
	}
	if cfg.Logging.Level != logging.LevelDebug {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestConfig_Finalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"relative base url", config.Config{API: config.APIConfig{BaseURL: "docs.example.com"}}},
		{"bad timeout", config.Config{API: config.APIConfig{Timeout: "soon"}}},
		{"negative timeout", config.Config{API: config.APIConfig{Timeout: "-1s"}}},
		{"bad file size", config.Config{API: config.APIConfig{MaxFileSize: "lots"}}},
		{"bad max live", config.Config{Preview: config.PreviewConfig{MaxLive: -1}}},
		{"bad shutdown timeout", config.Config{ShutdownTimeout: "never"}},
		{"bad log level", config.Config{Logging: logging.Config{Level: "loud"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(); err == nil {
				t.Error("Finalize() succeeded, want error")
			}
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	base := &config.Config{
		API:     config.APIConfig{BaseURL: "http://base", Timeout: "5s"},
		Storage: config.StorageConfig{BasePath: "/base"},
	}
	overlay := &config.Config{
		API:     config.APIConfig{BaseURL: "http://overlay"},
		Preview: config.PreviewConfig{MaxLive: 8},
	}

	base.Merge(overlay)

	if base.API.BaseURL != "http://overlay" {
		t.Errorf("API.BaseURL = %q, want overlay value", base.API.BaseURL)
	}
	if base.API.Timeout != "5s" {
		t.Errorf("API.Timeout = %q, want base value kept", base.API.Timeout)
	}
	if base.Storage.BasePath != "/base" {
		t.Errorf("Storage.BasePath = %q, want base value kept", base.Storage.BasePath)
	}
	if base.Preview.MaxLive != 8 {
		t.Errorf("Preview.MaxLive = %d, want 8", base.Preview.MaxLive)
	}
}

func TestLoad_FileAndOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeFile(t, dir, config.BaseConfigFile, `
shutdown_timeout = "3s"

[api]
base_url = "http://files.local:9000"
timeout = "12s"

[storage]
base_path = "downloads"
`)
	writeFile(t, dir, "docview.staging.toml", `
[api]
timeout = "45s"
`)
	t.Setenv(config.EnvDocviewEnv, "staging")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.API.BaseURL != "http://files.local:9000" {
		t.Errorf("API.BaseURL = %q, want file value", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutDuration() != 45*time.Second {
		t.Errorf("API.TimeoutDuration() = %v, want overlay 45s", cfg.API.TimeoutDuration())
	}
	if cfg.Storage.BasePath != "downloads" {
		t.Errorf("Storage.BasePath = %q, want downloads", cfg.Storage.BasePath)
	}
	if cfg.ShutdownTimeoutDuration() != 3*time.Second {
		t.Errorf("ShutdownTimeoutDuration() = %v, want 3s", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.API.BaseURL != "" {
		t.Errorf("API.BaseURL = %q, want empty before Finalize", cfg.API.BaseURL)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load() succeeded for missing explicit file, want error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.toml", "[api\nbase_url = ")

	if _, err := config.Load(path); err == nil {
		t.Error("Load() succeeded for invalid TOML, want error")
	}
}
