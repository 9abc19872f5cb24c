package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vehiclemodels/internal/core"
)

func createConfigTempFile(t *testing.T, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(filePath, []byte(content), core.FilePermissionReadWrite); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return filePath
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "PORT", "GIN_MODE", "MODELS_API_BASE_URL", "CORS_ALLOW_ORIGIN", "RATE_LIMIT", "VIEW_TTL", "RENDER_TIMEOUT", "REQUEST_TIMEOUT", "SERVICE_DB_MODE", "SERVICE_DB_PATH", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoadServerConfigFromEnv_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadServerConfigFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv failed: %v", err)
	}

	if cfg.Port != core.DefaultPort {
		t.Errorf("expected port %s, got %s", core.DefaultPort, cfg.Port)
	}
	if cfg.ModelsAPIBaseURL != "http://localhost:8100" {
		t.Errorf("unexpected base url %s", cfg.ModelsAPIBaseURL)
	}
	if cfg.ViewTTL != core.DefaultViewTTL {
		t.Errorf("unexpected view ttl %v", cfg.ViewTTL)
	}
	if cfg.HTTPClientSettings.RequestTimeout != core.HTTPRequestTimeout {
		t.Errorf("unexpected request timeout %v", cfg.HTTPClientSettings.RequestTimeout)
	}
	if cfg.ServiceDB.Mode != core.ServiceDBModeInMemory || cfg.ServiceDB.Path != core.DefaultServiceDBPath {
		t.Errorf("unexpected service db settings %+v", cfg.ServiceDB)
	}
}

func TestLoadServerConfigFromEnv_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MODELS_API_BASE_URL", "http://inventory:8100")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT", "10")

	cfg, err := LoadServerConfigFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.ModelsAPIBaseURL != "http://inventory:8100" {
		t.Errorf("unexpected base url %s", cfg.ModelsAPIBaseURL)
	}
	if cfg.HTTPClientSettings.RequestTimeout != 3*time.Second {
		t.Errorf("unexpected request timeout %v", cfg.HTTPClientSettings.RequestTimeout)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("unexpected rate limit %d", cfg.RateLimit)
	}
}

func TestLoadServerConfigFromEnv_FileThenEnv(t *testing.T) {
	clearConfigEnv(t)
	path := createConfigTempFile(t, `
port: "7000"
models_api_base_url: http://file-inventory:8100
view_ttl: 2m
rate_limit: 50
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := LoadServerConfigFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv failed: %v", err)
	}
	if cfg.Port != "7001" {
		t.Errorf("env should win over file, got port %s", cfg.Port)
	}
	if cfg.ModelsAPIBaseURL != "http://file-inventory:8100" {
		t.Errorf("file value should apply, got %s", cfg.ModelsAPIBaseURL)
	}
	if cfg.ViewTTL != 2*time.Minute {
		t.Errorf("expected view ttl 2m, got %v", cfg.ViewTTL)
	}
	if cfg.RateLimit != 50 {
		t.Errorf("expected rate limit 50, got %d", cfg.RateLimit)
	}
}

func TestLoadServerConfigFromEnv_InvalidBaseURL(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MODELS_API_BASE_URL", "localhost:8100")

	_, err := LoadServerConfigFromEnv(&core.NopLogger{})
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != core.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestLoadServerConfigFromEnv_InvalidDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("VIEW_TTL", "forever")

	if _, err := LoadServerConfigFromEnv(&core.NopLogger{}); err == nil {
		t.Fatal("expected error for malformed VIEW_TTL")
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	_, err := LoadFileConfig("/tmp/nonexistent_vehiclemodels_config_12345.yaml")
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != core.ErrCodeConfigLoadFailed {
		t.Errorf("expected CONFIG_LOAD_FAILED for missing file, got %v", err)
	}

	path := createConfigTempFile(t, "port: [unclosed")
	if _, err := LoadFileConfig(path); err == nil {
		t.Error("expected error for malformed yaml")
	}

	path = createConfigTempFile(t, "view_ttl: nope\n")
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig failed: %v", err)
	}
	cfg := DefaultServerConfig()
	if err := fc.apply(&cfg); err == nil {
		t.Error("expected error for malformed view_ttl")
	}
}

func TestServerConfig_ValidateGinMode(t *testing.T) {
	cfg := DefaultServerConfig()
	for _, mode := range []string{"debug", "release", "test"} {
		cfg.GinMode = mode
		if err := cfg.Validate(); err != nil {
			t.Errorf("mode %q should be valid: %v", mode, err)
		}
	}

	cfg.GinMode = "verbose"
	err := cfg.Validate()
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != core.ErrCodeInvalidConfig {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestLoadServerConfigFromEnv_ServiceDB(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVICE_DB_MODE", core.ServiceDBModeExternal)
	t.Setenv("DATABASE_URL", "postgres://svc@db:5432/service")

	cfg, err := LoadServerConfigFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv failed: %v", err)
	}
	if cfg.ServiceDB.Mode != core.ServiceDBModeExternal || cfg.ServiceDB.DatabaseURL != "postgres://svc@db:5432/service" {
		t.Errorf("unexpected service db settings %+v", cfg.ServiceDB)
	}

	path := createConfigTempFile(t, "service_db_mode: disk\nservice_db_path: /data/service.db\n")
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", path)
	cfg, err = LoadServerConfigFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv with file failed: %v", err)
	}
	if cfg.ServiceDB.Mode != core.ServiceDBModeDisk || cfg.ServiceDB.Path != "/data/service.db" {
		t.Errorf("unexpected service db settings from file %+v", cfg.ServiceDB)
	}
}

func TestServerConfig_ValidateServiceDB(t *testing.T) {
	tests := []struct {
		name    string
		db      ServiceDBSettings
		wantErr bool
	}{
		{"in-memory", ServiceDBSettings{Mode: core.ServiceDBModeInMemory}, false},
		{"disk", ServiceDBSettings{Mode: core.ServiceDBModeDisk, Path: "svc.db"}, false},
		{"external", ServiceDBSettings{Mode: core.ServiceDBModeExternal, DatabaseURL: "postgres://db/svc"}, false},
		{"external without url", ServiceDBSettings{Mode: core.ServiceDBModeExternal}, true},
		{"unknown mode", ServiceDBSettings{Mode: "cloud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			cfg.ServiceDB = tt.db
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
