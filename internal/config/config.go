package config

import (
	"os"
	"strings"
	"time"

	"vehiclemodels/internal/core"
	"vehiclemodels/internal/service"
	"vehiclemodels/internal/util"

	"gopkg.in/yaml.v3"
)

// ServerConfig server configuration
type ServerConfig struct {
	Port               string
	GinMode            string
	ModelsAPIBaseURL   string
	CORSAllowOrigin    string
	RateLimit          int
	ViewTTL            time.Duration
	RenderTimeout      time.Duration
	HTTPClientSettings HTTPClientSettings
	ServiceDB          ServiceDBSettings
	Storage            core.StorageInterface
	ServiceStore       service.Store
	Logger             core.Logger
}

// ServiceDBSettings selects the database behind the service department API.
type ServiceDBSettings struct {
	Mode        string
	Path        string
	DatabaseURL string
}

// HTTPClientSettings HTTP client configuration
type HTTPClientSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	RequestTimeout      time.Duration
}

// DefaultHTTPClientSettings default HTTP client settings
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:        core.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: core.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     core.HTTPMaxConnsPerHost,
		IdleConnTimeout:     core.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: core.HTTPTLSHandshakeTimeout,
		RequestTimeout:      core.HTTPRequestTimeout,
	}
}

// DefaultServerConfig returns the configuration used when nothing is set.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:               core.DefaultPort,
		GinMode:            core.DefaultGinMode,
		ModelsAPIBaseURL:   core.DefaultModelsAPIBaseURL,
		CORSAllowOrigin:    "*",
		RateLimit:          core.DefaultRateLimit,
		ViewTTL:            core.DefaultViewTTL,
		RenderTimeout:      core.DefaultRenderWaitTimeout,
		HTTPClientSettings: DefaultHTTPClientSettings(),
		ServiceDB: ServiceDBSettings{
			Mode: core.ServiceDBModeInMemory,
			Path: core.DefaultServiceDBPath,
		},
	}
}

// FileConfig is the optional YAML configuration file layout. Zero values
// leave the defaults untouched.
type FileConfig struct {
	Port             string `yaml:"port"`
	GinMode          string `yaml:"gin_mode"`
	ModelsAPIBaseURL string `yaml:"models_api_base_url"`
	CORSAllowOrigin  string `yaml:"cors_allow_origin"`
	RateLimit        int    `yaml:"rate_limit"`
	ViewTTL          string `yaml:"view_ttl"`
	RenderTimeout    string `yaml:"render_timeout"`
	RequestTimeout   string `yaml:"request_timeout"`
	ServiceDBMode    string `yaml:"service_db_mode"`
	ServiceDBPath    string `yaml:"service_db_path"`
}

// LoadFileConfig reads a YAML configuration file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from CONFIG_FILE, not user input
	if err != nil {
		return fc, core.ErrConfigLoadFailed(path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, core.ErrConfigLoadFailed(path, err)
	}
	return fc, nil
}

// apply overlays the non-zero file values onto cfg.
func (fc FileConfig) apply(cfg *ServerConfig) error {
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.GinMode != "" {
		cfg.GinMode = fc.GinMode
	}
	if fc.ModelsAPIBaseURL != "" {
		cfg.ModelsAPIBaseURL = fc.ModelsAPIBaseURL
	}
	if fc.CORSAllowOrigin != "" {
		cfg.CORSAllowOrigin = fc.CORSAllowOrigin
	}
	if fc.ServiceDBMode != "" {
		cfg.ServiceDB.Mode = fc.ServiceDBMode
	}
	if fc.ServiceDBPath != "" {
		cfg.ServiceDB.Path = fc.ServiceDBPath
	}
	if fc.RateLimit != 0 {
		if fc.RateLimit < 0 {
			return core.ErrInvalidConfig("rate_limit", "must be positive")
		}
		cfg.RateLimit = fc.RateLimit
	}

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"view_ttl", fc.ViewTTL, &cfg.ViewTTL},
		{"render_timeout", fc.RenderTimeout, &cfg.RenderTimeout},
		{"request_timeout", fc.RequestTimeout, &cfg.HTTPClientSettings.RequestTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil || parsed <= 0 {
			return core.ErrInvalidConfig(d.field, "must be a positive duration")
		}
		*d.dst = parsed
	}
	return nil
}

// LoadServerConfigFromEnv loads server config from environment variables.
// When CONFIG_FILE is set, its values are applied first and env vars win.
func LoadServerConfigFromEnv(logger core.Logger) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return cfg, err
		}
		if err := fc.apply(&cfg); err != nil {
			return cfg, err
		}
		logger.Info("Loaded configuration file %s", path)
	}

	cfg.Port = util.GetEnvWithDefault("PORT", cfg.Port)
	cfg.GinMode = util.GetEnvWithDefault("GIN_MODE", cfg.GinMode)
	cfg.ModelsAPIBaseURL = util.GetEnvWithDefault("MODELS_API_BASE_URL", cfg.ModelsAPIBaseURL)
	cfg.CORSAllowOrigin = util.GetEnvWithDefault("CORS_ALLOW_ORIGIN", cfg.CORSAllowOrigin)
	cfg.ServiceDB.Mode = util.GetEnvWithDefault("SERVICE_DB_MODE", cfg.ServiceDB.Mode)
	cfg.ServiceDB.Path = util.GetEnvWithDefault("SERVICE_DB_PATH", cfg.ServiceDB.Path)
	cfg.ServiceDB.DatabaseURL = util.GetEnvWithDefault("DATABASE_URL", cfg.ServiceDB.DatabaseURL)

	rateLimit, err := util.GetEnvInt("RATE_LIMIT", cfg.RateLimit)
	if err != nil {
		logger.Warn("Invalid RATE_LIMIT, using %d: %v", cfg.RateLimit, err)
	}
	cfg.RateLimit = rateLimit

	if cfg.ViewTTL, err = util.GetEnvDuration("VIEW_TTL", cfg.ViewTTL); err != nil {
		return cfg, core.ErrInvalidConfig("VIEW_TTL", err.Error())
	}
	if cfg.RenderTimeout, err = util.GetEnvDuration("RENDER_TIMEOUT", cfg.RenderTimeout); err != nil {
		return cfg, core.ErrInvalidConfig("RENDER_TIMEOUT", err.Error())
	}
	if cfg.HTTPClientSettings.RequestTimeout, err = util.GetEnvDuration("REQUEST_TIMEOUT", cfg.HTTPClientSettings.RequestTimeout); err != nil {
		return cfg, core.ErrInvalidConfig("REQUEST_TIMEOUT", err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger.Info("Inventory API base URL: %s", cfg.ModelsAPIBaseURL)
	return cfg, nil
}

// Validate checks the fields the server cannot run without.
func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return core.ErrInvalidConfig("PORT", "must not be empty")
	}
	if _, err := util.JoinURL(c.ModelsAPIBaseURL, core.ModelsEndpointPath); err != nil {
		return core.ErrInvalidConfig("MODELS_API_BASE_URL", err.Error())
	}
	if c.RateLimit <= 0 {
		return core.ErrInvalidConfig("RATE_LIMIT", "must be positive")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return core.ErrInvalidConfig("GIN_MODE", "must be debug, release or test")
	}
	switch c.ServiceDB.Mode {
	case core.ServiceDBModeInMemory, core.ServiceDBModeDisk:
	case core.ServiceDBModeExternal:
		if strings.TrimSpace(c.ServiceDB.DatabaseURL) == "" {
			return core.ErrInvalidConfig("DATABASE_URL", "required when SERVICE_DB_MODE is external")
		}
	default:
		return core.ErrInvalidConfig("SERVICE_DB_MODE", "must be in-memory, disk or external")
	}
	return nil
}
