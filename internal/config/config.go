package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultConfigPath       = "config/config.yaml"
	defaultAddress          = ":4001"
	defaultDriver           = "mysql"
	defaultRadiusKm         = 50
	defaultLimit            = 50
	defaultDebounce         = 500 * time.Millisecond
	defaultMinLength        = 3
	defaultSuggestTimeout   = 8 * time.Second
	defaultLocationTimeout  = 10 * time.Second
	defaultLocationMaxAge   = 5 * time.Minute
	defaultUpstreamTimeout  = 15 * time.Second
	defaultCategoryCacheTTL = 10 * time.Minute
	defaultLogRetention     = 30 * 24 * time.Hour
	defaultGeocodeBaseURL   = "https://us1.locationiq.com/v1"
	defaultReverseBaseURL   = "https://api.bigdatacloud.net/data/reverse-geocode-client"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5174"}

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Marketplace struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"marketplace"`
	Geocode struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		ReverseBaseURL string `yaml:"reverse_base_url"`
	} `yaml:"geocode"`
	Auth struct {
		SigningKey string `yaml:"signing_key"`
	} `yaml:"auth"`
	Search struct {
		RadiusKm               int `yaml:"radius_km"`
		Limit                  int `yaml:"limit"`
		DebounceMS             int `yaml:"debounce_ms"`
		MinLength              int `yaml:"min_length"`
		SuggestTimeoutSeconds  int `yaml:"suggest_timeout_seconds"`
		LocationTimeoutSeconds int `yaml:"location_timeout_seconds"`
		LocationMaxAgeSeconds  int `yaml:"location_max_age_seconds"`
		CategoryCacheSeconds   int `yaml:"category_cache_seconds"`
		LogRetentionDays       int `yaml:"log_retention_days"`
	} `yaml:"search"`
}

// LoadConfig reads the YAML file at path (a missing file is allowed), applies
// environment overrides and defaults, then validates the result.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Address = ":" + v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DB_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Marketplace.BaseURL, "MARKETPLACE_BASE_URL")
	setString(&c.Geocode.BaseURL, "GEOCODE_BASE_URL")
	setString(&c.Geocode.APIKey, "GEOCODE_API_KEY")
	setString(&c.Geocode.ReverseBaseURL, "REVERSE_GEOCODE_BASE_URL")
	setString(&c.Auth.SigningKey, "JWT_SIGNING_KEY")

	ints := []struct {
		name string
		dst  *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"MARKETPLACE_TIMEOUT_SECONDS", &c.Marketplace.TimeoutSeconds},
		{"SEARCH_RADIUS_KM", &c.Search.RadiusKm},
		{"SEARCH_LIMIT", &c.Search.Limit},
		{"SUGGEST_DEBOUNCE_MS", &c.Search.DebounceMS},
		{"SUGGEST_MIN_LENGTH", &c.Search.MinLength},
		{"SUGGEST_TIMEOUT_SECONDS", &c.Search.SuggestTimeoutSeconds},
		{"LOCATION_TIMEOUT_SECONDS", &c.Search.LocationTimeoutSeconds},
		{"LOCATION_MAX_AGE_SECONDS", &c.Search.LocationMaxAgeSeconds},
		{"CATEGORY_CACHE_SECONDS", &c.Search.CategoryCacheSeconds},
		{"SEARCH_LOG_RETENTION_DAYS", &c.Search.LogRetentionDays},
	}
	for _, item := range ints {
		v, err := readIntEnv(item.name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", item.name, err)
		}
		if v != nil {
			*item.dst = *v
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = append([]string(nil), defaultOrigins...)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = defaultDriver
	}
	if c.Geocode.BaseURL == "" {
		c.Geocode.BaseURL = defaultGeocodeBaseURL
	}
	if c.Geocode.ReverseBaseURL == "" {
		c.Geocode.ReverseBaseURL = defaultReverseBaseURL
	}
	if c.Search.RadiusKm == 0 {
		c.Search.RadiusKm = defaultRadiusKm
	}
	if c.Search.Limit == 0 {
		c.Search.Limit = defaultLimit
	}
	if c.Search.DebounceMS == 0 {
		c.Search.DebounceMS = int(defaultDebounce / time.Millisecond)
	}
	if c.Search.MinLength == 0 {
		c.Search.MinLength = defaultMinLength
	}
	if c.Search.SuggestTimeoutSeconds == 0 {
		c.Search.SuggestTimeoutSeconds = int(defaultSuggestTimeout / time.Second)
	}
	if c.Search.LocationTimeoutSeconds == 0 {
		c.Search.LocationTimeoutSeconds = int(defaultLocationTimeout / time.Second)
	}
	if c.Search.LocationMaxAgeSeconds == 0 {
		c.Search.LocationMaxAgeSeconds = int(defaultLocationMaxAge / time.Second)
	}
	if c.Search.CategoryCacheSeconds == 0 {
		c.Search.CategoryCacheSeconds = int(defaultCategoryCacheTTL / time.Second)
	}
	if c.Search.LogRetentionDays == 0 {
		c.Search.LogRetentionDays = int(defaultLogRetention / (24 * time.Hour))
	}
	if c.Marketplace.TimeoutSeconds == 0 {
		c.Marketplace.TimeoutSeconds = int(defaultUpstreamTimeout / time.Second)
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Marketplace.BaseURL) == "" {
		return errors.New("MARKETPLACE_BASE_URL is required")
	}
	switch c.Database.Driver {
	case "mysql", "pgx":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Search.RadiusKm < 0 || c.Search.Limit < 0 {
		return errors.New("search radius and limit must be positive")
	}
	if c.Search.DebounceMS < 0 || c.Search.MinLength < 0 {
		return errors.New("suggestion debounce and min length must not be negative")
	}
	if c.Search.SuggestTimeoutSeconds < 0 || c.Search.LocationTimeoutSeconds < 0 || c.Search.LocationMaxAgeSeconds < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMS) * time.Millisecond
}

func (c Config) SuggestTimeout() time.Duration {
	return time.Duration(c.Search.SuggestTimeoutSeconds) * time.Second
}

func (c Config) LocationTimeout() time.Duration {
	return time.Duration(c.Search.LocationTimeoutSeconds) * time.Second
}

func (c Config) LocationMaxAge() time.Duration {
	return time.Duration(c.Search.LocationMaxAgeSeconds) * time.Second
}

func (c Config) CategoryCacheTTL() time.Duration {
	return time.Duration(c.Search.CategoryCacheSeconds) * time.Second
}

func (c Config) LogRetention() time.Duration {
	return time.Duration(c.Search.LogRetentionDays) * 24 * time.Hour
}

func (c Config) MarketplaceTimeout() time.Duration {
	return time.Duration(c.Marketplace.TimeoutSeconds) * time.Second
}

func setString(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
