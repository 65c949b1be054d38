package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/yourorg/listings-api/internal/env"
	"github.com/yourorg/listings-api/internal/listing"
)

const DefaultFile = "configs/app.yaml"

// Source kinds.
const (
	SourceAuto      = "auto"
	SourceMock      = "mock"
	SourcePartner   = "partner"
	SourceSecondary = "secondary"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Source    SourceConfig    `yaml:"source"`
	Partner   PartnerConfig   `yaml:"partner"`
	Secondary SecondaryConfig `yaml:"secondary"`
	Cache     CacheConfig     `yaml:"cache"`
	Listings  ListingsConfig  `yaml:"listings"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Hydrator  HydratorConfig  `yaml:"hydrator"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	Env         string `yaml:"env"`
	StaticDir   string `yaml:"static_dir"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SourceConfig struct {
	Mode    string `yaml:"mode"`
	UseMock bool   `yaml:"use_mock"`
}

type PartnerConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	PartnerKey string        `yaml:"partner_key"`
	Timeout    time.Duration `yaml:"timeout"`
	RPS        float64       `yaml:"rps"`
}

type SecondaryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	ListingsTTL   time.Duration `yaml:"listings_ttl"`
	ReferenceTTL  time.Duration `yaml:"reference_ttl"`
	StatsTTL      time.Duration `yaml:"stats_ttl"`
}

type ListingsConfig struct {
	PinnedAgent   string   `yaml:"pinned_agent"`
	RegionLat     float64  `yaml:"region_lat"`
	RegionLng     float64  `yaml:"region_lng"`
	ValidCities   []string `yaml:"valid_cities"`
	FeaturedCount int      `yaml:"featured_count"`
	PhotoCount    int      `yaml:"photo_count"`
}

type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	SearchMax   int           `yaml:"search_max"`
}

type HydratorConfig struct {
	PGDSN    string        `yaml:"pg_dsn"`
	Cities   []string      `yaml:"cities"`
	Interval time.Duration `yaml:"interval"`
	PageSize int           `yaml:"page_size"`
	MaxPages int           `yaml:"max_pages"`
	Pause    time.Duration `yaml:"pause"`
	RunOnce  bool          `yaml:"run_once"`
}

func defaults() Config {
	return Config{
		Server:    ServerConfig{Port: 3000, Env: "development"},
		Log:       LogConfig{Level: "info", Format: "json"},
		Source:    SourceConfig{Mode: SourceAuto},
		Partner:   PartnerConfig{BaseURL: "https://api.idxbroker.com", Timeout: 10 * time.Second},
		Secondary: SecondaryConfig{Timeout: 4 * time.Second},
		Cache: CacheConfig{
			Backend:      "memory",
			RedisAddr:    "localhost:6379",
			ListingsTTL:  5 * time.Minute,
			ReferenceTTL: time.Hour,
			StatsTTL:     30 * time.Minute,
		},
		Listings: ListingsConfig{
			PinnedAgent:   "CN222505",
			RegionLat:     42.6667,
			RegionLng:     -71.3020,
			FeaturedCount: 6,
			PhotoCount:    5,
		},
		RateLimit: RateLimitConfig{MaxRequests: 100, Window: 15 * time.Minute, SearchMax: 50},
		Hydrator: HydratorConfig{
			Interval: 6 * time.Hour,
			PageSize: 50,
			MaxPages: 20,
			Pause:    250 * time.Millisecond,
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE
// (default configs/app.yaml, optional), then environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := defaults()
	path := env.Get("CONFIG_FILE", DefaultFile)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = env.GetInt("PORT", c.Server.Port)
	c.Server.Env = env.Get("APP_ENV", c.Server.Env)
	c.Server.StaticDir = env.Get("STATIC_DIR", c.Server.StaticDir)
	c.Server.AdminAPIKey = env.Get("ADMIN_API_KEY", c.Server.AdminAPIKey)

	c.Log.Level = env.Get("LOG_LEVEL", c.Log.Level)
	c.Log.Format = env.Get("LOG_FORMAT", c.Log.Format)

	c.Source.Mode = strings.ToLower(env.Get("DATA_SOURCE", c.Source.Mode))
	c.Source.UseMock = env.GetBool("USE_MOCK_DATA", c.Source.UseMock)

	c.Partner.BaseURL = env.Get("PARTNER_API_URL", c.Partner.BaseURL)
	c.Partner.APIKey = env.Get("PARTNER_API_KEY", c.Partner.APIKey)
	c.Partner.PartnerKey = env.Get("PARTNER_KEY", c.Partner.PartnerKey)
	c.Partner.Timeout = env.GetDuration("PARTNER_TIMEOUT", c.Partner.Timeout)
	c.Partner.RPS = env.GetFloat("PARTNER_RPS", c.Partner.RPS)

	c.Secondary.BaseURL = env.Get("SECONDARY_API_URL", c.Secondary.BaseURL)
	c.Secondary.Timeout = env.GetDuration("SECONDARY_TIMEOUT", c.Secondary.Timeout)

	c.Cache.Backend = strings.ToLower(env.Get("CACHE_BACKEND", c.Cache.Backend))
	c.Cache.RedisAddr = env.Get("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = env.Get("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = env.GetInt("REDIS_DB", c.Cache.RedisDB)
	c.Cache.ListingsTTL = env.GetDuration("CACHE_LISTINGS_TTL", c.Cache.ListingsTTL)
	c.Cache.ReferenceTTL = env.GetDuration("CACHE_REFERENCE_TTL", c.Cache.ReferenceTTL)
	c.Cache.StatsTTL = env.GetDuration("CACHE_STATS_TTL", c.Cache.StatsTTL)

	c.Listings.PinnedAgent = env.Get("PINNED_AGENT_ID", c.Listings.PinnedAgent)
	c.Listings.RegionLat = env.GetFloat("REGION_LAT", c.Listings.RegionLat)
	c.Listings.RegionLng = env.GetFloat("REGION_LNG", c.Listings.RegionLng)
	c.Listings.ValidCities = env.List("VALID_CITIES", c.Listings.ValidCities)
	c.Listings.FeaturedCount = env.GetInt("FEATURED_COUNT", c.Listings.FeaturedCount)
	c.Listings.PhotoCount = env.GetInt("PHOTO_COUNT", c.Listings.PhotoCount)

	c.RateLimit.MaxRequests = env.GetInt("RATE_LIMIT_MAX_REQUESTS", c.RateLimit.MaxRequests)
	c.RateLimit.Window = env.GetDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.RateLimit.SearchMax = env.GetInt("SEARCH_RATE_LIMIT", c.RateLimit.SearchMax)

	c.Hydrator.PGDSN = env.Get("PG_DSN", c.Hydrator.PGDSN)
	c.Hydrator.Cities = env.List("HYDRATOR_CITIES", c.Hydrator.Cities)
	c.Hydrator.Interval = env.GetDuration("HYDRATOR_INTERVAL", c.Hydrator.Interval)
	c.Hydrator.PageSize = env.GetInt("HYDRATOR_PAGE_SIZE", c.Hydrator.PageSize)
	c.Hydrator.MaxPages = env.GetInt("HYDRATOR_MAX_PAGES", c.Hydrator.MaxPages)
	c.Hydrator.Pause = env.GetDuration("HYDRATOR_PAUSE", c.Hydrator.Pause)
	c.Hydrator.RunOnce = env.GetBool("HYDRATOR_RUN_ONCE", c.Hydrator.RunOnce)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Source.Mode {
	case SourceAuto, SourceMock, SourcePartner, SourceSecondary:
	default:
		errs = append(errs, fmt.Errorf("DATA_SOURCE %q: want auto, mock, partner or secondary", c.Source.Mode))
	}
	if c.Source.Mode == SourcePartner && (c.Partner.APIKey == "" || c.Partner.PartnerKey == "") {
		errs = append(errs, errors.New("DATA_SOURCE=partner needs PARTNER_API_KEY and PARTNER_KEY"))
	}
	if c.Source.Mode == SourceSecondary && c.Secondary.BaseURL == "" {
		errs = append(errs, errors.New("DATA_SOURCE=secondary needs SECONDARY_API_URL"))
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q: want memory or redis", c.Cache.Backend))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

// SourceKind resolves which upstream backs the service. In auto mode the
// partner wins when both keys are set, then the secondary API when its URL
// is set; otherwise the mock set is used.
func (c *Config) SourceKind() string {
	if c.Source.UseMock {
		return SourceMock
	}
	switch c.Source.Mode {
	case SourcePartner, SourceSecondary, SourceMock:
		return c.Source.Mode
	}
	switch {
	case c.Partner.APIKey != "" && c.Partner.PartnerKey != "":
		return SourcePartner
	case c.Secondary.BaseURL != "":
		return SourceSecondary
	}
	return SourceMock
}

// Cities is the allow-list used for validation, defaulting to the built-in
// Massachusetts list.
func (c *Config) Cities() []string {
	if len(c.Listings.ValidCities) == 0 {
		return listing.MassachusettsCities
	}
	return c.Listings.ValidCities
}

// Redacted is the config with secrets masked, for the admin config route.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	c.Partner.APIKey = mask(c.Partner.APIKey)
	c.Partner.PartnerKey = mask(c.Partner.PartnerKey)
	c.Cache.RedisPassword = mask(c.Cache.RedisPassword)
	c.Server.AdminAPIKey = mask(c.Server.AdminAPIKey)
	c.Hydrator.PGDSN = mask(c.Hydrator.PGDSN)
	return c
}
