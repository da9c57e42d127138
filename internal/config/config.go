package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/model"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "ATSPROBE_CONFIG"

// DefaultPath is used when neither the flag nor EnvPath is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for atsprobe.
type Config struct {
	Domains      []string
	Discovery    DiscoveryConfig
	RateLimit    RateLimitConfig
	Scraper      ScraperConfig
	Store        StoreConfig
	Cache        CacheConfig
	Schedule     ScheduleConfig
	Notification NotificationConfig
}

// DiscoveryConfig controls probing and batch runs.
type DiscoveryConfig struct {
	Concurrency   int
	MaxDomains    int
	ProbeTimeout  time.Duration
	FetchTimeout  time.Duration
	Retries       int
	RetryDelay    time.Duration
	ProviderOrder []model.Provider
	Fallback      bool // scrape careers pages when no provider matches
	CareersPaths  []string
}

// RateLimitConfig controls per-provider request pacing.
type RateLimitConfig struct {
	MinDelay          time.Duration            // applied to every provider without an override
	ProviderOverrides map[string]time.Duration // keyed by provider name
}

// MinDelayFor returns the configured delay for the given provider, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(provider string) time.Duration {
	if d, ok := r.ProviderOverrides[provider]; ok {
		return d
	}
	return r.MinDelay
}

// Limits returns the adapter rate limits for providers. Providers with neither
// an override nor a global MinDelay keep the adapter defaults.
func (r RateLimitConfig) Limits(providers []model.Provider) map[model.Provider]time.Duration {
	out := make(map[model.Provider]time.Duration)
	for _, p := range providers {
		if _, ok := r.ProviderOverrides[string(p)]; ok || r.MinDelay > 0 {
			out[p] = r.MinDelayFor(string(p))
		}
	}
	return out
}

// ScraperConfig controls the careers-page fallback.
type ScraperConfig struct {
	Browser      bool   // enable the headless-browser stages
	BrowserPath  string // Chrome executable; searched on PATH when empty
	PageTimeout  time.Duration
	MaxPageBytes int64
}

// StoreConfig selects the job store.
type StoreConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// CacheConfig selects the provider-account cache.
type CacheConfig struct {
	Driver   string // "store" (same database as jobs) or "redis"
	RedisURL string
	TTL      time.Duration // redis only; 0 keeps entries forever
}

// ScheduleConfig controls the daemon.
type ScheduleConfig struct {
	Cron       string        // standard five-field cron spec
	PruneAfter time.Duration // closed postings older than this are deleted; 0 disables
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Domains      []string           `yaml:"domains"`
	DomainsFile  string             `yaml:"domains_file"`
	Discovery    rawDiscoveryConfig `yaml:"discovery"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Scraper      rawScraperConfig   `yaml:"scraper"`
	Store        StoreConfig        `yaml:"store"`
	Cache        rawCacheConfig     `yaml:"cache"`
	Schedule     rawScheduleConfig  `yaml:"schedule"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawDiscoveryConfig struct {
	Concurrency   int      `yaml:"concurrency"`
	MaxDomains    int      `yaml:"max_domains"`
	ProbeTimeout  string   `yaml:"probe_timeout"`
	FetchTimeout  string   `yaml:"fetch_timeout"`
	Retries       *int     `yaml:"retries"`
	RetryDelay    string   `yaml:"retry_delay"`
	ProviderOrder []string `yaml:"provider_order"`
	Fallback      *bool    `yaml:"fallback"`
	CareersPaths  []string `yaml:"careers_paths"`
}

type rawRateLimitConfig struct {
	MinDelay          string            `yaml:"min_delay"`
	ProviderOverrides map[string]string `yaml:"provider_overrides"`
}

type rawScraperConfig struct {
	Browser      *bool  `yaml:"browser"`
	BrowserPath  string `yaml:"browser_path"`
	PageTimeout  string `yaml:"page_timeout"`
	MaxPageBytes int64  `yaml:"max_page_bytes"`
}

type rawCacheConfig struct {
	Driver   string `yaml:"driver"`
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

type rawScheduleConfig struct {
	Cron       string `yaml:"cron"`
	PruneAfter string `yaml:"prune_after"`
}

// ResolvePath picks the config file: the flag value, then EnvPath, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	domains := raw.Domains
	if raw.DomainsFile != "" {
		file := raw.DomainsFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(filepath.Dir(path), file)
		}
		fromFile, err := ReadDomainsFile(file)
		if err != nil {
			return nil, err
		}
		domains = append(domains, fromFile...)
	}

	probeTimeout, err := parseDuration("discovery.probe_timeout", raw.Discovery.ProbeTimeout, adapter.DefaultProbeTimeout)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("discovery.fetch_timeout", raw.Discovery.FetchTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDuration("discovery.retry_delay", raw.Discovery.RetryDelay, 5*time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 0)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]time.Duration)
	for p, v := range raw.RateLimit.ProviderOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.provider_overrides[%q]: %w", p, err)
		}
		overrides[strings.ToLower(p)] = d
	}
	pageTimeout, err := parseDuration("scraper.page_timeout", raw.Scraper.PageTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("cache.ttl", raw.Cache.TTL, 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	pruneAfter, err := parseDuration("schedule.prune_after", raw.Schedule.PruneAfter, 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	order := make([]model.Provider, 0, len(raw.Discovery.ProviderOrder))
	for _, p := range raw.Discovery.ProviderOrder {
		order = append(order, model.Provider(strings.ToLower(strings.TrimSpace(p))))
	}
	if len(order) == 0 {
		order = adapter.DefaultOrder
	}

	retries := 2
	if raw.Discovery.Retries != nil {
		retries = *raw.Discovery.Retries
	}

	cfg := &Config{
		Domains: domains,
		Discovery: DiscoveryConfig{
			Concurrency:   withDefault(raw.Discovery.Concurrency, 10),
			MaxDomains:    withDefault(raw.Discovery.MaxDomains, 150),
			ProbeTimeout:  probeTimeout,
			FetchTimeout:  fetchTimeout,
			Retries:       retries,
			RetryDelay:    retryDelay,
			ProviderOrder: order,
			Fallback:      boolOr(raw.Discovery.Fallback, true),
			CareersPaths:  raw.Discovery.CareersPaths,
		},
		RateLimit: RateLimitConfig{
			MinDelay:          minDelay,
			ProviderOverrides: overrides,
		},
		Scraper: ScraperConfig{
			Browser:      boolOr(raw.Scraper.Browser, true),
			BrowserPath:  raw.Scraper.BrowserPath,
			PageTimeout:  pageTimeout,
			MaxPageBytes: withDefault(raw.Scraper.MaxPageBytes, 5<<20),
		},
		Store: StoreConfig{
			Driver: strOr(raw.Store.Driver, "sqlite"),
			Path:   strOr(raw.Store.Path, "atsprobe.db"),
			DSN:    raw.Store.DSN,
		},
		Cache: CacheConfig{
			Driver:   strOr(raw.Cache.Driver, "store"),
			RedisURL: raw.Cache.RedisURL,
			TTL:      cacheTTL,
		},
		Schedule: ScheduleConfig{
			Cron:       strOr(raw.Schedule.Cron, "0 */6 * * *"),
			PruneAfter: pruneAfter,
		},
		Notification: NotificationConfig{
			Type:       strOr(raw.Notification.Type, "log"),
			WebhookURL: raw.Notification.WebhookURL,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ReadDomainsFile reads one domain per line. Blank lines and lines starting
// with '#' are ignored.
func ReadDomainsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read domains file: %w", err)
	}
	defer f.Close()

	var domains []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read domains file: %w", err)
	}
	return domains, nil
}

func parseDuration(field, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func withDefault[T int | int64](v, def T) T {
	if v == 0 {
		return def
	}
	return v
}

func strOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func validate(cfg *Config) error {
	d := cfg.Discovery
	if d.Concurrency < 1 || d.Concurrency > 50 {
		return fmt.Errorf("discovery.concurrency must be between 1 and 50, got %d", d.Concurrency)
	}
	if d.MaxDomains < 1 {
		return fmt.Errorf("discovery.max_domains must be positive, got %d", d.MaxDomains)
	}
	if d.ProbeTimeout <= 0 || d.FetchTimeout <= 0 {
		return fmt.Errorf("discovery timeouts must be positive")
	}
	if d.Retries < 0 || d.Retries > 5 {
		return fmt.Errorf("discovery.retries must be between 0 and 5, got %d", d.Retries)
	}

	known := make(map[model.Provider]bool, len(adapter.DefaultOrder))
	for _, p := range adapter.DefaultOrder {
		known[p] = true
	}
	seen := make(map[model.Provider]bool, len(d.ProviderOrder))
	for _, p := range d.ProviderOrder {
		if !known[p] {
			return fmt.Errorf("discovery.provider_order: unknown provider %q", p)
		}
		if seen[p] {
			return fmt.Errorf("discovery.provider_order: %q listed twice", p)
		}
		seen[p] = true
	}
	for p := range cfg.RateLimit.ProviderOverrides {
		if !known[model.Provider(p)] {
			return fmt.Errorf("rate_limit.provider_overrides: unknown provider %q", p)
		}
	}
	for _, path := range d.CareersPaths {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("discovery.careers_paths: %q must start with /", path)
		}
	}

	if cfg.Scraper.PageTimeout <= 0 || cfg.Scraper.MaxPageBytes <= 0 {
		return fmt.Errorf("scraper.page_timeout and scraper.max_page_bytes must be positive")
	}

	switch cfg.Store.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when store.driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("store.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Store.Driver)
	}

	switch cfg.Cache.Driver {
	case "store":
	case "redis":
		if cfg.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when cache.driver is \"redis\"")
		}
	default:
		return fmt.Errorf("cache.driver must be \"store\" or \"redis\", got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", cfg.Schedule.Cron, err)
	}
	if cfg.Schedule.PruneAfter < 0 {
		return fmt.Errorf("schedule.prune_after must not be negative")
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
