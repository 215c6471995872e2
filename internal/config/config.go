// Package config loads layered configuration: defaults, an optional YAML file,
// then SEOSCOPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/FranksOps/seoscope/pkg/httpclient"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SEOSCOPE_STORAGE_DSN.
const EnvPrefix = "SEOSCOPE"

// StorageDrivers lists the accepted storage.driver values.
var StorageDrivers = []string{"sqlite", "postgres", "json", "csv", "none"}

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Providers ProvidersConfig `mapstructure:"providers"`
	LLM       LLMConfig       `mapstructure:"llm"`
	PageSpeed PageSpeedConfig `mapstructure:"pagespeed"`
	SERP      SERPConfig      `mapstructure:"serp"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	UserAgent    string        `mapstructure:"user_agent"`
	Fingerprint  string        `mapstructure:"fingerprint"`
	// BrowserUserAgent sends page fetches with browser User-Agents matching
	// Fingerprint instead of UserAgent.
	BrowserUserAgent bool `mapstructure:"browser_user_agent"`
}

type ProvidersConfig struct {
	DataForSEO   DataForSEOConfig `mapstructure:"dataforseo"`
	Semrush      SemrushConfig    `mapstructure:"semrush"`
	Ahrefs       KeyConfig        `mapstructure:"ahrefs"`
	Moz          MozConfig        `mapstructure:"moz"`
	OpenPageRank KeyConfig        `mapstructure:"openpagerank"`
}

type KeyConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

type DataForSEOConfig struct {
	Login        string `mapstructure:"login"`
	Password     string `mapstructure:"password"`
	Endpoint     string `mapstructure:"endpoint"`
	LocationCode int    `mapstructure:"location_code"`
	LanguageCode string `mapstructure:"language_code"`
}

type SemrushConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Database string `mapstructure:"database"`
}

type MozConfig struct {
	AccessID  string `mapstructure:"access_id"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
}

type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	// MaxKeywords caps content keyword candidates per scan.
	MaxKeywords int `mapstructure:"max_keywords"`
}

type PageSpeedConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Strategy string `mapstructure:"strategy"`
}

type SERPConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Endpoint          string  `mapstructure:"endpoint"`
	Country           string  `mapstructure:"country"`
	Language          string  `mapstructure:"language"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxKeywords       int     `mapstructure:"max_keywords"`
	Depth             int     `mapstructure:"depth"`
}

type ScanConfig struct {
	ProviderTimeout       time.Duration `mapstructure:"provider_timeout"`
	SoftDeadline          time.Duration `mapstructure:"soft_deadline"`
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`
	CompetitorConcurrency int           `mapstructure:"competitor_concurrency"`
	// SitemapURLs caps the indexed paths read per site.
	SitemapURLs int `mapstructure:"sitemap_urls"`
	// CrawlFallback crawls the site when it publishes no sitemap.
	CrawlFallback bool `mapstructure:"crawl_fallback"`
	MaxRelated    int  `mapstructure:"max_related"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	// Port serves /metrics separately; 0 disables it.
	Port int `mapstructure:"port"`
}

var defaults = map[string]any{
	"log.level":  "info",
	"log.format": "text",

	"http.timeout":            "20s",
	"http.max_redirects":      10,
	"http.user_agent":         httpclient.DefaultUserAgent,
	"http.fingerprint":        string(httpclient.ProfileChrome),
	"http.browser_user_agent": false,

	"providers.dataforseo.login":         "",
	"providers.dataforseo.password":      "",
	"providers.dataforseo.endpoint":      "",
	"providers.dataforseo.location_code": 2840,
	"providers.dataforseo.language_code": "en",
	"providers.semrush.api_key":          "",
	"providers.semrush.endpoint":         "",
	"providers.semrush.database":         "us",
	"providers.ahrefs.api_key":           "",
	"providers.ahrefs.endpoint":          "",
	"providers.moz.access_id":            "",
	"providers.moz.secret_key":           "",
	"providers.moz.endpoint":             "",
	"providers.openpagerank.api_key":     "",
	"providers.openpagerank.endpoint":    "",

	"llm.api_key":      "",
	"llm.endpoint":     "",
	"llm.model":        "",
	"llm.temperature":  0.2,
	"llm.max_keywords": 15,

	"pagespeed.enabled":  false,
	"pagespeed.api_key":  "",
	"pagespeed.endpoint": "",
	"pagespeed.strategy": "mobile",

	"serp.api_key":             "",
	"serp.endpoint":            "",
	"serp.country":             "us",
	"serp.language":            "en",
	"serp.requests_per_second": 1.0,
	"serp.max_keywords":        20,
	"serp.depth":               100,

	"scan.provider_timeout":       "30s",
	"scan.soft_deadline":          "60s",
	"scan.cache_ttl":              "1h",
	"scan.competitor_concurrency": 3,
	"scan.sitemap_urls":           500,
	"scan.crawl_fallback":         true,
	"scan.max_related":            10,

	"storage.driver": "sqlite",
	"storage.dsn":    "seoscope.db",

	"server.addr": ":8080",

	"metrics.port": 0,
}

// NewViper returns a viper instance with every default registered and
// environment overrides enabled. Flags may be bound to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, if set, into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	var errs []error
	if _, err := httpclient.ParseProfile(c.HTTP.Fingerprint); err != nil {
		errs = append(errs, fmt.Errorf("http.fingerprint: %w", err))
	}
	if !slices.Contains(StorageDrivers, c.Storage.Driver) {
		errs = append(errs, fmt.Errorf("storage.driver: must be one of %s, got %q", strings.Join(StorageDrivers, ", "), c.Storage.Driver))
	}
	if c.Storage.Driver != "none" && c.Storage.DSN == "" {
		errs = append(errs, errors.New("storage.dsn: required"))
	}
	if c.Scan.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("scan.provider_timeout: must be positive"))
	}
	if c.Scan.SoftDeadline <= 0 {
		errs = append(errs, errors.New("scan.soft_deadline: must be positive"))
	}
	if c.PageSpeed.Strategy != "mobile" && c.PageSpeed.Strategy != "desktop" {
		errs = append(errs, fmt.Errorf("pagespeed.strategy: must be mobile or desktop, got %q", c.PageSpeed.Strategy))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

