package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	MapSearch  MapSearchConfig  `yaml:"mapsearch" mapstructure:"mapsearch"`
	Hunter     HunterConfig     `yaml:"hunter" mapstructure:"hunter"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MapSearchConfig holds the map search API settings.
type MapSearchConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// HunterConfig holds the domain search API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GeocodeConfig holds the Census geocoder settings.
type GeocodeConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures website fetching.
type ScrapeConfig struct {
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PageDelaySecs    float64 `yaml:"page_delay_secs" mapstructure:"page_delay_secs"`
	RetryBackoffSecs float64 `yaml:"retry_backoff_secs" mapstructure:"retry_backoff_secs"`
}

// EnrichConfig configures the email discovery waterfall.
type EnrichConfig struct {
	ConfidenceThreshold  float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	MaxEmailsPerBusiness int     `yaml:"max_emails_per_business" mapstructure:"max_emails_per_business"`
	ScoringFile          string  `yaml:"scoring_file" mapstructure:"scoring_file"`
}

// SearchConfig configures the search stage.
type SearchConfig struct {
	MaxResults  int     `yaml:"max_results" mapstructure:"max_results"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	RadiusKm    float64 `yaml:"radius_km" mapstructure:"radius_km"`
	GridStepKm  float64 `yaml:"grid_step_km" mapstructure:"grid_step_km"`
	Zoom        int     `yaml:"zoom" mapstructure:"zoom"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// ExportConfig configures file export defaults.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("mapsearch.rate_limit", 10)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("geocode.base_url", "https://geocoding.geo.census.gov/geocoder")
	v.SetDefault("scrape.timeout_secs", 10)
	v.SetDefault("scrape.page_delay_secs", 1)
	v.SetDefault("scrape.retry_backoff_secs", 2)
	v.SetDefault("enrich.confidence_threshold", 0.7)
	v.SetDefault("enrich.max_emails_per_business", 3)
	v.SetDefault("search.max_results", 60)
	v.SetDefault("search.concurrency", 3)
	v.SetDefault("search.grid_step_km", 5)
	v.SetDefault("search.zoom", 15)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("export.format", "csv")

	// Credential keys carry no file defaults but must be registered for
	// AutomaticEnv to surface them through Unmarshal.
	for _, key := range []string{
		"store.database_url",
		"mapsearch.key",
		"mapsearch.base_url",
		"hunter.key",
		"salesforce.client_id",
		"salesforce.username",
		"salesforce.key_path",
		"notion.token",
		"notion.lead_db",
	} {
		v.SetDefault(key, "")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
