package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	PGATour   PGATourConfig   `yaml:"pgatour" mapstructure:"pgatour"`
	ESPN      ESPNConfig      `yaml:"espn" mapstructure:"espn"`
	Wikipedia WikipediaConfig `yaml:"wikipedia" mapstructure:"wikipedia"`
	WebSearch WebSearchConfig `yaml:"websearch" mapstructure:"websearch"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Priority  PriorityConfig  `yaml:"priority" mapstructure:"priority"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScrapeConfig configures transport behavior shared by all connectors.
type ScrapeConfig struct {
	DelaySecs       float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffBaseSecs float64 `yaml:"backoff_base_secs" mapstructure:"backoff_base_secs"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// Delay returns the per-request floor between calls to one source.
func (s ScrapeConfig) Delay() time.Duration {
	return time.Duration(s.DelaySecs * float64(time.Second))
}

// Timeout returns the per-request deadline.
func (s ScrapeConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// BackoffBase returns the initial retry backoff.
func (s ScrapeConfig) BackoffBase() time.Duration {
	return time.Duration(s.BackoffBaseSecs * float64(time.Second))
}

// PGATourConfig holds PGA Tour GraphQL API settings.
type PGATourConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
}

// ESPNConfig holds ESPN site API settings.
type ESPNConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WikipediaConfig holds Wikipedia REST API settings.
type WikipediaConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// WebSearchConfig holds web search fallback settings.
type WebSearchConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for the AI extraction
// fallback at the bottom of the enrichment cascade.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PriorityConfig allows overriding per-source priority ranks.
type PriorityConfig struct {
	Ranks map[string]int `yaml:"ranks" mapstructure:"ranks"`
}

// ServerConfig configures the read-only query API.
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
	v.SetEnvPrefix("GOLFTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so AutomaticEnv can see the
	// key: viper only surfaces env values for keys it already knows.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("pgatour.api_key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("scrape.delay_secs", 2.0)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.backoff_base_secs", 1.0)
	v.SetDefault("scrape.user_agent", "golftracker/1.0 (+https://github.com/fairway-media/golftracker)")
	v.SetDefault("pgatour.endpoint", "https://orchestrator.pgatour.com/graphql")
	v.SetDefault("espn.base_url", "https://site.api.espn.com/apis/site/v2/sports/golf")
	v.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/api/rest_v1")
	v.SetDefault("websearch.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

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

// Validate checks that the fields a command mode needs are present.
// Modes: "scrape", "enrich", "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
		problems = append(problems, "store.driver must be postgres or sqlite")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Scrape.DelaySecs < 0 {
		problems = append(problems, "scrape.delay_secs must be >= 0")
	}
	if c.Scrape.MaxRetries < 0 {
		problems = append(problems, "scrape.max_retries must be >= 0")
	}

	switch mode {
	case "scrape":
		// API key for the tour orchestrator is optional: some leagues
		// are served by keyless sources.
	case "enrich":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required for enrichment")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
