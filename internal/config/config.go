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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Reader    ReaderConfig    `yaml:"reader" mapstructure:"reader"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"` // sqlite file path
}

// AnthropicConfig holds Anthropic API settings for the AI structurer.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ReaderConfig holds the fallback rendering reader settings.
type ReaderConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NotionConfig holds Notion API credentials for the batch queue.
type NotionConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
	OrgDB string `yaml:"org_db" mapstructure:"org_db"`
}

// FetchConfig configures source retrieval.
type FetchConfig struct {
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"` // per-source budget
	MinContentChars int    `yaml:"min_content_chars" mapstructure:"min_content_chars"`
	MaxBodyKB       int    `yaml:"max_body_kb" mapstructure:"max_body_kb"`
	HostRateLimit   int    `yaml:"host_rate_limit" mapstructure:"host_rate_limit"` // requests/sec per host
}

// PipelineConfig configures the source coordinator.
type PipelineConfig struct {
	MaxConcurrency int  `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	UseAI          bool `yaml:"use_ai" mapstructure:"use_ai"`
	MaxSources     int  `yaml:"max_sources" mapstructure:"max_sources"`
	AITimeoutSecs  int  `yaml:"ai_timeout_secs" mapstructure:"ai_timeout_secs"`
}

// CacheConfig configures the AI candidate cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver   string `yaml:"driver" mapstructure:"driver"` // "memory" or "sqlite"
	Path     string `yaml:"path" mapstructure:"path"`     // sqlite file path
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentOrgs int `yaml:"max_concurrent_orgs" mapstructure:"max_concurrent_orgs"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBodyKB      int      `yaml:"max_body_kb" mapstructure:"max_body_kb"`
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
	v.AddConfigPath("$HOME/.profile-cli")

	// Environment
	v.SetEnvPrefix("PROFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "profile.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_kb", 1024)
	v.SetDefault("batch.max_concurrent_orgs", 3)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; ProfileBot/1.0)")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.min_content_chars", 500)
	v.SetDefault("fetch.max_body_kb", 512)
	v.SetDefault("fetch.host_rate_limit", 10)
	v.SetDefault("pipeline.max_concurrency", 5)
	v.SetDefault("pipeline.use_ai", true)
	v.SetDefault("pipeline.max_sources", 20)
	v.SetDefault("pipeline.ai_timeout_secs", 60)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.path", "cache.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("reader.base_url", "https://r.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.temperature", 0.2)

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

// Validate checks that the configuration required for the given mode is
// present and in range. Mode is the command about to run: "run", "batch",
// "batch-notion", or "serve". All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "run":
		// No credentials strictly required: the pipeline degrades to
		// pattern/entity layers when the AI backend is not configured.
	case "batch":
	case "batch-notion":
		if c.Notion.Token == "" {
			problems = append(problems, "notion.token is required")
		}
		if c.Notion.OrgDB == "" {
			problems = append(problems, "notion.org_db is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Pipeline.MaxConcurrency < 1 || c.Pipeline.MaxConcurrency > 50 {
		problems = append(problems, "pipeline.max_concurrency must be between 1 and 50")
	}
	if c.Fetch.TimeoutSecs <= 0 {
		problems = append(problems, "fetch.timeout_secs must be > 0")
	}
	if c.Batch.MaxConcurrentOrgs < 1 || c.Batch.MaxConcurrentOrgs > 50 {
		problems = append(problems, "batch.max_concurrent_orgs must be between 1 and 50")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}
	if c.Cache.TTLHours < 0 {
		problems = append(problems, "cache.ttl_hours must be >= 0")
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
