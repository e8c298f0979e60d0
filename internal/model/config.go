package model

import "time"

// Config is the full engine configuration. Loaded from flags, environment
// (GROUNDTRUTH_*) and ~/.groundtruth/config.yaml, in that priority order.
type Config struct {
	Catalog     CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Registry    RegistryConfig    `yaml:"registry" mapstructure:"registry"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// CatalogConfig configures the imagery catalog client
type CatalogConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxCloudFraction  float64       `yaml:"max_cloud_fraction" mapstructure:"max_cloud_fraction"`
	Collection        string        `yaml:"collection" mapstructure:"collection"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// AnalysisConfig configures a single analysis run
type AnalysisConfig struct {
	BufferMeters   float64       `yaml:"buffer_meters" mapstructure:"buffer_meters"`
	RunTimeout     time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
	FetchRetries   int           `yaml:"fetch_retries" mapstructure:"fetch_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// CacheConfig configures scene-list caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RegistryConfig selects and configures the project registry backend
type RegistryConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "memory" or "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ConcurrencyConfig bounds batch parallelism
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// LLMConfig configures the optional narrative summarizer.
// The summary never affects scoring or flagging.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai", "" disables
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the engine defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "Groundtruth/0.1 (+https://github.com/civicaudit/groundtruth)",
			MaxCloudFraction:  0.20,
			Collection:        "sentinel-2-l2a",
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Analysis: AnalysisConfig{
			BufferMeters:   500,
			RunTimeout:     10 * time.Minute,
			FetchRetries:   3,
			RetryBaseDelay: time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Registry: RegistryConfig{
			Driver: "memory",
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 1000,
		},
	}
}
