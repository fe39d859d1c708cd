package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Generation providers.
const (
	GenerationNone   = "none"
	GenerationGemini = "gemini"
	GenerationOpenAI = "openai"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheValkey = "valkey"
)

// Config holds the assessrec configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Cache      CacheConfig      `yaml:"cache"`
	Build      BuildConfig      `yaml:"build"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// CatalogConfig points at the catalog JSON file.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// IndexConfig points at the vector index parquet file.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // metrics label only
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// GenerationConfig holds generative model settings.
type GenerationConfig struct {
	Provider         string   `yaml:"provider"` // gemini, openai, none
	APIKey           string   `yaml:"api_key"`
	BaseURL          string   `yaml:"base_url"` // openai only
	Model            string   `yaml:"model"`
	Temperature      *float32 `yaml:"temperature"`
	DisableJSONMode  bool     `yaml:"disable_json_mode"`
	TimeoutSec       int      `yaml:"timeout_sec"`
	RateLimitPerSec  float64  `yaml:"rate_limit_per_sec"` // 0 = unlimited
	RateBurst        int      `yaml:"rate_burst"`
	DescriptionChars int      `yaml:"description_chars"`
	MaxQueryChars    int      `yaml:"max_query_chars"`
	MaxLogLength     int      `yaml:"max_log_length"`
}

// RetrievalConfig holds candidate over-fetch settings.
type RetrievalConfig struct {
	OverFetchFactor int `yaml:"overfetch_factor"`
	OverFetchFloor  int `yaml:"overfetch_floor"`
}

// RecommendConfig holds request limits.
type RecommendConfig struct {
	DefaultMaxResults int `yaml:"default_max_results"`
	MaxResultsCeiling int `yaml:"max_results_ceiling"`
}

// CacheConfig holds query-embedding cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, memory, redis, valkey
	Size             int      `yaml:"size"`   // memory only
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BuildConfig holds index build settings.
type BuildConfig struct {
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
	Metric      string `yaml:"metric"` // cosine, l2
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file without overriding the
// process environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Генерация может занять до generation.timeout_sec на попытку
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = GenerationNone
	}
	if c.Generation.Temperature == nil {
		t := float32(0.1)
		c.Generation.Temperature = &t
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 20
	}
	if c.Generation.RateBurst <= 0 {
		c.Generation.RateBurst = 1
	}
	if c.Generation.DescriptionChars <= 0 {
		c.Generation.DescriptionChars = 300
	}
	if c.Generation.MaxQueryChars <= 0 {
		c.Generation.MaxQueryChars = 4000
	}
	if c.Generation.MaxLogLength <= 0 {
		c.Generation.MaxLogLength = 200
	}
	if c.Retrieval.OverFetchFactor <= 0 {
		c.Retrieval.OverFetchFactor = 3
	}
	if c.Retrieval.OverFetchFloor <= 0 {
		c.Retrieval.OverFetchFloor = 10
	}
	if c.Recommend.DefaultMaxResults <= 0 {
		c.Recommend.DefaultMaxResults = 10
	}
	if c.Recommend.MaxResultsCeiling <= 0 {
		c.Recommend.MaxResultsCeiling = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 1024
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Build.BatchSize <= 0 {
		c.Build.BatchSize = 64
	}
	if c.Build.Concurrency <= 0 {
		c.Build.Concurrency = 4
	}
	if c.Build.Metric == "" {
		c.Build.Metric = "cosine"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Catalog.Path == "" {
		return errors.New("catalog.path is required")
	}
	if c.Index.Path == "" {
		return errors.New("index.path is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must be >= 0, got %d", c.Embedding.Dimensions)
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if c.Recommend.DefaultMaxResults > c.Recommend.MaxResultsCeiling {
		return fmt.Errorf("recommend.default_max_results (%d) exceeds max_results_ceiling (%d)",
			c.Recommend.DefaultMaxResults, c.Recommend.MaxResultsCeiling)
	}
	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
		// ok
	case CacheRedis, CacheValkey:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, memory, redis, valkey, got %q", c.Cache.Driver)
	}
	switch c.Build.Metric {
	case "cosine", "l2":
		// ok
	default:
		return fmt.Errorf("build.metric must be \"cosine\" or \"l2\", got %q", c.Build.Metric)
	}
	return nil
}

func (c *Config) validateGeneration() error {
	g := c.Generation
	switch g.Provider {
	case GenerationNone:
		return nil
	case GenerationGemini:
		if g.APIKey == "" {
			return errors.New("generation.api_key is required for provider \"gemini\"")
		}
	case GenerationOpenAI:
		if g.Model == "" {
			return errors.New("generation.model is required for provider \"openai\"")
		}
	default:
		return fmt.Errorf("generation.provider must be one of none, gemini, openai, got %q", g.Provider)
	}
	if t := g.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", *t)
	}
	if g.RateLimitPerSec < 0 {
		return fmt.Errorf("generation.rate_limit_per_sec must be >= 0, got %v", g.RateLimitPerSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
