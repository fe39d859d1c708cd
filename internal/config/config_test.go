package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Catalog:   CatalogConfig{Path: "data/catalog.json"},
		Index:     IndexConfig{Path: "data/index.parquet"},
		Embedding: EmbeddingConfig{Model: "all-minilm", Dimensions: 384},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	neg := float32(-0.5)
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"missing catalog", func(c *Config) { c.Catalog.Path = "" }, "catalog.path"},
		{"missing index", func(c *Config) { c.Index.Path = "" }, "index.path"},
		{"missing embedding model", func(c *Config) { c.Embedding.Model = "" }, "embedding.model"},
		{"unknown generation provider", func(c *Config) { c.Generation.Provider = "claude" }, "generation.provider"},
		{"gemini without key", func(c *Config) { c.Generation.Provider = GenerationGemini }, "generation.api_key"},
		{"openai without model", func(c *Config) { c.Generation.Provider = GenerationOpenAI }, "generation.model"},
		{"negative temperature", func(c *Config) {
			c.Generation.Provider = GenerationOpenAI
			c.Generation.Model = "gpt-4o-mini"
			c.Generation.Temperature = &neg
		}, "generation.temperature"},
		{"negative rate", func(c *Config) {
			c.Generation.Provider = GenerationGemini
			c.Generation.APIKey = "k"
			c.Generation.RateLimitPerSec = -1
		}, "rate_limit_per_sec"},
		{"default above ceiling", func(c *Config) { c.Recommend.DefaultMaxResults = 20 }, "default_max_results"},
		{"redis without addrs", func(c *Config) { c.Cache.Driver = CacheRedis }, "cache.addrs"},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"unknown metric", func(c *Config) { c.Build.Metric = "dot" }, "build.metric"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "*" {
		t.Errorf("expected CORS origins [*], got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Generation.Provider != GenerationNone {
		t.Errorf("expected generation provider none, got %q", cfg.Generation.Provider)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.TimeoutSec != 20 {
		t.Errorf("expected generation timeout 20, got %d", cfg.Generation.TimeoutSec)
	}
	if cfg.Retrieval.OverFetchFactor != 3 || cfg.Retrieval.OverFetchFloor != 10 {
		t.Errorf("unexpected over-fetch defaults %+v", cfg.Retrieval)
	}
	if cfg.Recommend.DefaultMaxResults != 10 || cfg.Recommend.MaxResultsCeiling != 10 {
		t.Errorf("unexpected recommend defaults %+v", cfg.Recommend)
	}
	if cfg.Cache.Driver != CacheNone {
		t.Errorf("expected cache driver none, got %q", cfg.Cache.Driver)
	}
	if cfg.Build.Metric != "cosine" || cfg.Build.BatchSize != 64 || cfg.Build.Concurrency != 4 {
		t.Errorf("unexpected build defaults %+v", cfg.Build)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := float32(0)
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Generation: GenerationConfig{Provider: GenerationGemini, Temperature: &zero, TimeoutSec: 5},
		Retrieval:  RetrievalConfig{OverFetchFactor: 5, OverFetchFloor: 20},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("http timeouts overridden: %+v", cfg.HTTP)
	}
	if *cfg.Generation.Temperature != 0 {
		t.Errorf("explicit zero temperature must survive, got %v", *cfg.Generation.Temperature)
	}
	if cfg.Generation.TimeoutSec != 5 || cfg.Generation.Provider != GenerationGemini {
		t.Errorf("generation overridden: %+v", cfg.Generation)
	}
	if cfg.Retrieval.OverFetchFactor != 5 || cfg.Retrieval.OverFetchFloor != 20 {
		t.Errorf("retrieval overridden: %+v", cfg.Retrieval)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ASSESSREC_TEST_KEY", "secret")
	in := []byte("a: ${ASSESSREC_TEST_KEY}\nb: ${ASSESSREC_TEST_MISSING:-fallback}\nc: ${ASSESSREC_TEST_MISSING}")
	got := string(expandEnvVars(in))
	want := "a: secret\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("ASSESSREC_TEST_PORT", "9090")
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := `
http:
  port: ${ASSESSREC_TEST_PORT}
catalog:
  path: catalog.json
index:
  path: index.parquet
embedding:
  model: all-minilm
  dimensions: 384
generation:
  provider: gemini
  api_key: ${ASSESSREC_TEST_GEMINI_KEY:-test-key}
  temperature: 0.2
cache:
  driver: memory
  size: 16
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Generation.APIKey != "test-key" || *cfg.Generation.Temperature != 0.2 {
		t.Errorf("unexpected generation %+v", cfg.Generation)
	}
	if cfg.Cache.Driver != CacheMemory || cfg.Cache.Size != 16 {
		t.Errorf("unexpected cache %+v", cfg.Cache)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ASSESSREC_DOTENV_VAR=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ASSESSREC_DOTENV_VAR", "")
	_ = os.Unsetenv("ASSESSREC_DOTENV_VAR")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ASSESSREC_DOTENV_VAR"); got != "from-file" {
		t.Errorf("expected from-file, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file must not fail: %v", err)
	}
}
