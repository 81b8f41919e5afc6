// Package config loads application configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RedisConfig contains connection details for the Redis backend.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	DB         int    `yaml:"db"`
	Password   string `yaml:"password"`
	MaxRetries int    `yaml:"max_retries"`
}

// EmbeddingConfig configures the embedding model and its cache.
type EmbeddingConfig struct {
	Model        string `yaml:"model"`
	BatchSize    int    `yaml:"batch_size"`
	CachePath    string `yaml:"cache_path"`
	CacheEntries int    `yaml:"cache_entries"`
}

// ExtractConfig bounds source document processing.
type ExtractConfig struct {
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	MaxChunkSize  int    `yaml:"max_chunk_size"`
	PdftotextBin  string `yaml:"pdftotext_bin"`
	PdfinfoBin    string `yaml:"pdfinfo_bin"`
}

// SearchConfig holds retrieval defaults.
type SearchConfig struct {
	MaxResults          int     `yaml:"max_results"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	KeywordFallback     bool    `yaml:"keyword_fallback"`
}

// MCPConfig names the protocol server.
type MCPConfig struct {
	ServerName string `yaml:"server_name"`
	Version    string `yaml:"version"`
}

// Config is the root configuration structure.
type Config struct {
	Redis     RedisConfig     `yaml:"redis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Extract   ExtractConfig   `yaml:"extract"`
	Search    SearchConfig    `yaml:"search"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Redis:     RedisConfig{Addr: "localhost:6379", MaxRetries: 3},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small", BatchSize: 32, CachePath: "embeddings_cache.json", CacheEntries: 10000},
		Extract:   ExtractConfig{MaxFileSizeMB: 100, MaxChunkSize: 1500, PdftotextBin: "pdftotext", PdfinfoBin: "pdfinfo"},
		Search:    SearchConfig{MaxResults: 5, SimilarityThreshold: 0.7, KeywordFallback: true},
		MCP:       MCPConfig{ServerName: "lorekeeper", Version: "v0.1.0"},
	}
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides config fields from the environment. Unset variables
// leave the file/default values untouched.
func applyEnv(cfg *Config) {
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.MaxRetries, "REDIS_MAX_RETRIES")

	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&cfg.Embedding.BatchSize, "EMBEDDING_BATCH_SIZE")
	setString(&cfg.Embedding.CachePath, "EMBEDDING_CACHE_PATH")
	setInt(&cfg.Embedding.CacheEntries, "EMBEDDING_CACHE_ENTRIES")

	setInt(&cfg.Extract.MaxFileSizeMB, "EXTRACT_MAX_FILE_SIZE_MB")
	setInt(&cfg.Extract.MaxChunkSize, "EXTRACT_MAX_CHUNK_SIZE")

	setInt(&cfg.Search.MaxResults, "SEARCH_MAX_RESULTS")
	setFloat(&cfg.Search.SimilarityThreshold, "SEARCH_SIMILARITY_THRESHOLD")
	setBool(&cfg.Search.KeywordFallback, "SEARCH_KEYWORD_FALLBACK")

	setString(&cfg.MCP.ServerName, "MCP_SERVER_NAME")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}
