package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	DB          DatabaseConfig   `json:"db"`
	LogConfig   logger.LogConfig `json:"log_config"`
	AI          AIConfig         `json:"ai"`
	Chunking    ChunkingConfig   `json:"chunking"`
	Retry       RetryConfig      `json:"retry"`
	Search      SearchConfig     `json:"search"`
	Cache       CacheConfig      `json:"cache"`
	Source      SourceConfig     `json:"source"`
	Port        int              `json:"port"`
	MonitorSpec string           `json:"monitor_spec"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider   string      `json:"provider"`
	EmbedModel string      `json:"embed_model"`
	Dimensions int         `json:"dimensions"`
	Data       interface{} `json:"data"`
}

type ChunkingConfig struct {
	ChunkSize int `json:"chunk_size"`
	Overlap   int `json:"overlap"`
}

type RetryConfig struct {
	MaxAttempts    int `json:"max_attempts"`
	MinWaitSeconds int `json:"min_wait_seconds"`
	MaxWaitSeconds int `json:"max_wait_seconds"`
	PauseMS        int `json:"pause_ms"`
}

type SearchConfig struct {
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold"`
}

type CacheConfig struct {
	Size     int `json:"size"`
	TTLHours int `json:"ttl_hours"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Load reads a JSON config file, expanding ${VAR} references from the
// environment before decoding so secrets can stay out of the file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DB.DSN == "" && (cfg.DB.Host == "" || cfg.DB.DBName == "") {
		return nil, fmt.Errorf("db.dsn or db.host/db.db_name is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.Dimensions == 0 {
		cfg.AI.Dimensions = 1536
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}
	if cfg.Chunking.Overlap >= cfg.Chunking.ChunkSize {
		return nil, fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.chunk_size (%d)",
			cfg.Chunking.Overlap, cfg.Chunking.ChunkSize)
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.MinWaitSeconds == 0 {
		cfg.Retry.MinWaitSeconds = 4
	}
	if cfg.Retry.MaxWaitSeconds == 0 {
		cfg.Retry.MaxWaitSeconds = 10
	}
	if cfg.Retry.PauseMS == 0 {
		cfg.Retry.PauseMS = 100
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 10
	}
	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = 0.5
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "local"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.MonitorSpec == "" {
		cfg.MonitorSpec = "*/5 * * * * *"
	}
	return &cfg, nil
}
