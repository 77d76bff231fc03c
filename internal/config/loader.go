package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service and the publish tooling.
// Zero values mean "unspecified" and are filled from Defaults by Merge.
type Config struct {
	Addr            string        `json:"addr" yaml:"addr" toml:"addr"`
	ConfigsDir      string        `json:"configs_dir" yaml:"configs_dir" toml:"configs_dir"`
	ArtifactsDir    string        `json:"artifacts_dir" yaml:"artifacts_dir" toml:"artifacts_dir"`
	LogLevel        string        `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat       string        `json:"log_format" yaml:"log_format" toml:"log_format"`
	CacheTTLSeconds int           `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds"`
	Watch           bool          `json:"watch" yaml:"watch" toml:"watch"`
	TopModels       int           `json:"top_models" yaml:"top_models" toml:"top_models"`
	CORSOrigins     []string      `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Storage         StorageConfig `json:"storage" yaml:"storage" toml:"storage"`
}

// StorageConfig selects where published artifacts are uploaded. An empty
// Backend disables uploads.
type StorageConfig struct {
	Backend string       `json:"backend" yaml:"backend" toml:"backend"`
	Local   LocalStorage `json:"local" yaml:"local" toml:"local"`
	S3      S3Storage    `json:"s3" yaml:"s3" toml:"s3"`
}

type LocalStorage struct {
	BasePath string `json:"base_path" yaml:"base_path" toml:"base_path"`
	BaseURL  string `json:"base_url" yaml:"base_url" toml:"base_url"`
}

type S3Storage struct {
	Bucket          string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Region          string `json:"region" yaml:"region" toml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key" toml:"secret_access_key"`
	Prefix          string `json:"prefix" yaml:"prefix" toml:"prefix"`
	PublicBaseURL   string `json:"public_base_url" yaml:"public_base_url" toml:"public_base_url"`
}

// Defaults mirrors the original deployment: port 10000, ./configs and
// ./artifacts relative to the working directory.
func Defaults() Config {
	return Config{
		Addr:         ":10000",
		ConfigsDir:   "configs",
		ArtifactsDir: "artifacts",
		LogLevel:     "info",
		LogFormat:    "json",
		TopModels:    6,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge fills every unspecified field of c from d.
func (c Config) Merge(d Config) Config {
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.ConfigsDir == "" {
		c.ConfigsDir = d.ConfigsDir
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = d.ArtifactsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = d.CacheTTLSeconds
	}
	if c.TopModels == 0 {
		c.TopModels = d.TopModels
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = d.CORSOrigins
	}
	c.Storage = c.Storage.merge(d.Storage)
	c.Watch = c.Watch || d.Watch
	return c
}

// merge fills unspecified storage fields from d one by one, so a file that
// configures a bucket but leaves the backend to a flag or env var keeps it.
func (s StorageConfig) merge(d StorageConfig) StorageConfig {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&s.Backend, d.Backend)
	fill(&s.Local.BasePath, d.Local.BasePath)
	fill(&s.Local.BaseURL, d.Local.BaseURL)
	fill(&s.S3.Bucket, d.S3.Bucket)
	fill(&s.S3.Region, d.S3.Region)
	fill(&s.S3.Endpoint, d.S3.Endpoint)
	fill(&s.S3.AccessKeyID, d.S3.AccessKeyID)
	fill(&s.S3.SecretAccessKey, d.S3.SecretAccessKey)
	fill(&s.S3.Prefix, d.S3.Prefix)
	fill(&s.S3.PublicBaseURL, d.S3.PublicBaseURL)
	return s
}

// ApplyEnv overrides fields from EXPORTHUB_* variables. PORT is honoured as
// the listen port when EXPORTHUB_ADDR is not set. lookup is usually
// os.LookupEnv.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return c, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Addr = ":" + v
	}
	str("EXPORTHUB_ADDR", &c.Addr)
	str("EXPORTHUB_CONFIGS_DIR", &c.ConfigsDir)
	str("EXPORTHUB_ARTIFACTS_DIR", &c.ArtifactsDir)
	str("EXPORTHUB_LOG_LEVEL", &c.LogLevel)
	str("EXPORTHUB_LOG_FORMAT", &c.LogFormat)
	str("EXPORTHUB_STORAGE_BACKEND", &c.Storage.Backend)
	str("EXPORTHUB_STORAGE_LOCAL_PATH", &c.Storage.Local.BasePath)
	str("EXPORTHUB_STORAGE_LOCAL_URL", &c.Storage.Local.BaseURL)
	str("EXPORTHUB_S3_BUCKET", &c.Storage.S3.Bucket)
	str("EXPORTHUB_S3_REGION", &c.Storage.S3.Region)
	str("EXPORTHUB_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("EXPORTHUB_S3_PREFIX", &c.Storage.S3.Prefix)
	str("EXPORTHUB_S3_PUBLIC_BASE_URL", &c.Storage.S3.PublicBaseURL)
	str("AWS_ACCESS_KEY_ID", &c.Storage.S3.AccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &c.Storage.S3.SecretAccessKey)
	if v, ok := lookup("EXPORTHUB_CACHE_TTL_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("invalid EXPORTHUB_CACHE_TTL_SECONDS %q: %w", v, err)
		}
		c.CacheTTLSeconds = n
	}
	if v, ok := lookup("EXPORTHUB_WATCH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("invalid EXPORTHUB_WATCH %q: %w", v, err)
		}
		c.Watch = b
	}
	return c, nil
}
