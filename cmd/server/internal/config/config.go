// Package config loads the gateway configuration from the environment,
// optionally overlaid by a YAML file. Environment variables win over the
// file so container deployments can override a baked-in config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full gateway configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Queue       QueueConfig       `yaml:"queue"`
	Media       MediaConfig       `yaml:"media"`
	Diarization DiarizationConfig `yaml:"diarization"`
	Log         LogConfig         `yaml:"log"`
	Audit       AuditConfig       `yaml:"audit"`
}

type ServerConfig struct {
	Env                string   `yaml:"env"`  // dev, staging, production
	Host               string   `yaml:"host"`
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type WhisperConfig struct {
	PythonBin       string `yaml:"python_bin"`
	DefaultModel    string `yaml:"default_model"`
	DefaultLanguage string `yaml:"default_language"`
	DefaultQuality  string `yaml:"default_quality"`
	ComputeType     string `yaml:"compute_type"`
	CPUThreads      int    `yaml:"cpu_threads"`
	NumWorkers      int    `yaml:"num_workers"`
	ModelBaseDir    string `yaml:"model_base_dir"`
	PreloadModel    bool   `yaml:"preload_model"`
}

type QueueConfig struct {
	// MaxConcurrent bounds simultaneously running transcriptions.
	MaxConcurrent int `yaml:"max_concurrent"`
}

type MediaConfig struct {
	FFmpegBin string `yaml:"ffmpeg_bin"`
	TempDir   string `yaml:"temp_dir"`
}

type DiarizationConfig struct {
	URL       string `yaml:"url"`
	AuthToken string `yaml:"auth_token"`
	Model     string `yaml:"model"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

type AuditConfig struct {
	LogPath string `yaml:"log_path"`
}

// Load builds the configuration: defaults, then the YAML file at yamlPath
// when non-empty, then environment variables.
func Load(yamlPath string) (*Config, error) {
	cfg := defaults()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", yamlPath, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Env:                "dev",
			Host:               "0.0.0.0",
			Port:               "8000",
			CORSAllowedOrigins: []string{"*"},
		},
		Whisper: WhisperConfig{
			PythonBin:       "python3",
			DefaultModel:    "large-v3",
			DefaultLanguage: "th",
			DefaultQuality:  "balanced",
			ComputeType:     "int8",
			CPUThreads:      4,
			NumWorkers:      1,
			PreloadModel:    true,
		},
		Queue: QueueConfig{
			MaxConcurrent: 2,
		},
		Media: MediaConfig{
			FFmpegBin: "ffmpeg",
			TempDir:   os.TempDir(),
		},
		Diarization: DiarizationConfig{
			Model: "pyannote/speaker-diarization-3.1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Audit: AuditConfig{
			LogPath: "./audit_logs/jobs.jsonl",
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	// Deployments predating the rename still export the old names.
	cfg.Server.Host = getEnvFirst([]string{"MEETING_SERVER_HOST", "WHISPER_HOST", "HOST"}, cfg.Server.Host)
	cfg.Server.Port = getEnvFirst([]string{"MEETING_SERVER_PORT", "WHISPER_PORT", "PORT"}, cfg.Server.Port)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = parseStringList(v)
	}

	cfg.Whisper.PythonBin = getEnv("WHISPER_PYTHON_BIN", cfg.Whisper.PythonBin)
	cfg.Whisper.DefaultModel = getEnv("WHISPER_MODEL", cfg.Whisper.DefaultModel)
	cfg.Whisper.DefaultLanguage = getEnvFirst([]string{"WHISPER_LANG", "WHISPER_LANGUAGE"}, cfg.Whisper.DefaultLanguage)
	cfg.Whisper.DefaultQuality = getEnv("WHISPER_QUALITY", cfg.Whisper.DefaultQuality)
	cfg.Whisper.ComputeType = getEnvFirst([]string{"WHISPER_COMPUTE", "WHISPER_COMPUTE_TYPE"}, cfg.Whisper.ComputeType)
	cfg.Whisper.CPUThreads = getEnvInt("WHISPER_CPU_THREADS", cfg.Whisper.CPUThreads)
	cfg.Whisper.NumWorkers = getEnvInt("WHISPER_NUM_WORKERS", cfg.Whisper.NumWorkers)
	cfg.Whisper.ModelBaseDir = getEnv("WHISPER_MODEL_BASE_DIR", cfg.Whisper.ModelBaseDir)
	cfg.Whisper.PreloadModel = getEnvBool("WHISPER_PRELOAD_MODEL", cfg.Whisper.PreloadModel)

	cfg.Queue.MaxConcurrent = getEnvInt("MAX_CONCURRENT_TRANSCRIPTIONS", cfg.Queue.MaxConcurrent)

	cfg.Media.FFmpegBin = getEnvFirst([]string{"MEETING_SERVER_FFMPEG", "FFMPEG_BIN", "FFMPEG_PATH"}, cfg.Media.FFmpegBin)
	cfg.Media.TempDir = getEnv("TEMP_DIR", cfg.Media.TempDir)

	cfg.Diarization.URL = getEnv("DIARIZATION_URL", cfg.Diarization.URL)
	cfg.Diarization.AuthToken = getEnv("DIARIZATION_AUTH_TOKEN", cfg.Diarization.AuthToken)
	cfg.Diarization.Model = getEnv("DIARIZATION_MODEL", cfg.Diarization.Model)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Audit.LogPath = getEnv("AUDIT_LOG_PATH", cfg.Audit.LogPath)
}

// Validate checks the configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if cfg.Queue.MaxConcurrent < 1 {
		errors = append(errors, fmt.Sprintf("invalid MAX_CONCURRENT_TRANSCRIPTIONS: %d (must be >= 1)", cfg.Queue.MaxConcurrent))
	}
	if cfg.Whisper.CPUThreads < 1 {
		errors = append(errors, fmt.Sprintf("invalid WHISPER_CPU_THREADS: %d (must be >= 1)", cfg.Whisper.CPUThreads))
	}
	if cfg.Whisper.NumWorkers < 1 {
		errors = append(errors, fmt.Sprintf("invalid WHISPER_NUM_WORKERS: %d (must be >= 1)", cfg.Whisper.NumWorkers))
	}

	validComputeTypes := map[string]bool{"int8": true, "int8_float16": true, "float16": true, "float32": true, "auto": true}
	if !validComputeTypes[cfg.Whisper.ComputeType] {
		errors = append(errors, fmt.Sprintf("invalid WHISPER_COMPUTE_TYPE: %s", cfg.Whisper.ComputeType))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// ServerAddr returns the host:port listen address.
func (c *Config) ServerAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// DiarizationEnabled reports whether a diarization sidecar is configured.
func (c *Config) DiarizationEnabled() bool {
	return c.Diarization.URL != ""
}

// Summary renders the effective configuration for startup logs, with
// secrets masked.
func (c *Config) Summary() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Listen: %s
  Whisper:
    - Model: %s
    - Language: %s
    - Quality: %s
    - Compute: %s (threads=%d workers=%d)
    - Python: %s
  Queue:
    - Max Concurrent: %d
  Media:
    - FFmpeg: %s
    - Temp Dir: %s
  Diarization:
    - URL: %s
    - Token: %s
  Logging: %s/%s
  Audit Log: %s`,
		c.Server.Env,
		c.ServerAddr(),
		c.Whisper.DefaultModel,
		c.Whisper.DefaultLanguage,
		c.Whisper.DefaultQuality,
		c.Whisper.ComputeType,
		c.Whisper.CPUThreads,
		c.Whisper.NumWorkers,
		c.Whisper.PythonBin,
		c.Queue.MaxConcurrent,
		c.Media.FFmpegBin,
		c.Media.TempDir,
		orUnset(c.Diarization.URL),
		maskSecret(c.Diarization.AuthToken),
		c.Log.Level, c.Log.Format,
		c.Audit.LogPath,
	)
}

// getEnvFirst returns the first non-empty value among the given env names.
func getEnvFirst(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseStringList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}
