package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("default port = %s, want 8000", cfg.Server.Port)
	}
	if cfg.Whisper.DefaultModel != "large-v3" {
		t.Errorf("default model = %s, want large-v3", cfg.Whisper.DefaultModel)
	}
	if cfg.Queue.MaxConcurrent != 2 {
		t.Errorf("default max concurrent = %d, want 2", cfg.Queue.MaxConcurrent)
	}
	if cfg.DiarizationEnabled() {
		t.Error("diarization should be disabled without DIARIZATION_URL")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WHISPER_MODEL", "medium")
	t.Setenv("MAX_CONCURRENT_TRANSCRIPTIONS", "5")
	t.Setenv("WHISPER_PRELOAD_MODEL", "false")
	t.Setenv("DIARIZATION_URL", "http://localhost:9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %s, want 9090", cfg.Server.Port)
	}
	if cfg.Whisper.DefaultModel != "medium" {
		t.Errorf("model = %s, want medium", cfg.Whisper.DefaultModel)
	}
	if cfg.Queue.MaxConcurrent != 5 {
		t.Errorf("max concurrent = %d, want 5", cfg.Queue.MaxConcurrent)
	}
	if cfg.Whisper.PreloadModel {
		t.Error("preload should be disabled")
	}
	if !cfg.DiarizationEnabled() {
		t.Error("diarization should be enabled")
	}
	want := []string{"http://a.example", "http://b.example"}
	if len(cfg.Server.CORSAllowedOrigins) != 2 || cfg.Server.CORSAllowedOrigins[0] != want[0] || cfg.Server.CORSAllowedOrigins[1] != want[1] {
		t.Errorf("cors origins = %v, want %v", cfg.Server.CORSAllowedOrigins, want)
	}
}

func TestLoadYAMLFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	yamlBody := `
server:
  port: "8100"
whisper:
  default_model: small
  cpu_threads: 8
queue:
  max_concurrent: 3
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WHISPER_MODEL", "large-v3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// File overrides defaults; the environment overrides the file.
	if cfg.Server.Port != "8100" {
		t.Errorf("port = %s, want 8100 from file", cfg.Server.Port)
	}
	if cfg.Whisper.CPUThreads != 8 {
		t.Errorf("cpu threads = %d, want 8 from file", cfg.Whisper.CPUThreads)
	}
	if cfg.Queue.MaxConcurrent != 3 {
		t.Errorf("max concurrent = %d, want 3 from file", cfg.Queue.MaxConcurrent)
	}
	if cfg.Whisper.DefaultModel != "large-v3" {
		t.Errorf("model = %s, want env to win over file", cfg.Whisper.DefaultModel)
	}
}

func TestLoadMissingYAMLFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := defaults()
	cfg.Server.Port = "99999"
	cfg.Server.Env = "test"
	cfg.Queue.MaxConcurrent = 0
	cfg.Log.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"PORT", "ENV", "MAX_CONCURRENT_TRANSCRIPTIONS", "LOG_LEVEL"} {
		if !strings.Contains(msg, want) {
			t.Errorf("validation error missing %s: %s", want, msg)
		}
	}
}

func TestEnvAliases(t *testing.T) {
	t.Setenv("WHISPER_PORT", "8300")
	t.Setenv("WHISPER_LANG", "en")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8300" {
		t.Errorf("port = %s, want alias WHISPER_PORT to apply", cfg.Server.Port)
	}
	if cfg.Whisper.DefaultLanguage != "en" {
		t.Errorf("language = %s, want alias WHISPER_LANG to apply", cfg.Whisper.DefaultLanguage)
	}
	if cfg.Media.FFmpegBin != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg = %s, want alias FFMPEG_PATH to apply", cfg.Media.FFmpegBin)
	}

	// The first name in the alias list wins.
	t.Setenv("MEETING_SERVER_PORT", "8400")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8400" {
		t.Errorf("port = %s, want MEETING_SERVER_PORT to take precedence", cfg.Server.Port)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := defaults()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "8200"
	if got := cfg.ServerAddr(); got != "127.0.0.1:8200" {
		t.Errorf("ServerAddr = %s", got)
	}
}

func TestSummaryMasksToken(t *testing.T) {
	cfg := defaults()
	cfg.Diarization.AuthToken = "hf_abcdefghijklmnop"

	s := cfg.Summary()
	if strings.Contains(s, "hf_abcdefghijklmnop") {
		t.Error("summary must not contain the raw token")
	}
	if !strings.Contains(s, "hf_a***mnop") {
		t.Errorf("summary should contain the masked token: %s", s)
	}
}
