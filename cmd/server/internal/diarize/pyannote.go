package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultPyannoteTimeout = 300 * time.Second

// PyannoteConfig configures the pyannote sidecar client.
type PyannoteConfig struct {
	// BaseURL is the sidecar address, e.g. http://localhost:8388.
	BaseURL string

	// AuthToken is sent as a bearer token when set. The sidecar needs a
	// HuggingFace token to load gated pyannote models.
	AuthToken string

	// Model is the diarization pipeline identifier reported in outcomes.
	Model string

	// Timeout bounds one diarization call, default 300s.
	Timeout time.Duration
}

// Pyannote calls a pyannote.audio HTTP sidecar to produce speaker turns.
type Pyannote struct {
	cfg    PyannoteConfig
	client *http.Client
}

// NewPyannote creates a sidecar client. BaseURL must be non-empty; callers
// treat a missing URL as "diarization not configured" before constructing.
func NewPyannote(cfg PyannoteConfig) *Pyannote {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultPyannoteTimeout
	}
	if cfg.Model == "" {
		cfg.Model = "pyannote/speaker-diarization-3.1"
	}
	return &Pyannote{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the configured pipeline identifier.
func (p *Pyannote) Name() string { return p.cfg.Model }

type pyannoteResponse struct {
	Segments []Turn `json:"segments"`
}

// Diarize uploads the audio file to the sidecar's /diarize endpoint and
// decodes the returned speaker turns.
func (p *Pyannote) Diarize(ctx context.Context, audioPath string) ([]Turn, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/diarize", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if p.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.AuthToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call diarization sidecar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("diarization sidecar returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded pyannoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode diarization response: %w", err)
	}
	return decoded.Segments, nil
}

// Healthy reports whether the sidecar's /health endpoint answers 200.
func (p *Pyannote) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
