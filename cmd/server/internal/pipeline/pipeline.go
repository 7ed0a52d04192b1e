// Package pipeline sequences one transcription request end to end: persist
// the upload, best-effort preprocessing, queue admission, incremental
// transcription, optional diarization, speaker merge and result assembly.
// The pipeline owns every temporary file it creates and the admission ticket
// it holds; both are reclaimed on every exit path, including cancellation.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/diarize"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/media"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/metrics"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/queue"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/whisper"
	"github.com/houzhh15/transcribe-gateway/pkg/logger"
)

// Request carries one job's audio and parameters. Audio is consumed exactly
// once; Suffix preserves the upload's file extension for the temp store.
type Request struct {
	Audio  io.Reader
	Suffix string

	Language       string
	Model          string
	Quality        string
	Prompt         string
	Diarize        bool
	Preprocess     bool
	FastPreprocess bool
}

// QueueMetrics reports how the job fared in the admission queue.
type QueueMetrics struct {
	JobID             int64   `json:"job_id"`
	WaitSeconds       float64 `json:"wait_seconds"`
	PositionOnEnqueue int     `json:"position_on_enqueue"`
}

// Result is the aggregate outcome of one pipeline run.
type Result struct {
	Text           string            `json:"text"`
	Language       string            `json:"language"`
	Segments       []whisper.Segment `json:"segments"`
	Duration       float64           `json:"duration_sec"`
	Model          string            `json:"model"`
	Quality        string            `json:"quality"`
	CPUThreads     int               `json:"cpu_threads"`
	NumWorkers     int               `json:"num_workers"`
	Preprocess     bool              `json:"preprocess"`
	FastPreprocess bool              `json:"fast_preprocess"`
	Speakers       []string          `json:"speakers"`
	Diarization    diarize.Outcome   `json:"diarization"`
	Queue          QueueMetrics      `json:"queue"`
}

// Config holds the runner's defaults and temp-store location.
type Config struct {
	// TempDir receives per-request upload and preprocessing files.
	TempDir string

	DefaultLanguage string
	DefaultModel    string
	DefaultQuality  string

	// ModelBaseDir anchors relative path-like model names.
	ModelBaseDir string

	CPUThreads int
	NumWorkers int
}

// Runner executes transcription requests. Diarizer may be nil when no
// diarization backend is configured; diarize requests then degrade with a
// configuration reason instead of failing.
type Runner struct {
	cfg      Config
	queue    *queue.Queue
	registry *whisper.Registry
	pre      *media.Preprocessor
	diarizer diarize.Diarizer
	logger   *slog.Logger
}

// New creates a runner.
func New(cfg Config, q *queue.Queue, registry *whisper.Registry, pre *media.Preprocessor, diarizer diarize.Diarizer, logger *slog.Logger) *Runner {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Runner{
		cfg:      cfg,
		queue:    q,
		registry: registry,
		pre:      pre,
		diarizer: diarizer,
		logger:   logger,
	}
}

// Queue exposes the admission queue for health reporting.
func (r *Runner) Queue() *queue.Queue { return r.queue }

// Diarizer exposes the configured diarization backend, nil when disabled.
func (r *Runner) Diarizer() diarize.Diarizer { return r.diarizer }

// Run executes the request synchronously and returns the complete result.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	return r.run(ctx, req, nil)
}

// RunStream executes the request while emitting events on the given channel.
// The channel is closed when the run ends; the last event is either Done or
// Error. Ticket release and temp-file deletion happen regardless of how the
// stream terminates.
func (r *Runner) RunStream(ctx context.Context, req Request, events chan<- Event) (*Result, error) {
	defer close(events)

	result, err := r.run(ctx, req, events)
	if err != nil {
		r.send(ctx, events, newError(err))
		return nil, err
	}
	r.send(ctx, events, newDone(result))
	return result, nil
}

// send delivers an event unless the consumer is gone.
func (r *Runner) send(ctx context.Context, events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

func (r *Runner) run(ctx context.Context, req Request, events chan<- Event) (retResult *Result, retErr error) {
	model := whisper.NormalizeModelName(req.Model, r.cfg.DefaultModel, r.cfg.ModelBaseDir)
	language := whisper.NormalizeLanguage(req.Language, r.cfg.DefaultLanguage)
	quality := whisper.NormalizeQuality(req.Quality, r.cfg.DefaultQuality)

	opts := whisper.ParamsForQuality(quality)
	opts.Language = language
	opts.Prompt = req.Prompt

	transcriber, err := r.registry.Get(model)
	if err != nil {
		return nil, err
	}

	// Persist the upload. Every path registered here is deleted on exit.
	var tempPaths []string
	defer func() {
		for _, p := range tempPaths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				r.logger.Warn("temp file cleanup failed", "path", p, "error", err)
			}
		}
	}()

	start := time.Now()
	audioPath, err := r.persist(req)
	if err != nil {
		return nil, err
	}
	tempPaths = append(tempPaths, audioPath)
	metrics.ObserveStage("persist", time.Since(start).Seconds())

	// Preprocessing is best-effort: on failure keep the original audio.
	wavPath := audioPath
	if req.Preprocess {
		start = time.Now()
		normPath, err := r.pre.Normalize(ctx, audioPath, req.FastPreprocess)
		if err != nil {
			// Degraded, not fatal: the original audio still works.
			logger.LogStage(r.logger, "preprocess", "error", 0, time.Since(start).Milliseconds(), err.Error())
		} else {
			wavPath = normPath
			tempPaths = append(tempPaths, normPath)
		}
		metrics.ObserveStage("preprocess", time.Since(start).Seconds())
	}

	// Admission. The ticket must be released exactly once on every path.
	ticket := r.queue.Enqueue()
	defer func() {
		if err := r.queue.Release(ticket); err != nil {
			r.logger.Error("ticket release failed", "job_id", ticket.ID, "error", err)
		}
		r.publishQueueStats()
	}()
	r.publishQueueStats()

	if ticket.Position > 0 {
		r.send(ctx, events, newQueued(ticket.ID, ticket.Position))
	}
	if err := r.queue.Wait(ctx, ticket); err != nil {
		return nil, fmt.Errorf("queue admission aborted: %w", err)
	}
	metrics.ObserveWait(ticket.WaitSeconds())
	r.publishQueueStats()

	// Transcription. Collaborator failure here is fatal to the request.
	var duration float64
	start = time.Now()
	cb := whisper.Callbacks{
		OnInfo: func(info whisper.Info) {
			duration = info.Duration
			r.send(ctx, events, newProgress(0, ""))
		},
		OnSegment: func(seg whisper.Segment) {
			r.send(ctx, events, newProgress(progressPercent(seg.End, duration), seg.Text))
		},
	}
	trResult, err := transcriber.Transcribe(ctx, wavPath, opts, cb)
	transcribeSeconds := time.Since(start).Seconds()
	metrics.ObserveStage("transcribe", transcribeSeconds)
	if err != nil {
		logger.LogStage(r.logger, "transcribe", "error", ticket.ID, int64(transcribeSeconds*1000), err.Error())
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	r.logger.Info("transcription complete",
		"job_id", ticket.ID,
		"model", model,
		"segments", len(trResult.Segments),
		"audio_sec", trResult.Duration,
		"took_sec", transcribeSeconds,
		"wait_sec", ticket.WaitSeconds(),
	)

	// Diarization degrades to a non-applied outcome on any failure.
	outcome := r.runDiarization(ctx, req, ticket.ID, wavPath, trResult.Segments)

	result := &Result{
		Text:           trResult.Text,
		Language:       trResult.Language,
		Segments:       trResult.Segments,
		Duration:       trResult.Duration,
		Model:          transcriber.Name(),
		Quality:        quality,
		CPUThreads:     r.cfg.CPUThreads,
		NumWorkers:     r.cfg.NumWorkers,
		Preprocess:     req.Preprocess,
		FastPreprocess: req.FastPreprocess,
		Speakers:       diarize.Speakers(trResult.Segments),
		Diarization:    outcome,
		Queue: QueueMetrics{
			JobID:             ticket.ID,
			WaitSeconds:       ticket.WaitSeconds(),
			PositionOnEnqueue: ticket.Position,
		},
	}
	return result, nil
}

func (r *Runner) runDiarization(ctx context.Context, req Request, jobID int64, wavPath string, segments []whisper.Segment) diarize.Outcome {
	if !req.Diarize {
		return diarize.NotApplied("not requested")
	}
	if r.diarizer == nil {
		metrics.RecordDiarization("skipped")
		return diarize.NotApplied("diarization not configured: set DIARIZATION_URL")
	}

	start := time.Now()
	turns, err := r.diarizer.Diarize(ctx, wavPath)
	metrics.ObserveStage("diarize", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordDiarization("failed")
		logger.LogStage(r.logger, "diarize", "error", jobID, time.Since(start).Milliseconds(), err.Error())
		return diarize.NotApplied(err.Error())
	}

	metrics.RecordDiarization("applied")
	logger.LogStage(r.logger, "diarize", "success", jobID, time.Since(start).Milliseconds(), "")
	diarize.AssignSpeakers(segments, turns)
	return diarize.Outcome{
		Applied: true,
		Model:   r.diarizer.Name(),
		Turns:   turns,
	}
}

// persist copies the upload into a uniquely named file in the temp store.
func (r *Runner) persist(req Request) (string, error) {
	suffix := req.Suffix
	if suffix == "" {
		suffix = ".bin"
	}
	path := filepath.Join(r.cfg.TempDir, "upload-"+uuid.NewString()+suffix)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, req.Audio); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("persist upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

func (r *Runner) publishQueueStats() {
	stats := r.queue.Stats()
	metrics.SetQueueStats(stats.Active, stats.Waiting)
}

// progressPercent converts a segment end time into percent complete, 0 when
// the total duration is unknown, capped at 100 and rounded to 2 decimals.
func progressPercent(end, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	p := end / duration * 100
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}
