package whisper

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

//go:embed assets/faster_whisper.py
var helperScript []byte

// FasterWhisperConfig binds one FasterWhisper instance to a model and its
// compute settings. Instances are cached by the registry per distinct
// configuration, mirroring how the underlying library keeps one loaded
// model per settings tuple.
type FasterWhisperConfig struct {
	// PythonBin is the interpreter used to run the helper, default "python3".
	PythonBin string

	// Model is the normalized model name or local model path.
	Model string

	// Device selects the inference device: auto, cpu or cuda.
	Device string

	// ComputeType is the quantization mode, e.g. int8 or float16.
	ComputeType string

	// CPUThreads is the thread count per inference, default NumCPU.
	CPUThreads int

	// NumWorkers is the number of parallel library workers, default 1.
	NumWorkers int
}

// FasterWhisper runs transcription through a Python helper subprocess that
// streams one JSON object per line: an info header first, then one line per
// segment as the model produces it. This keeps segment delivery incremental
// without binding cgo into the server.
type FasterWhisper struct {
	cfg FasterWhisperConfig
}

// NewFasterWhisper creates an instance for the given configuration,
// applying defaults for unset fields.
func NewFasterWhisper(cfg FasterWhisperConfig) *FasterWhisper {
	if cfg.PythonBin == "" {
		cfg.PythonBin = "python3"
	}
	if cfg.Device == "" {
		cfg.Device = "auto"
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = "int8"
	}
	if cfg.CPUThreads <= 0 {
		cfg.CPUThreads = runtime.NumCPU()
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	return &FasterWhisper{cfg: cfg}
}

// Name returns the model identifier reported in API responses.
func (f *FasterWhisper) Name() string {
	return fmt.Sprintf("faster-whisper-%s(%s)", f.cfg.Model, f.cfg.ComputeType)
}

// helper line shapes; "info" arrives once before the first segment.
type helperLine struct {
	Type     string  `json:"type"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Start    float64 `json:"start,omitempty"`
	End      float64 `json:"end,omitempty"`
	Text     string  `json:"text,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// Transcribe invokes the helper and forwards metadata and each segment to
// the callbacks as soon as their lines are read from the subprocess pipe.
func (f *FasterWhisper) Transcribe(ctx context.Context, audioPath string, opts Options, cb Callbacks) (*Result, error) {
	scriptPath, err := f.writeHelper()
	if err != nil {
		return nil, err
	}
	defer os.Remove(scriptPath)

	args := f.buildArgs(scriptPath, audioPath, opts)
	cmd := exec.CommandContext(ctx, f.cfg.PythonBin, args...)
	cmd.Env = os.Environ()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open helper stdout: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start helper: %w", err)
	}

	result := &Result{Segments: []Segment{}}
	var parts []string

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg helperLine
		if err := json.Unmarshal(line, &msg); err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, fmt.Errorf("parse helper output: %w (line: %s)", err, line)
		}
		switch msg.Type {
		case "info":
			result.Language = msg.Language
			result.Duration = msg.Duration
			if cb.OnInfo != nil {
				cb.OnInfo(Info{Language: msg.Language, Duration: msg.Duration})
			}
		case "segment":
			seg := Segment{Start: msg.Start, End: msg.End, Text: strings.TrimSpace(msg.Text)}
			result.Segments = append(result.Segments, seg)
			parts = append(parts, seg.Text)
			if cb.OnSegment != nil {
				cb.OnSegment(seg)
			}
		case "error":
			_ = cmd.Wait()
			return nil, fmt.Errorf("transcription failed: %s", msg.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("read helper output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("helper exited: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	result.Text = strings.TrimSpace(strings.Join(parts, " "))
	if result.Language == "" {
		result.Language = opts.Language
	}
	return result, nil
}

func (f *FasterWhisper) buildArgs(scriptPath, audioPath string, opts Options) []string {
	args := []string{
		scriptPath,
		"--audio", audioPath,
		"--model", f.cfg.Model,
		"--device", f.cfg.Device,
		"--compute", f.cfg.ComputeType,
		"--threads", strconv.Itoa(f.cfg.CPUThreads),
		"--workers", strconv.Itoa(f.cfg.NumWorkers),
		"--beam-size", strconv.Itoa(opts.BeamSize),
		"--best-of", strconv.Itoa(opts.BestOf),
		"--temperature", strconv.FormatFloat(opts.Temperature, 'f', 2, 64),
	}
	if opts.Language != "" && opts.Language != "auto" {
		args = append(args, "--language", opts.Language)
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	if opts.VADFilter {
		args = append(args, "--vad")
	}
	return args
}

// writeHelper materializes the embedded Python helper in a uniquely named
// temp file so concurrent transcriptions never share a script path. Removed
// again by the caller.
func (f *FasterWhisper) writeHelper() (string, error) {
	tmp, err := os.CreateTemp("", "faster_whisper_*.py")
	if err != nil {
		return "", fmt.Errorf("write helper script: %w", err)
	}
	if _, err := tmp.Write(helperScript); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write helper script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write helper script: %w", err)
	}
	return tmp.Name(), nil
}
