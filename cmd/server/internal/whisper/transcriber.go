// Package whisper provides the transcription abstraction used by the
// pipeline. It defines the segment/result data model, quality presets and a
// model registry, and ships a faster-whisper subprocess implementation plus
// a mock for tests and degraded operation.
package whisper

import "context"

// Segment is a single transcribed span. Segments arrive in start-time order
// and are immutable once produced, except for Speaker which diarization may
// fill in exactly once after transcription completes.
type Segment struct {
	// Start is the beginning of the span in seconds from the audio start.
	Start float64 `json:"start"`

	// End is the end of the span in seconds; always >= Start.
	End float64 `json:"end"`

	// Text is the transcribed content; may be empty.
	Text string `json:"text"`

	// Speaker is the diarization label, empty until assigned.
	Speaker string `json:"speaker,omitempty"`
}

// Info is the transcription metadata available before the first segment.
type Info struct {
	// Language is the detected or requested language code.
	Language string `json:"language"`

	// Duration is the total audio duration in seconds, 0 when unknown.
	Duration float64 `json:"duration"`
}

// Result is the complete outcome of one transcription run.
type Result struct {
	// Segments lists every transcribed span in temporal order.
	Segments []Segment `json:"segments"`

	// Text is the full transcript, the joined segment texts.
	Text string `json:"text"`

	// Language is the detected or requested language code.
	Language string `json:"language"`

	// Duration is the total audio duration in seconds, 0 when unknown.
	Duration float64 `json:"duration"`
}

// Options are the per-request transcription parameters. Zero values fall
// back to implementation defaults.
type Options struct {
	// Language forces a language (ISO 639-1); "auto" or empty auto-detects.
	Language string

	// Prompt seeds the decoder with domain context.
	Prompt string

	// BeamSize is the decoder beam width.
	BeamSize int

	// BestOf is the number of candidates sampled per segment.
	BestOf int

	// Temperature is the sampling temperature.
	Temperature float64

	// VADFilter enables voice-activity filtering of silence.
	VADFilter bool
}

// Callbacks receive incremental transcription output. Either field may be
// nil. OnInfo fires once, before the first OnSegment; OnSegment fires per
// segment in temporal order as segments become available.
type Callbacks struct {
	OnInfo    func(Info)
	OnSegment func(Segment)
}

// Transcriber is the contract the pipeline consumes. The returned Result
// repeats the full segment list plus metadata after the callbacks ran.
//
// Implementations must respect ctx cancellation and wrap external failures
// with context. An audio file with no speech yields an empty Result, not an
// error.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts Options, cb Callbacks) (*Result, error)

	// Name identifies the implementation for logging and the model field of
	// API responses, e.g. "faster-whisper-large-v3(int8)".
	Name() string
}
