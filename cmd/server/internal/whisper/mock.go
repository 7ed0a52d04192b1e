package whisper

import "context"

// Mock is a scriptable Transcriber for tests. Segments are replayed through
// the callbacks in order; Err, when set, is returned after ErrAfter segments
// have been emitted (0 means fail before any segment).
type Mock struct {
	Info     Info
	Segs     []Segment
	Err      error
	ErrAfter int

	Calls int
}

// NewMock returns a mock that replays the given segments with metadata.
func NewMock(language string, duration float64, segs ...Segment) *Mock {
	return &Mock{
		Info: Info{Language: language, Duration: duration},
		Segs: segs,
	}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Transcribe(ctx context.Context, audioPath string, opts Options, cb Callbacks) (*Result, error) {
	m.Calls++

	if m.Err != nil && m.ErrAfter <= 0 {
		return nil, m.Err
	}

	if cb.OnInfo != nil {
		cb.OnInfo(m.Info)
	}

	result := &Result{
		Language: m.Info.Language,
		Duration: m.Info.Duration,
		Segments: []Segment{},
	}
	var text string
	for i, seg := range m.Segs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Segments = append(result.Segments, seg)
		if text != "" {
			text += " "
		}
		text += seg.Text
		if cb.OnSegment != nil {
			cb.OnSegment(seg)
		}
		if m.Err != nil && m.ErrAfter == i+1 {
			return nil, m.Err
		}
	}
	result.Text = text
	return result, nil
}
