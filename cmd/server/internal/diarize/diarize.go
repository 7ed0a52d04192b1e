// Package diarize defines the speaker-diarization collaborator boundary and
// the pure speaker-assignment merge. Diarization is always best-effort: any
// failure is carried forward as a non-applied Outcome instead of failing the
// owning request.
package diarize

import "context"

// Turn is one speaker-attributed time range produced by a diarizer.
type Turn struct {
	// Start is the turn start in seconds.
	Start float64 `json:"start"`
	// End is the turn end in seconds.
	End float64 `json:"end"`
	// Speaker is the diarizer's label for this turn, e.g. "SPEAKER_00".
	Speaker string `json:"speaker"`
}

// Outcome reports whether diarization was applied to a request. When it was
// not, Reason holds a diagnostic string (missing configuration, unreachable
// sidecar, runtime failure) that the API returns inline.
type Outcome struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	Model   string `json:"model,omitempty"`
	Turns   []Turn `json:"segments,omitempty"`
}

// NotApplied builds a degraded outcome with the given reason.
func NotApplied(reason string) Outcome {
	return Outcome{Applied: false, Reason: reason}
}

// Diarizer is the collaborator contract consumed by the pipeline.
type Diarizer interface {
	// Diarize labels speaker turns for the given audio file.
	Diarize(ctx context.Context, audioPath string) ([]Turn, error)

	// Name identifies the diarization backend for the Outcome.Model field.
	Name() string
}

// HealthChecker is implemented by diarizers that can check whether their
// backend is reachable. The health endpoint reports the result for
// configured sidecars.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}
