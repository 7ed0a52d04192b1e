// Package media wraps the ffmpeg preprocessing step. Preprocessing is
// best-effort everywhere: callers fall back to the original audio path when
// it fails.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Filter chain used by full preprocessing: band-pass speech and normalize
// loudness. Constants match the inference stack's 16 kHz mono expectation.
const (
	sampleRate  = "16000"
	audioFilter = "highpass=f=100,lowpass=f=8000,loudnorm=I=-16:TP=-1.5:LRA=11"
)

// Preprocessor converts arbitrary uploaded audio into normalized WAV input
// for the transcriber by shelling out to ffmpeg.
type Preprocessor struct {
	// FFmpegBin is the ffmpeg executable, default "ffmpeg".
	FFmpegBin string
}

// NewPreprocessor creates a preprocessor around the given ffmpeg binary.
func NewPreprocessor(ffmpegBin string) *Preprocessor {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Preprocessor{FFmpegBin: ffmpegBin}
}

// Available reports whether the configured ffmpeg binary can be found.
func (p *Preprocessor) Available() bool {
	_, err := exec.LookPath(p.FFmpegBin)
	return err == nil
}

// Normalize writes a 16 kHz mono WAV rendition of in and returns its path
// (in + ".norm.wav"). Quick mode only resamples; full mode additionally
// applies the speech filter chain. On error no output file is left behind
// and the caller should keep using the input path.
func (p *Preprocessor) Normalize(ctx context.Context, in string, quick bool) (string, error) {
	out := in + ".norm.wav"
	cmd := exec.CommandContext(ctx, p.FFmpegBin, buildArgs(in, out, quick)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		// ffmpeg may have written a partial output before failing.
		os.Remove(out)
		return "", fmt.Errorf("ffmpeg preprocessing failed: %w, output: %s", err, output)
	}
	return out, nil
}

func buildArgs(in, out string, quick bool) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", in,
		"-ac", "1",
		"-ar", sampleRate,
	}
	if !quick {
		args = append(args, "-af", audioFilter)
	}
	return append(args, out)
}
