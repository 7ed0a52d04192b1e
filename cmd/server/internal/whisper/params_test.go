package whisper

import (
	"path/filepath"
	"testing"
)

func TestParamsForQuality(t *testing.T) {
	tests := []struct {
		quality  string
		beamSize int
		vad      bool
	}{
		{QualityAccurate, 8, true},
		{QualityBalanced, 5, true},
		{QualityFast, 1, true},
		{QualityHyperfast, 1, false},
		{"unknown", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			opts := ParamsForQuality(tt.quality)
			if opts.BeamSize != tt.beamSize {
				t.Errorf("BeamSize = %d, want %d", opts.BeamSize, tt.beamSize)
			}
			if opts.VADFilter != tt.vad {
				t.Errorf("VADFilter = %v, want %v", opts.VADFilter, tt.vad)
			}
			if opts.Temperature != 0 {
				t.Errorf("Temperature = %v, want 0", opts.Temperature)
			}
			if opts.BestOf != 1 {
				t.Errorf("BestOf = %d, want 1", opts.BestOf)
			}
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty-uses-default", "", "th"},
		{"thai-alias", "Thai", "th"},
		{"th-th-alias", "th-TH", "th"},
		{"detect-alias", "detect", "auto"},
		{"auto", "auto", "auto"},
		{"passthrough", "EN", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLanguage(tt.input, "th"); got != tt.want {
				t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeModelName(t *testing.T) {
	base := t.TempDir()

	t.Run("empty-uses-default", func(t *testing.T) {
		if got := NormalizeModelName("", "small", base); got != "small" {
			t.Errorf("got %q, want %q", got, "small")
		}
	})

	t.Run("large-alias", func(t *testing.T) {
		if got := NormalizeModelName("Large", "small", base); got != "large-v3" {
			t.Errorf("got %q, want %q", got, "large-v3")
		}
	})

	t.Run("plain-name-lowercased", func(t *testing.T) {
		if got := NormalizeModelName("Medium", "small", base); got != "medium" {
			t.Errorf("got %q, want %q", got, "medium")
		}
	})

	t.Run("relative-path-resolved", func(t *testing.T) {
		got := NormalizeModelName("./models/custom", "small", base)
		want := filepath.Join(base, "models", "custom")
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("absolute-path-kept", func(t *testing.T) {
		abs := filepath.Join(base, "custom")
		if got := NormalizeModelName(abs, "small", base); got != abs {
			t.Errorf("got %q, want %q", got, abs)
		}
	})
}
