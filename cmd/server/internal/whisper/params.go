package whisper

import (
	"os"
	"path/filepath"
	"strings"
)

// Quality preset names accepted by the API.
const (
	QualityAccurate  = "accurate"
	QualityBalanced  = "balanced"
	QualityFast      = "fast"
	QualityHyperfast = "hyperfast"
)

// NormalizeQuality lower-cases a preset name, falling back to the given
// default when empty.
func NormalizeQuality(q, def string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return def
	}
	return q
}

// ParamsForQuality maps a quality preset to decoder options. Unknown presets
// behave like hyperfast (greedy decoding, no VAD).
func ParamsForQuality(quality string) Options {
	switch quality {
	case QualityAccurate:
		return Options{BeamSize: 8, VADFilter: true, Temperature: 0, BestOf: 1}
	case QualityBalanced:
		return Options{BeamSize: 5, VADFilter: true, Temperature: 0, BestOf: 1}
	case QualityFast:
		return Options{BeamSize: 1, VADFilter: true, Temperature: 0, BestOf: 1}
	default:
		return Options{BeamSize: 1, VADFilter: false, Temperature: 0, BestOf: 1}
	}
}

// NormalizeLanguage canonicalizes a language form value. Thai aliases map to
// "th" and detection aliases to "auto"; anything else passes through
// lower-cased. Empty input returns the given default.
func NormalizeLanguage(lang, def string) string {
	if strings.TrimSpace(lang) == "" {
		return def
	}
	l := strings.ToLower(strings.TrimSpace(lang))
	switch l {
	case "thai", "th-th", "th":
		return "th"
	case "auto", "detect":
		return "auto"
	}
	return l
}

// NormalizeModelName canonicalizes a model form value. Path-like names are
// resolved to absolute paths (relative to baseDir when not absolute) so a
// locally converted model directory can be used directly; the bare name
// "large" aliases to "large-v3". Empty input returns the given default.
func NormalizeModelName(name, def, baseDir string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return def
	}
	if isPathLike(name) {
		return resolvePath(name, baseDir)
	}
	lowered := strings.ToLower(name)
	if lowered == "large" {
		return "large-v3"
	}
	return lowered
}

func isPathLike(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, "./") || strings.HasPrefix(value, "../") || strings.HasPrefix(value, "~") {
		return true
	}
	return strings.ContainsAny(value, `/\`)
}

func resolvePath(raw, baseDir string) string {
	if strings.HasPrefix(raw, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	return filepath.Clean(filepath.Join(baseDir, raw))
}
