// merge-segments converts transcription results produced by the gateway into
// readable transcript formats, optionally overlaying speaker labels from a
// separate diarization JSON file.
//
// Usage:
//
//	merge-segments -segments-file <result.(json|ndjson)> [-speaker-file diarization.json] [-format text|json|srt|vtt]
//
// The segments file is either the /transcribe response body or a captured
// /transcribe_stream NDJSON stream (the done event is used).
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Segment mirrors the gateway's segment shape: seconds-based boundaries.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

type result struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

type streamEvent struct {
	Event    string    `json:"event"`
	Segments []Segment `json:"segments"`
	Text     string    `json:"text"`
	Language string    `json:"language"`
}

type diarizationTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

func main() {
	var segmentsFile string
	var speakerFile string
	var format string
	flag.Usage = func() {
		exe := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s -segments-file <result.(json|ndjson)> [-speaker-file diarization.json] [-format text|json|srt|vtt]\n\n", exe)
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}
	flag.StringVar(&segmentsFile, "segments-file", "", "Path to a /transcribe result or captured NDJSON stream")
	flag.StringVar(&speakerFile, "speaker-file", "", "Optional diarization JSON file {segments:[{start,end,speaker}]}")
	flag.StringVar(&format, "format", "text", "Output format: json|text|srt|vtt")
	flag.Parse()

	if segmentsFile == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !validFormat(format) {
		fmt.Fprintln(os.Stderr, "invalid -format:", format)
		flag.Usage()
		os.Exit(2)
	}

	segs, err := parseSegmentsFile(segmentsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read segments:", err)
		os.Exit(1)
	}

	if speakerFile != "" {
		if err := labelSpeakersFromFile(speakerFile, segs); err != nil {
			fmt.Fprintln(os.Stderr, "merge speakers:", err)
			os.Exit(1)
		}
	}

	if err := write(os.Stdout, format, segs); err != nil {
		fmt.Fprintln(os.Stderr, "write output:", err)
		os.Exit(1)
	}
}

func validFormat(f string) bool {
	switch f {
	case "json", "text", "srt", "vtt":
		return true
	default:
		return false
	}
}

// parseSegmentsFile accepts a full result object, a bare segment array, or
// an NDJSON stream capture whose done event carries the result.
func parseSegmentsFile(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var res result
	if err := json.Unmarshal(data, &res); err == nil && len(res.Segments) > 0 {
		return res.Segments, nil
	}

	var arr []Segment
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.Event == "done" && len(ev.Segments) > 0 {
			return ev.Segments, nil
		}
	}

	return nil, errors.New("no segments found")
}

// labelSpeakersFromFile assigns each segment the speaker of the diarization
// turn it overlaps most, matching the gateway's own assignment rule.
func labelSpeakersFromFile(path string, segs []Segment) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var payload struct {
		Segments []diarizationTurn `json:"segments"`
		Error    string            `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if payload.Error != "" {
		return fmt.Errorf("diarization error: %s", payload.Error)
	}

	for i := range segs {
		var bestSpeaker string
		var best float64
		for _, turn := range payload.Segments {
			ov := overlap(segs[i].Start, segs[i].End, turn.Start, turn.End)
			if ov > best {
				best = ov
				bestSpeaker = turn.Speaker
			}
		}
		if best > 0 {
			segs[i].Speaker = bestSpeaker
		}
	}
	return nil
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

func write(w io.Writer, format string, segs []Segment) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(segs)
	case "srt":
		for i, s := range segs {
			fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
				i+1, formatClock(s.Start, ","), formatClock(s.End, ","), strings.TrimSpace(s.Text))
		}
	case "vtt":
		fmt.Fprintln(w, "WEBVTT")
		fmt.Fprintln(w)
		for _, s := range segs {
			fmt.Fprintf(w, "%s --> %s\n%s\n\n",
				formatClock(s.Start, "."), formatClock(s.End, "."), strings.TrimSpace(s.Text))
		}
	default: // text
		for _, s := range segs {
			speaker := ""
			if s.Speaker != "" {
				speaker = fmt.Sprintf(" [%s]", s.Speaker)
			}
			fmt.Fprintf(w, "[%s --> %s]%s %s\n",
				formatClock(s.Start, "."), formatClock(s.End, "."), speaker, strings.TrimSpace(s.Text))
		}
	}
	return nil
}

// formatClock renders seconds as HH:MM:SS<sep>mmm. SRT separates millis with
// a comma, WebVTT and the text format with a dot.
func formatClock(seconds float64, sep string) string {
	d := time.Duration(seconds * float64(time.Second))
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, sep, ms)
}
