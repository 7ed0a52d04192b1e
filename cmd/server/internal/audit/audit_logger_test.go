package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid JSONL line %q: %v", scanner.Text(), err)
		}
		records = append(records, rec)
	}
	return records
}

func TestLogJobSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.jsonl")
	l := New(path)

	l.LogJob(JobRecord{
		JobID:       7,
		Endpoint:    "/transcribe",
		Model:       "faster-whisper-large-v3(int8)",
		Quality:     "balanced",
		Language:    "th",
		Duration:    42.5,
		WaitSeconds: 1.2,
		Segments:    12,
		Diarized:    true,
		SourceIP:    "10.0.0.9",
	}, nil)

	records := readRecords(t, path)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec["result"] != "success" {
		t.Errorf("result = %v", rec["result"])
	}
	if rec["job_id"] != float64(7) {
		t.Errorf("job_id = %v", rec["job_id"])
	}
	if rec["source_ip"] != "10.0.0.9" {
		t.Errorf("source_ip = %v", rec["source_ip"])
	}
	if _, ok := rec["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
	if _, ok := rec["error_message"]; ok {
		t.Error("success record must not carry error_message")
	}
}

func TestLogJobFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.jsonl")
	l := New(path)

	l.LogJob(JobRecord{Endpoint: "/transcribe_stream"}, errors.New("transcription failed: boom"))

	records := readRecords(t, path)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec["result"] != "failed" {
		t.Errorf("result = %v", rec["result"])
	}
	if rec["error_message"] != "transcription failed: boom" {
		t.Errorf("error_message = %v", rec["error_message"])
	}
	if _, ok := rec["source_ip"]; ok {
		t.Error("empty source_ip must be omitted")
	}
}
