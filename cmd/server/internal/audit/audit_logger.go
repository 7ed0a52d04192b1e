// Package audit records one JSONL line per finished transcription job so
// operators can reconstruct who processed what and how long it took.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes job audit records with automatic file rotation.
type Logger struct {
	logger *log.Logger
}

// New creates an audit logger writing to logPath, rotating by size and age.
func New(logPath string) *Logger {
	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}

	return &Logger{
		logger: log.New(writer, "", 0), // records carry their own timestamp
	}
}

// JobRecord describes one finished transcription job.
type JobRecord struct {
	JobID       int64   `json:"job_id"`
	Endpoint    string  `json:"endpoint"`
	Model       string  `json:"model"`
	Quality     string  `json:"quality"`
	Language    string  `json:"language"`
	Duration    float64 `json:"duration_sec"`
	WaitSeconds float64 `json:"wait_seconds"`
	Segments    int     `json:"segments"`
	Diarized    bool    `json:"diarized"`
	SourceIP    string  `json:"source_ip,omitempty"`
}

// LogJob records a finished job, successful or not.
func (a *Logger) LogJob(rec JobRecord, err error) {
	record := map[string]interface{}{
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"job_id":       rec.JobID,
		"endpoint":     rec.Endpoint,
		"model":        rec.Model,
		"quality":      rec.Quality,
		"language":     rec.Language,
		"duration_sec": rec.Duration,
		"wait_seconds": rec.WaitSeconds,
		"segments":     rec.Segments,
		"diarized":     rec.Diarized,
		"result":       "success",
	}
	if rec.SourceIP != "" {
		record["source_ip"] = rec.SourceIP
	}
	if err != nil {
		record["result"] = "failed"
		record["error_message"] = err.Error()
	}

	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}
