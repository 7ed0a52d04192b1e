package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestRecordRequest(t *testing.T) {
	RequestsTotal.Reset()

	RecordRequest("/transcribe", true)
	RecordRequest("/transcribe", true)
	RecordRequest("/transcribe", false)

	metric := &dto.Metric{}
	if err := RequestsTotal.WithLabelValues("/transcribe", "success").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected success counter 2, got %f", metric.Counter.GetValue())
	}

	metric = &dto.Metric{}
	if err := RequestsTotal.WithLabelValues("/transcribe", "error").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected error counter 1, got %f", metric.Counter.GetValue())
	}
}

func TestSetQueueStats(t *testing.T) {
	SetQueueStats(2, 5)

	metric := &dto.Metric{}
	if err := QueueActive.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 2 {
		t.Errorf("Expected active gauge 2, got %f", metric.Gauge.GetValue())
	}

	metric = &dto.Metric{}
	if err := QueueWaiting.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 5 {
		t.Errorf("Expected waiting gauge 5, got %f", metric.Gauge.GetValue())
	}

	// Snapshots overwrite, not accumulate.
	SetQueueStats(0, 0)
	metric = &dto.Metric{}
	if err := QueueActive.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 0 {
		t.Errorf("Expected active gauge 0 after reset, got %f", metric.Gauge.GetValue())
	}
}

func TestRecordDiarization(t *testing.T) {
	DiarizationTotal.Reset()

	RecordDiarization("applied")
	RecordDiarization("failed")
	RecordDiarization("applied")

	metric := &dto.Metric{}
	if err := DiarizationTotal.WithLabelValues("applied").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected applied counter 2, got %f", metric.Counter.GetValue())
	}
}

func TestObserveStageAndWait(t *testing.T) {
	// Histograms aggregate across buckets; recording without panic is the
	// check here, matching how stage durations are exercised in practice.
	ObserveStage("persist", 0.05)
	ObserveStage("transcribe", 12.5)
	ObserveWait(0.0)
	ObserveWait(3.2)
}
