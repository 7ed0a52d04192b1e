package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/diarize"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/whisper"
)

// Healthz reports process status: effective defaults, loaded model keys, a
// live queue snapshot and, when a diarization sidecar is configured, whether
// the sidecar is reachable.
// GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	stats := h.runner.Queue().Stats()

	body := gin.H{
		"ok":               true,
		"default_model":    whisper.NormalizeModelName(h.cfg.Whisper.DefaultModel, h.cfg.Whisper.DefaultModel, h.cfg.Whisper.ModelBaseDir),
		"default_language": h.cfg.Whisper.DefaultLanguage,
		"default_quality":  h.cfg.Whisper.DefaultQuality,
		"host":             h.cfg.Server.Host,
		"port":             h.cfg.Server.Port,
		"cpu_threads":      h.cfg.Whisper.CPUThreads,
		"num_workers":      h.cfg.Whisper.NumWorkers,
		"compute":          h.cfg.Whisper.ComputeType,
		"loaded_models":    h.registry.Keys(),
		"ffmpeg":           h.cfg.Media.FFmpegBin,
		"ffmpeg_available": h.pre.Available(),
		"diarization":      h.cfg.DiarizationEnabled(),
		"max_concurrent":   stats.Capacity,
		"queue": gin.H{
			"capacity": stats.Capacity,
			"active":   stats.Active,
			"waiting":  stats.Waiting,
		},
	}

	if d := h.runner.Diarizer(); d != nil {
		if hc, ok := d.(diarize.HealthChecker); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			body["diarization_healthy"] = hc.Healthy(ctx)
		}
	}

	c.JSON(http.StatusOK, body)
}
