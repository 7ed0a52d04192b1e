package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/pipeline"
	"github.com/houzhh15/transcribe-gateway/pkg/logger"
)

// TranscribeStream runs one job while streaming NDJSON events: an optional
// queued record, progress per segment, then done (or a terminal error).
// POST /transcribe_stream (same multipart inputs as /transcribe)
func (h *Handler) TranscribeStream(c *gin.Context) {
	req, _, f, err := h.requestFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or unreadable file field: " + err.Error()})
		return
	}
	defer f.Close()

	h.stream(c, "/transcribe_stream", req)
}

// TranscribeStreamUpload is the raw-body variant: audio is the request body,
// parameters travel in the query string.
// POST /transcribe_stream_upload?language=&model_size=&quality=...
func (h *Handler) TranscribeStreamUpload(c *gin.Context) {
	h.stream(c, "/transcribe_stream_upload", h.requestFromQuery(c))
}

// stream drives the pipeline in a producer goroutine and writes each event
// to the wire as one JSON line, flushing between lines. The pipeline's own
// defers handle ticket release and temp files when the client disconnects.
func (h *Handler) stream(c *gin.Context, endpoint string, req pipeline.Request) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	events := make(chan pipeline.Event)
	g, ctx := errgroup.WithContext(c.Request.Context())

	var result *pipeline.Result
	g.Go(func() error {
		r, err := h.runner.RunStream(ctx, req, events)
		result = r
		return err
	})

	enc := json.NewEncoder(c.Writer)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			// Client gone; keep draining so the producer can finish
			// its cleanup path.
			continue
		}
		c.Writer.Flush()
	}

	err := g.Wait()
	h.auditResult(c, endpoint, result, err)
	if err != nil {
		logger.L().Error("streaming transcription failed", "endpoint", endpoint, "error", err)
	}
}
