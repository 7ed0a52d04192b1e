// Package api exposes the gateway's HTTP surface: health, synchronous and
// streaming transcription, and the summarize report endpoint.
package api

import (
	"mime/multipart"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/audit"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/config"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/media"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/pipeline"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/whisper"
)

// Handler bundles the dependencies shared by all endpoints.
type Handler struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	registry *whisper.Registry
	pre      *media.Preprocessor
	audit    *audit.Logger
}

// NewHandler creates the API handler. audit may be nil to disable job
// audit logging (tests).
func NewHandler(cfg *config.Config, runner *pipeline.Runner, registry *whisper.Registry, pre *media.Preprocessor, auditLogger *audit.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		runner:   runner,
		registry: registry,
		pre:      pre,
		audit:    auditLogger,
	}
}

// Routes registers all endpoints on the engine.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.POST("/transcribe", h.Transcribe)
	r.POST("/transcribe_stream", h.TranscribeStream)
	r.POST("/transcribe_stream_upload", h.TranscribeStreamUpload)
	r.POST("/summarize", h.Summarize)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// requestFromForm builds a pipeline request from multipart form fields. The
// returned closer owns the uploaded file handle.
func (h *Handler) requestFromForm(c *gin.Context) (pipeline.Request, *multipart.FileHeader, multipart.File, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return pipeline.Request{}, nil, nil, err
	}
	f, err := fileHeader.Open()
	if err != nil {
		return pipeline.Request{}, nil, nil, err
	}

	req := pipeline.Request{
		Audio:          f,
		Suffix:         suffixOf(fileHeader.Filename),
		Language:       c.PostForm("language"),
		Model:          c.PostForm("model_size"),
		Quality:        c.PostForm("quality"),
		Prompt:         c.PostForm("initial_prompt"),
		Diarize:        parseBool(c.PostForm("diarize")),
		Preprocess:     parseBool(c.PostForm("preprocess")),
		FastPreprocess: parseBool(c.PostForm("fast_preprocess")),
	}
	return req, fileHeader, f, nil
}

// requestFromQuery builds a pipeline request for raw-body uploads, with all
// parameters carried in the query string.
func (h *Handler) requestFromQuery(c *gin.Context) pipeline.Request {
	return pipeline.Request{
		Audio:          c.Request.Body,
		Suffix:         ".bin",
		Language:       c.Query("language"),
		Model:          c.Query("model_size"),
		Quality:        c.Query("quality"),
		Prompt:         c.Query("initial_prompt"),
		Diarize:        parseBool(c.Query("diarize")),
		Preprocess:     parseBool(c.Query("preprocess")),
		FastPreprocess: parseBool(c.Query("fast_preprocess")),
	}
}

func (h *Handler) auditResult(c *gin.Context, endpoint string, result *pipeline.Result, err error) {
	if h.audit == nil {
		return
	}
	rec := audit.JobRecord{
		Endpoint: endpoint,
		SourceIP: c.ClientIP(),
	}
	if result != nil {
		rec.JobID = result.Queue.JobID
		rec.Model = result.Model
		rec.Quality = result.Quality
		rec.Language = result.Language
		rec.Duration = result.Duration
		rec.WaitSeconds = result.Queue.WaitSeconds
		rec.Segments = len(result.Segments)
		rec.Diarized = result.Diarization.Applied
	}
	h.audit.LogJob(rec, err)
}

func suffixOf(filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return ".bin"
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
