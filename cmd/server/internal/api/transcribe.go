package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/transcribe-gateway/pkg/logger"
)

// Transcribe runs one job synchronously and returns the complete result.
// POST /transcribe (multipart: file + language, model_size, quality,
// initial_prompt, diarize, preprocess, fast_preprocess)
func (h *Handler) Transcribe(c *gin.Context) {
	req, _, f, err := h.requestFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or unreadable file field: " + err.Error()})
		return
	}
	defer f.Close()

	result, err := h.runner.Run(c.Request.Context(), req)
	h.auditResult(c, "/transcribe", result, err)
	if err != nil {
		logger.L().Error("transcription request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
