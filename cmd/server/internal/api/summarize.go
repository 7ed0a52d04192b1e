package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SummarizeRequest is the report request body.
type SummarizeRequest struct {
	Transcript string   `json:"transcript"`
	Style      string   `json:"style"`
	Sections   []string `json:"sections"`
}

// Summarize renders a markdown report from a transcript. This is template
// formatting only; no language model is involved.
// POST /summarize
func (h *Handler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.Style == "" {
		req.Style = "thai-formal"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# สรุปรายงาน (%s)\n\n", req.Style)
	if len(req.Sections) > 0 {
		excerpt := truncateRunes(req.Transcript, 100)
		for _, sec := range req.Sections {
			fmt.Fprintf(&b, "## %s\n- %s...\n", sec, excerpt)
		}
	} else {
		b.WriteString(req.Transcript)
	}

	c.JSON(http.StatusOK, gin.H{"report_markdown": b.String()})
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
