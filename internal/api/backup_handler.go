package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExportBackup handles GET /api/v1/backup/export, streaming the whole corpus
// as one JSON document. A transport failure midway leaves a truncated stream
// on the client side; that is accepted rather than buffering the corpus.
func (h *Handler) ExportBackup(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", `attachment; filename="urlcatalog-backup.json"`)
	c.Status(http.StatusOK)

	if err := h.Transfer.Export(c.Request.Context(), c.Writer); err != nil {
		// Headers are already out; log and abort the stream.
		h.Log.Error("backup export failed mid-stream", "error", err)
	}
}

// ImportBackup handles POST /api/v1/backup/import?clear=true, parsing the
// request body incrementally. Returns best-effort counts even on error.
func (h *Handler) ImportBackup(c *gin.Context) {
	clearFirst, _ := strconv.ParseBool(c.DefaultQuery("clear", "false"))

	counts, err := h.Transfer.Import(c.Request.Context(), c.Request.Body, clearFirst)
	if err != nil {
		h.Log.Error("backup import failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "import failed: " + err.Error(),
			"counts": counts,
		})
		return
	}

	c.JSON(http.StatusOK, counts)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
