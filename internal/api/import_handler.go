package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/url-catalog/urlcatalog/internal/pipeline"
)

// Import handles POST /api/v1/import: resolve a sitemap tree, filter
// candidates and persist the survivors.
func (h *Handler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	report, err := h.Pipeline.Import(c.Request.Context(), pipeline.ImportOptions{
		SitemapURL:    req.SitemapURL,
		Pattern:       req.Pattern,
		QualityFilter: req.QualityFilter,
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidSitemapURL):
			respondBadRequest(c, err.Error())
		case errors.Is(err, pipeline.ErrResolutionEmpty):
			respondError(c, http.StatusUnprocessableEntity, err.Error())
		default:
			h.Log.Error("import failed", "sitemap", req.SitemapURL, "error", err)
			respondInternalError(c, "import failed")
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// Scan handles POST /api/v1/scan: process one bounded slice of unchecked
// records. Clients loop until remaining reaches zero.
func (h *Handler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	report, err := h.Pipeline.ScanBatch(c.Request.Context(), req.Limit)
	if err != nil {
		h.Log.Error("scan batch failed", "error", err)
		respondInternalError(c, "scan failed")
		return
	}

	c.JSON(http.StatusOK, report)
}

// ProcessSitemap handles POST /api/v1/sitemaps/process: scan up to limit
// pending URLs of one sitemap and mark everything processed as copied.
func (h *Handler) ProcessSitemap(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	report, err := h.Pipeline.ProcessSitemapBatch(c.Request.Context(), req.Sitemap, req.Limit)
	if err != nil {
		if errors.Is(err, pipeline.ErrSitemapNotFound) {
			respondNotFound(c, "sitemap")
			return
		}
		h.Log.Error("sitemap batch failed", "sitemap", req.Sitemap, "error", err)
		respondInternalError(c, "sitemap processing failed")
		return
	}

	c.JSON(http.StatusOK, report)
}
