package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/url-catalog/urlcatalog/internal/catalog"
	"github.com/url-catalog/urlcatalog/internal/storage"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	defaultLimit    = 500
)

// ListURLs handles GET /api/v1/urls with status/search/sitemap filters and
// page/page_size pagination.
func (h *Handler) ListURLs(c *gin.Context) {
	var filters catalog.Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBadRequest(c, "invalid filters: "+err.Error())
		return
	}

	page := parseIntQuery(c, "page", defaultPage)
	pageSize := parseIntQuery(c, "page_size", defaultPageSize)

	result, err := h.Catalog.List(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		h.Log.Error("list URLs failed", "error", err)
		respondInternalError(c, "failed to list URLs")
		return
	}

	c.JSON(http.StatusOK, result)
}

// PendingText handles GET /api/v1/urls/pending/text: the newline-joined
// pending URL list for the copy-batch workflow.
func (h *Handler) PendingText(c *gin.Context) {
	var filters catalog.Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondBadRequest(c, "invalid filters: "+err.Error())
		return
	}

	limit := parseIntQuery(c, "limit", defaultLimit)

	result, err := h.Catalog.PendingText(c.Request.Context(), filters, limit)
	if err != nil {
		h.Log.Error("pending text failed", "error", err)
		respondInternalError(c, "failed to build pending text")
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkCopied handles POST /api/v1/urls/copied. The body is either an
// explicit URL list or an all-pending directive with filters.
func (h *Handler) MarkCopied(c *gin.Context) {
	var sel catalog.CopySelector
	if err := c.ShouldBindJSON(&sel); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}
	if len(sel.URLs) == 0 && !sel.AllPending {
		respondBadRequest(c, "either urls or all_pending is required")
		return
	}

	count, err := h.Catalog.MarkCopied(c.Request.Context(), sel)
	if err != nil {
		h.Log.Error("mark copied failed", "error", err)
		respondInternalError(c, "failed to mark URLs copied")
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// DeleteURL handles DELETE /api/v1/urls?url=...
func (h *Handler) DeleteURL(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		respondBadRequest(c, "url query parameter is required")
		return
	}

	if err := h.Catalog.DeleteURL(c.Request.Context(), url); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(c, "URL")
			return
		}
		h.Log.Error("delete URL failed", "url", url, "error", err)
		respondInternalError(c, "failed to delete URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": url})
}

// ClearAll handles DELETE /api/v1/all: wipe both collections.
func (h *Handler) ClearAll(c *gin.Context) {
	if err := h.Catalog.ClearAll(c.Request.Context()); err != nil {
		h.Log.Error("clear all failed", "error", err)
		respondInternalError(c, "failed to clear collections")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
