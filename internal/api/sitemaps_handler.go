package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/url-catalog/urlcatalog/internal/storage"
)

// ListSitemaps handles GET /api/v1/sitemaps: every sitemap with derived
// pending/total/copied counters.
func (h *Handler) ListSitemaps(c *gin.Context) {
	stats, err := h.Catalog.Sitemaps(c.Request.Context())
	if err != nil {
		h.Log.Error("list sitemaps failed", "error", err)
		respondInternalError(c, "failed to list sitemaps")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sitemaps": stats})
}

// SitemapText handles GET /api/v1/sitemaps/urls/text?sitemap=...
func (h *Handler) SitemapText(c *gin.Context) {
	sitemapURL := c.Query("sitemap")
	if sitemapURL == "" {
		respondBadRequest(c, "sitemap query parameter is required")
		return
	}

	result, err := h.Catalog.SitemapText(c.Request.Context(), sitemapURL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(c, "sitemap")
			return
		}
		h.Log.Error("sitemap text failed", "sitemap", sitemapURL, "error", err)
		respondInternalError(c, "failed to build sitemap text")
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteSitemap handles DELETE /api/v1/sitemaps?url=...
func (h *Handler) DeleteSitemap(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		respondBadRequest(c, "url query parameter is required")
		return
	}

	if err := h.Catalog.DeleteSitemap(c.Request.Context(), url); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(c, "sitemap")
			return
		}
		h.Log.Error("delete sitemap failed", "url", url, "error", err)
		respondInternalError(c, "failed to delete sitemap")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": url})
}
