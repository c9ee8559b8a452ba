package api

import (
	"github.com/url-catalog/urlcatalog/internal/catalog"
	"github.com/url-catalog/urlcatalog/internal/logger"
	"github.com/url-catalog/urlcatalog/internal/pipeline"
	"github.com/url-catalog/urlcatalog/internal/storage"
	"github.com/url-catalog/urlcatalog/internal/transfer"
)

// Handler bundles the services the HTTP layer exposes.
type Handler struct {
	Pipeline *pipeline.Pipeline
	Catalog  *catalog.Service
	Transfer *transfer.Service
	Store    storage.Store
	Log      logger.Interface
}

// NewHandler creates a handler.
func NewHandler(
	p *pipeline.Pipeline,
	cat *catalog.Service,
	tr *transfer.Service,
	store storage.Store,
	log logger.Interface,
) *Handler {
	return &Handler{
		Pipeline: p,
		Catalog:  cat,
		Transfer: tr,
		Store:    store,
		Log:      log,
	}
}
