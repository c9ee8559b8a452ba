package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/url-catalog/urlcatalog/internal/config"
	"github.com/url-catalog/urlcatalog/internal/logger"
)

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	// backupTransferTimeout accommodates long-running backup streams in
	// both directions: export writes and import body reads can each run
	// for minutes on large corpora. It becomes the effective read and
	// write timeout when larger than the configured ones.
	backupTransferTimeout = 10 * time.Minute
)

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	log        logger.Interface
}

// NewServer builds the router and server.
func NewServer(cfg *config.ServerConfig, h *Handler, log logger.Interface) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(log))

	RegisterRoutes(engine, h)

	// ReadTimeout bounds reading the whole request body, so it must cover
	// streamed backup uploads just as WriteTimeout covers streamed
	// downloads.
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	if readTimeout < backupTransferTimeout {
		readTimeout = backupTransferTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if writeTimeout < backupTransferTimeout {
		writeTimeout = backupTransferTimeout
	}
	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		log: log,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the server until it errors or is shut down.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// RegisterRoutes wires all endpoints onto the engine.
func RegisterRoutes(engine *gin.Engine, h *Handler) {
	engine.GET("/healthz", h.Health)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/import", h.Import)
		v1.POST("/scan", h.Scan)

		v1.GET("/urls", h.ListURLs)
		v1.GET("/urls/pending/text", h.PendingText)
		v1.POST("/urls/copied", h.MarkCopied)
		v1.DELETE("/urls", h.DeleteURL)

		v1.GET("/sitemaps", h.ListSitemaps)
		v1.GET("/sitemaps/urls/text", h.SitemapText)
		v1.POST("/sitemaps/process", h.ProcessSitemap)
		v1.DELETE("/sitemaps", h.DeleteSitemap)

		v1.DELETE("/all", h.ClearAll)

		v1.GET("/backup/export", h.ExportBackup)
		v1.POST("/backup/import", h.ImportBackup)
	}
}
