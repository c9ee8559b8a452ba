package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/url-catalog/urlcatalog/internal/config"
	"github.com/url-catalog/urlcatalog/internal/logger"
)

func TestNewServer_TransferTimeoutsCoverBothDirections(t *testing.T) {
	cfg := &config.ServerConfig{
		Address:      ":0",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s := NewServer(cfg, &Handler{Log: logger.NewNoOp()}, logger.NewNoOp())

	// Backup import streams the request body and backup export streams
	// the response; both deadlines must cover minutes-scale transfers.
	assert.Equal(t, backupTransferTimeout, s.httpServer.ReadTimeout)
	assert.Equal(t, backupTransferTimeout, s.httpServer.WriteTimeout)
	assert.Equal(t, 60*time.Second, s.httpServer.IdleTimeout)
}

func TestNewServer_KeepsLargerConfiguredTimeouts(t *testing.T) {
	cfg := &config.ServerConfig{
		Address:      ":0",
		ReadTimeout:  20 * time.Minute,
		WriteTimeout: 20 * time.Minute,
	}

	s := NewServer(cfg, &Handler{Log: logger.NewNoOp()}, logger.NewNoOp())

	assert.Equal(t, 20*time.Minute, s.httpServer.ReadTimeout)
	assert.Equal(t, 20*time.Minute, s.httpServer.WriteTimeout)
}
