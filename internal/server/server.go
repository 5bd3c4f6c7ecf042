// Package server is the local preview server: it exposes a published sync
// store over HTTP exactly the way a production blog server would, so a second
// replica can bootstrap and pull against it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quillbox/quillbox/internal/utils"
)

type Server struct {
	config *Config
	server *http.Server
}

func New(config *Config) (*Server, error) {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if !utils.DirExists(config.SyncDir) {
		return nil, fmt.Errorf("sync store directory %q does not exist, generate it first", config.SyncDir)
	}
	if config.CertFile != "" && !utils.FileExists(config.CertFile) {
		return nil, fmt.Errorf("tls certificate %q does not exist", config.CertFile)
	}
	if config.KeyFile != "" && !utils.FileExists(config.KeyFile) {
		return nil, fmt.Errorf("tls key %q does not exist", config.KeyFile)
	}

	return &Server{
		config: config,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: SetupRoutes(config.SyncDir),
		},
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	slog.Info("preview server start", "addr", s.config.Addr, "dir", s.config.SyncDir)
	defer slog.Info("preview server stop")

	errCh := make(chan error, 1)
	go func() {
		if err := s.runHttpServer(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return s.Stop(ctx)
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) runHttpServer() error {
	if s.config.CertFile != "" && s.config.KeyFile != "" {
		slog.Info("server start tls", "addr", s.config.Addr, "cert", s.config.CertFile, "key", s.config.KeyFile)
		return s.server.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile)
	}
	slog.Info("server start http", "addr", s.config.Addr)
	return s.server.ListenAndServe()
}
