// Package server serves the portfolio page and its HTMX fragment endpoints.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ElMariones/portfolio/internal/content"
	"github.com/ElMariones/portfolio/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// Options wires a Server to its collaborators.
type Options struct {
	Content   *content.Store
	Sessions  *session.Store
	Logger    *slog.Logger
	StaticDir string
	// PollEvery is how often a pending or sent contact form asks for its
	// status. Defaults to 500ms.
	PollEvery time.Duration
}

type Server struct {
	engine    *gin.Engine
	content   *content.Store
	sessions  *session.Store
	logger    *slog.Logger
	salt      string
	pollEvery time.Duration
}

// New builds the gin engine with every route registered.
func New(opts Options) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	salt, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate visitor salt: %w", err)
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = 500 * time.Millisecond
	}

	s := &Server{
		engine:    gin.New(),
		content:   opts.Content,
		sessions:  opts.Sessions,
		logger:    opts.Logger,
		salt:      salt,
		pollEvery: opts.PollEvery,
	}

	r := s.engine
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery(), s.requestLogger(), s.sessionMiddleware())

	if opts.StaticDir != "" {
		r.Static("/static", opts.StaticDir)
		r.Static("/images", filepath.Join(opts.StaticDir, "images"))
	}

	r.GET("/", s.handleIndex)
	r.POST("/projects/:id/toggle", s.handleToggleProject)
	r.POST("/cv/toggle", s.handleToggleCV)
	r.POST("/cv/close", s.handleCloseCV)
	r.GET("/contact-form", s.handleContactStatus)
	r.GET("/contact/status", s.handleContactStatus)
	r.POST("/contact", s.handleContact)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s, nil
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
