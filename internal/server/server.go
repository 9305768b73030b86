// Package server exposes the brand query pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"brandwatch/internal/report"
)

// Server wraps the gin router around a report runner.
type Server struct {
	Runner *report.Runner
	Logger *zap.Logger
	Addr   string
}

func New(runner *report.Runner, logger *zap.Logger, addr string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Runner: runner, Logger: logger, Addr: addr}
}

// Router builds the HTTP routes. Split from Run so tests can drive the
// handlers directly.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/crawl_news", s.handleCrawlNews)

	return r
}

func (s *Server) handleCrawlNews(c *gin.Context) {
	brand := c.Query("brand")
	if brand == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand query parameter is required"})
		return
	}

	start := time.Now()
	rep := s.Runner.Run(c.Request.Context(), brand)
	s.Logger.Info("crawl_news served",
		zap.String("brand", brand),
		zap.Int("articles", len(rep.Articles)),
		zap.Duration("elapsed", time.Since(start)))

	c.JSON(http.StatusOK, rep)
}

// Run serves until the context is cancelled or a SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server listening", zap.String("addr", s.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case sig := <-sigCh:
		s.Logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
