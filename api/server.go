package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/folio/config"
	"github.com/meghashyamc/folio/logger"
	"github.com/meghashyamc/folio/render"
	"github.com/meghashyamc/folio/services/library"
	"github.com/meghashyamc/folio/validation"
	"github.com/meghashyamc/folio/watch"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	library    *library.Library
	watchers   []*watch.Watcher
	renderer   *render.Renderer
	validator  *validation.Validator
	logger     logger.Logger
}

// Run serves the API until ctx is cancelled or the process is interrupted.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.NewWithLevel(cfg.GetLogLevel()),
	}
	if err := s.setupDependencies(ctx); err != nil {
		return err
	}
	s.setupRouter()

	errC := s.startHTTPServer()

	select {
	case <-ctx.Done():
	case err := <-errC:
		s.logger.Error("http server stopped unexpectedly", "err", err.Error())
		s.closeDependencies()
		return err
	}

	return s.shutdown()
}

func (s *server) setupDependencies(ctx context.Context) error {
	var err error
	s.library, err = library.Open(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error opening content library", "err", err.Error())
		return err
	}
	// A failed warm-up is not fatal; the next request retries the load.
	if err := s.library.Warm(ctx); err != nil {
		s.logger.Warn("could not warm content library", "err", err.Error())
	}

	if s.cfg.GetWatchEnabled() {
		s.setupWatchers()
	}

	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		s.closeDependencies()
		return err
	}
	s.renderer = render.New()

	return nil
}

// setupWatchers invalidates a collection's cache as soon as its directory
// changes instead of waiting for the cache to expire.
func (s *server) setupWatchers() {
	for _, collection := range s.library.Collections() {
		watcher := watch.New(s.logger, collection.Source().Dir(), collection.Invalidate,
			watch.WithFilter(collection.Source().IsContentFile),
		)
		if err := watcher.Start(); err != nil {
			s.logger.Warn("could not watch content directory, relying on cache expiry", "collection", collection.Name(), "err", err.Error())
			continue
		}
		s.watchers = append(s.watchers, watcher)
	}
}

func (s *server) setupRouter() {
	router := newRouter(s.logger)

	rps, burst := s.cfg.GetSearchRateLimit()
	setupRoutes(router, routeDependencies{
		logger:          s.logger,
		library:         s.library,
		renderer:        s.renderer,
		validator:       s.validator,
		searchRateLimit: rps,
		searchRateBurst: burst,
	})

	s.router = router
}

func (s *server) startHTTPServer() <-chan error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler:           s.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	return errC
}

func (s *server) shutdown() error {
	s.logger.Info("starting to shut down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Error("error shutting down http server", "err", err.Error())
	}
	s.closeDependencies()
	if err == nil {
		s.logger.Info("shut down http server successfully")
	}

	return err
}

func (s *server) closeDependencies() {
	for _, watcher := range s.watchers {
		if err := watcher.Close(); err != nil {
			s.logger.Warn("error closing content watcher", "err", err.Error())
		}
	}
	if s.library != nil {
		if err := s.library.Close(); err != nil {
			s.logger.Warn("error closing content library", "err", err.Error())
		}
	}
}
