// Package server wires handlers, middleware and metrics into an http.Server.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/handler"
	"github.com/fakhrymubarak/iss-finder/internal/metrics"
	"github.com/fakhrymubarak/iss-finder/internal/middleware"
	"github.com/fakhrymubarak/iss-finder/internal/service"
	"github.com/fakhrymubarak/iss-finder/internal/web"
)

// NewMux registers every route. collector may be nil; limiter guards the
// two routes the page calls on its own.
func NewMux(h *handler.ISSFinderHandler, collector *metrics.Collector, limiter *middleware.RateLimiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleIndex)
	mux.Handle("/static/", web.StaticHandler())
	mux.Handle("/update_location", limiter.Middleware(http.HandlerFunc(h.HandleUpdateLocation)))
	mux.Handle("/refresh_iss_position", limiter.Middleware(http.HandlerFunc(h.HandleRefreshISSPosition)))
	mux.HandleFunc("/go_look_status", h.HandleGoLookStatus)
	mux.HandleFunc("/page_data", h.HandlePageData)
	mux.HandleFunc("/healthz", handler.HandleHealth)
	mux.Handle("/metrics", collector.Handler())
	return middleware.RequestLogger(collector, mux)
}

// New builds the http.Server with the configured timeouts.
func New(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: config.GetServerTimeoutDuration("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeoutDuration("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeoutDuration("write_timeout", 10*time.Second),
		IdleTimeout:       config.GetServerTimeoutDuration("idle_timeout", 30*time.Second),
	}
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, port string) error {
	if err := web.LoadTemplates(); err != nil {
		return err
	}
	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return err
	}

	limits := middleware.LimitsFromConfig()
	limiter := middleware.NewRateLimiter(limits)
	limiter.StartCleanup(ctx, time.Minute)

	finder := handler.NewISSFinderHandler(service.NewISSFinderService(collector))
	srv := New(":"+port, NewMux(finder, collector, limiter))

	errCh := make(chan error, 1)
	go func() {
		config.GetLogger().Infow("ISS Finder server running", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	config.GetLogger().Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
