package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"simdash/internal/backend"
	"simdash/internal/cfg"
	"simdash/internal/console"
	"simdash/internal/live"
	"simdash/internal/metrics"
	"simdash/internal/poller"
	"simdash/internal/session"
	"simdash/internal/surface"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components
	m := metrics.New()
	mw := metrics.NewWrapper(m)

	term := surface.NewTerminal(os.Stdout, c.TradeRows)
	client := backend.NewREST(c.BaseURL, c.RESTTimeout)

	ctrl := session.New(client, term, c.InitialCash, c.BrokerCharges)
	ctrl.SetMetrics(mw)

	channel := live.New(term, ctrl.Baseline())
	channel.SetMetrics(mw)

	stream := backend.NewStream(c.WsURL, c.Ping, c.Reconnect, c.MaxBackoff)
	stream.SetMetrics(mw)

	poll := poller.New(client, term, c.PollInterval)
	poll.SetMetrics(mw)

	errs := make(chan error, 32)

	log.Info().
		Str("base_url", c.BaseURL).
		Str("ws_url", c.WsURL).
		Dur("poll_interval", c.PollInterval).
		Bool("reconnect", c.Reconnect).
		Float64("initial_cash", c.InitialCash).
		Msg("Starting dashboard")

	// Start background goroutines
	var wg sync.WaitGroup
	startMetricsServer(ctx, c)
	startErrorHandler(ctx, &wg, errs, mw)
	startStream(ctx, &wg, channel, stream, errs)
	startPoller(ctx, &wg, poll)
	startRenderer(ctx, &wg, term, c.RedrawInterval, errs)
	startConsole(ctx, &wg, ctrl, cancel)

	// Wait for shutdown signal
	waitForShutdown(ctx, cancel, &wg)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// startMetricsServer starts the Prometheus metrics HTTP server when a port is configured
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	if c.MetricsPort == 0 {
		return
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.MetricsPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	go func() {
		log.Info().Int("port", c.MetricsPort).Msg("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startErrorHandler logs errors reported by background components
func startErrorHandler(ctx context.Context, wg *sync.WaitGroup, errs chan error, mw *metrics.Wrapper) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				log.Error().Err(err).Msg("background error")
				mw.ErrorsInc()
			}
		}
	}()
}

// startStream attaches the live channel to the push stream
func startStream(ctx context.Context, wg *sync.WaitGroup, channel *live.Channel, stream *backend.Stream, errs chan error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := channel.Run(ctx, stream, errs); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("push channel ended")
		}
	}()
}

func startPoller(ctx context.Context, wg *sync.WaitGroup, p *poller.Poller) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()
}

// startRenderer redraws the terminal until shutdown
func startRenderer(ctx context.Context, wg *sync.WaitGroup, term *surface.Terminal, interval time.Duration, errs chan error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := term.Run(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			errs <- err
		}
	}()
}

// startConsole reads operator commands from stdin. Quitting shuts the
// dashboard down; closed stdin leaves it running view-only.
func startConsole(ctx context.Context, wg *sync.WaitGroup, ctrl *session.Controller, cancel context.CancelFunc) {
	con := console.New(ctrl, os.Stderr)
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := con.Run(ctx, os.Stdin)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case errors.Is(err, console.ErrQuit):
			log.Info().Msg("quit requested")
		case err != nil:
			log.Error().Err(err).Msg("console input failed")
			return
		default:
			log.Info().Msg("console input closed, commands disabled")
			return
		}
		cancel()
	}()
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
