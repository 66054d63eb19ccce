package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	testbed "github.com/selectdimensions/react-flow-testbed"
	"github.com/selectdimensions/react-flow-testbed/internal/config"
	"github.com/selectdimensions/react-flow-testbed/internal/events"
	"github.com/selectdimensions/react-flow-testbed/internal/flows"
	"github.com/selectdimensions/react-flow-testbed/internal/server"
	"github.com/selectdimensions/react-flow-testbed/internal/store"
	"github.com/selectdimensions/react-flow-testbed/pkg/log"
)

type flowdoc struct {
	cfg        *config.Config
	store      store.Store
	hub        *events.Hub
	flows      *flows.Service
	apiServer  *server.Server
	httpServer *http.Server
	listener   net.Listener
	quit       chan os.Signal
}

var (
	ErrOpenStore = errors.New("failed to open flow store")
	ErrListen    = errors.New("failed to listen")
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("Invalid .env file", log.Error(err))
		os.Exit(1)
	}

	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &flowdoc{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *flowdoc) run() error {
	if err := s.initializeStore(); err != nil {
		return err
	}
	if err := s.startServer(); err != nil {
		s.closeStore()
		return err
	}

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *flowdoc) setupLogging() {
	level := log.ParseLevel(s.cfg.LogLevel)

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(testbed.Name, env, testbed.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Flow API starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort),
		slog.Int("flow_cache_size", s.cfg.FlowCacheSize),
		slog.Int64("max_body_bytes", s.cfg.MaxBodyBytes))
}

func (s *flowdoc) initializeStore() error {
	st, err := store.Open(context.Background(), s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	s.store = st
	s.hub = events.NewHub()
	s.flows = flows.NewService(st, s.hub, s.cfg.FlowCacheSize)

	slog.Info("Flow store opened",
		log.Backend(st.Backend()))
	return nil
}

func (s *flowdoc) startServer() error {
	s.apiServer = server.NewServer(s.flows, s.hub, s.cfg.MaxBodyBytes)
	mux := s.apiServer.SetupRoutes()

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListen, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Addr:    ln.Addr().String(),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
	return nil
}

func (s *flowdoc) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.closeStore()

	slog.Info("Server exited")
}

func (s *flowdoc) closeStore() {
	s.hub.Close()
	if err := s.store.Close(); err != nil {
		slog.Error("Store close failed", log.Error(err))
	}
}
