package helpers

import (
	"testing"

	"github.com/selectdimensions/react-flow-testbed/internal/config"
	"github.com/selectdimensions/react-flow-testbed/internal/events"
	"github.com/selectdimensions/react-flow-testbed/internal/flows"
	"github.com/selectdimensions/react-flow-testbed/internal/server"
	"github.com/selectdimensions/react-flow-testbed/internal/store"
)

// TestEnv holds all the components needed for API testing
type TestEnv struct {
	Config  *config.Config
	Store   store.Store
	Hub     *events.Hub
	Service *flows.Service
	Server  *server.Server
	Cleanup func()
}

// NewTestConfig creates a default configuration with debug logging enabled
// and an in-memory store
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.DatabaseURL = "memory://"
	cfg.FlowCacheSize = 100
	return cfg
}

// NewTestEnv wires a memory store, event hub, flow service and server
// together
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithStore(t, store.NewMemoryStore())
}

// NewTestEnvWithStore wires the given store into a test environment. The
// environment takes ownership of st
func NewTestEnvWithStore(t *testing.T, st store.Store) *TestEnv {
	t.Helper()

	cfg := NewTestConfig()
	hub := events.NewHub()
	svc := flows.NewService(st, hub, cfg.FlowCacheSize)
	srv := server.NewServer(svc, hub, cfg.MaxBodyBytes)

	return &TestEnv{
		Config:  cfg,
		Store:   st,
		Hub:     hub,
		Service: svc,
		Server:  srv,
		Cleanup: func() {
			srv.CloseWebSockets()
			hub.Close()
			_ = st.Close()
		},
	}
}
