package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/handsense/handsense-core/internal/dispatch"
	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/infrastructure/config"
	"github.com/handsense/handsense-core/internal/infrastructure/logging"
	"github.com/handsense/handsense-core/internal/perception"
	"github.com/handsense/handsense-core/internal/pose"
	"github.com/handsense/handsense-core/internal/tracking"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Poller     *hand.Poller
	Engine     *perception.Engine
	Dispatcher *dispatch.Dispatcher
	Tracker    *tracking.Listener // optional
	Poses      pose.Repository    // optional; pose endpoints 404 without it

	// DeviceConnected reports the supervisor's view of the Modbus link.
	// Optional; health reports connected=false when unset.
	DeviceConnected func() bool

	Version string
}

// Server is the HTTP API server for handsense.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	engine     *perception.Engine
	dispatcher *dispatch.Dispatcher
	tracker    *tracking.Listener
	poses      pose.Repository
	connected  func() bool
	version    string

	// poller is swapped by the device supervisor on every redial.
	pollerMu sync.RWMutex
	poller   *hand.Poller

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("perception engine is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		tracker:    deps.Tracker,
		poses:      deps.Poses,
		connected:  deps.DeviceConnected,
		version:    deps.Version,
	}
	s.poller = deps.Poller
	return s, nil
}

// SetPoller swaps the acquisition poller the snapshot endpoints read
// from. The supervisor calls this with nil when the device disconnects.
func (s *Server) SetPoller(p *hand.Poller) {
	s.pollerMu.Lock()
	s.poller = p
	s.pollerMu.Unlock()
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// PublishResult fans one perception result out to WebSocket subscribers.
// Wire it as the perception engine's result sink.
func (s *Server) PublishResult(res *perception.Result) {
	if s.hub == nil || res == nil {
		return
	}
	s.hub.Broadcast(ChannelSnapshot, snapshotSummary(res))
	s.hub.Broadcast(ChannelShape, res.Estimate)
	if len(res.Contacts) > 0 {
		s.hub.Broadcast(ChannelContacts, res.Contacts)
	}
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

func (s *Server) deviceConnected() bool {
	return s.connected != nil && s.connected()
}
