package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/node"
	"github.com/kbukum/executionbackup/observability"
	"github.com/kbukum/executionbackup/router"
)

// NodeFactory builds a node from a URL, resolving its JWT secret.
type NodeFactory func(url string) (*node.Node, error)

// Config configures the HTTP server.
type Config struct {
	// Addr is the host:port to bind.
	Addr string
	// IdleTimeout for keep-alive connections. Read and write timeouts
	// stay unset: engine calls may legitimately block for a long time.
	IdleTimeout time.Duration
	// Metrics receives per-request measurements. Nil disables it.
	Metrics *observability.ProxyMetrics
}

// Server is the proxy's HTTP front end, backed by Gin over h2c.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	router     *router.Router
	newNode    NodeFactory
	metrics    *observability.ProxyMetrics
	log        *logger.Logger
}

// New creates the server and registers all routes.
func New(cfg Config, rt *router.Router, newNode NodeFactory) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}

	h2s := &http2.Server{IdleTimeout: cfg.IdleTimeout}

	s := &Server{
		httpServer: &http.Server{
			Addr:        cfg.Addr,
			Handler:     h2c.NewHandler(engine, h2s),
			IdleTimeout: cfg.IdleTimeout,
		},
		engine:  engine,
		router:  rt,
		newNode: newNode,
		metrics: cfg.Metrics,
		log:     logger.GetGlobalLogger().WithComponent("server"),
	}

	engine.Use(s.recovery())
	engine.Use(requestID())
	engine.Use(s.requestLogger())

	s.registerRoutes()
	return s
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the port and begins serving. It returns once the listener
// is bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("server stopped")
		}
	}()

	s.log.Info("listening", logger.Fields("addr", s.httpServer.Addr))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("server shut down")
	return nil
}
