package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bz888/tsdr/internal/api/server/client"
	"github.com/bz888/tsdr/internal/api/server/handlers"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func New(addr string, completer client.Completer, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(requestID(), requestLogger(logger), gin.Recovery(), corsMiddleware())

	registerRoutes(engine, handlers.NewHandler(completer, logger))

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Run blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Run() error {
	ln, err := s.Listen()
	if err != nil {
		s.logger.Error("Error starting server", zap.Error(err))
		return err
	}
	return s.Serve(ln)
}

// Listen binds the configured address, so a busy port is reported before
// anything is served.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return ln, nil
}

// Serve blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Server started", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server stopped", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.http.Shutdown(ctx)
}
