// Package api is the REST adapter over the device registry, the ingestion
// pipeline and the aggregation queries.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

// NewRouter builds the gin engine with middleware and all routes
func NewRouter(logger *zap.Logger, devices *DeviceController, metrics *MetricController, health *HealthController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(logger))

	health.RegisterRoutes(router)

	v := router.Group("/api")
	devices.RegisterRoutes(v)
	metrics.RegisterRoutes(v)

	return router
}

// NewServer creates a new HTTP server listening on addr
func NewServer(addr string, router *gin.Engine, logger *zap.Logger) *Server {
	return &Server{
		router: router,
		logger: logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// RegisterLifecycle starts the server on fx start and drains it on stop
func (s *Server) RegisterLifecycle(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", s.httpServer.Addr)
			if err != nil {
				return err
			}
			s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("http server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("shutting down http server")
			return s.httpServer.Shutdown(ctx)
		},
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}
