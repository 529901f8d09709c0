// Package api serves trace generation over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fiddler/internal"
	"fiddler/internal/generator"
	"fiddler/ports"
)

// Server is the HTTP front end of the generator.
type Server struct {
	router    *gin.Engine
	generator *generator.Generator
	archive   ports.RunArchive
	hub       *SSEHub
	logger    *internal.Logger
	workers   int
}

// NewServer wires the routes. archive may be nil, in which case runs are not
// recorded and the run endpoints answer 404.
func NewServer(gen *generator.Generator, archive ports.RunArchive, workers int, logger *internal.Logger) *Server {
	s := &Server{
		router:    gin.New(),
		generator: gen,
		archive:   archive,
		logger:    logger.Named("api"),
		workers:   max(workers, 1),
	}
	s.hub = NewSSEHub(s.logger)
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)

	api := s.router.Group("/api")
	api.GET("/params/default", s.defaultParams)
	api.POST("/generate", s.generate)
	api.GET("/generate/events", s.hub.HandleSSE)
	api.POST("/summary", s.summary)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the progress hub.
func (s *Server) Hub() *SSEHub { return s.hub }

// Start listens on addr until the server fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
