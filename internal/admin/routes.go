// Package admin provides a small HTTP surface for operational visibility
// into a running wiremuxd instance, separate from the binary wire protocol
// the engine speaks over its own TCP connections. Grounded on the
// teacher's internal/mirage/routes.go RegisterRoutesTMP pattern.
package admin

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/relaygrid/wiremux/internal/observability"
)

// RegistryStatter is satisfied by *engine.Engine; kept as an interface so
// admin does not need to import the engine package's internals.
type RegistryStatter interface {
	RegistryStats() map[string]int
}

// Server is the admin HTTP surface: /health, /metrics, and
// /debug/registries for every currently-live connection's engine.
type Server struct {
	router  *gin.Engine
	started time.Time
	node    string

	mu       sync.Mutex
	engines  map[string]RegistryStatter
}

// New constructs an admin Server named node, for use in logs and metric
// labels.
func New(node string, log zerolog.Logger) *Server {
	s := &Server{
		router:  gin.New(),
		started: time.Now(),
		node:    node,
		engines: make(map[string]RegistryStatter),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(observability.RequestObservability(node, log))
	s.registerRoutes()
	return s
}

// Track registers a live connection's engine under id (typically the
// remote address) so /debug/registries can report its registry sizes.
// Untrack removes it on connection teardown.
func (s *Server) Track(id string, e RegistryStatter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[id] = e
}

func (s *Server) Untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, id)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.started).String(),
			"component": "wiremuxd",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/debug/registries", func(c *gin.Context) {
		s.mu.Lock()
		out := make(gin.H, len(s.engines))
		for id, e := range s.engines {
			stats := e.RegistryStats()
			for name, n := range stats {
				observability.SetRegistrySize(s.node, name, n)
			}
			out[id] = stats
		}
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"connections": out})
	})
}

// Handler returns the http.Handler to mount behind an http.Server.
func (s *Server) Handler() http.Handler { return s.router }
