package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/replyrota/replyrota/internal/service"
)

// AdminServer exposes a small HTTP surface for operators: a health probe
// and a manual cycle trigger. It never exposes roster or task contents.
type AdminServer struct {
	poller *service.Poller
	router *gin.Engine
}

// NewAdminServer creates a new admin server
func NewAdminServer(poller *service.Poller) *AdminServer {
	gin.SetMode(gin.ReleaseMode)
	s := &AdminServer{
		poller: poller,
		router: gin.Default(),
	}
	s.routes()
	return s
}

func (s *AdminServer) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.IndentedJSON(200, gin.H{
			"status":    "ok",
			"timestamp": time.Now(),
		})
	})

	// Manual cycle trigger, for debugging between ticks
	s.router.POST("/cycle", func(c *gin.Context) {
		stats, err := s.poller.RunCycle(context.Background())
		if err != nil {
			c.IndentedJSON(500, gin.H{"error": err.Error()})
			return
		}
		c.IndentedJSON(200, gin.H{
			"message":      "Cycle completed",
			"posts_polled": stats.PostsPolled,
			"new_comments": stats.NewComments,
			"dispatched":   stats.Dispatched,
			"escalated":    stats.Escalated,
		})
	})
}

// Run starts the server and blocks
func (s *AdminServer) Run(addr string) error {
	return s.router.Run(addr)
}
