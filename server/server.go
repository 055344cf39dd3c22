// Package server exposes the chatbot over HTTP: one chat endpoint and a
// health check. All chat failures are returned as structured responses
// with a 200 status; the transport only reports malformed requests.
package server

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/smallnest/stockgraph/chatbot"
	"github.com/smallnest/stockgraph/graphstore"
	"github.com/smallnest/stockgraph/log"
)

// Server holds the HTTP handlers.
type Server struct {
	bot   *chatbot.Bot
	store graphstore.Executor
}

// New creates a Server around a bot and its graph store.
func New(bot *chatbot.Bot, store graphstore.Executor) *Server {
	return &Server{bot: bot, store: store}
}

// Router builds the gin engine with recovery and CORS.
func Router(s *Server) *gin.Engine {
	if os.Getenv("DEBUG") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.POST("/chat", s.handleChat)
	r.GET("/health", s.handleHealth)
	return r
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatbot.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"answer": "I couldn't read that request. Please send JSON with a 'question' field.",
			"error":  "bad_request",
		})
		return
	}

	resp := s.bot.Ask(c.Request.Context(), req)
	c.JSON(http.StatusOK, resp)
}

// handleHealth reports service liveness. With ?verify=1 it also checks
// graph connectivity and minimal data presence.
func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}

	if c.Query("verify") != "" {
		graph := gin.H{"connected": false}
		if err := s.store.Ping(c.Request.Context()); err != nil {
			log.Warn("server: health ping failed: %v", err)
			body["status"] = "degraded"
		} else {
			graph["connected"] = true
			if count, err := s.store.CompanyCount(c.Request.Context()); err == nil {
				graph["companies"] = count
				if count == 0 {
					body["status"] = "degraded"
				}
			} else {
				log.Warn("server: health company count failed: %v", err)
				body["status"] = "degraded"
			}
		}
		body["graph"] = graph
	}

	c.JSON(http.StatusOK, body)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
