package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/events"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/internal/scheduler"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/crypto"
	"github.com/Letscrypto25/Crypto-bot-3-sub000/pkg/db"
)

// Server wires the control endpoints around the registry and the scheduler.
type Server struct {
	Router    *gin.Engine
	DB        *db.Database
	Bus       *events.Bus
	Scheduler *scheduler.Scheduler
	Encryptor *crypto.Encryptor
	JWTSecret string
}

func NewServer(database *db.Database, bus *events.Bus, sched *scheduler.Scheduler, enc *crypto.Encryptor, jwtSecret string) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RateLimitMiddleware())
	r.Use(CORSMiddleware())

	s := &Server{
		Router:    r,
		DB:        database,
		Bus:       bus,
		Scheduler: sched,
		Encryptor: enc,
		JWTSecret: jwtSecret,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws/events", s.websocket)

	api := s.Router.Group("/api")
	{
		// Auth endpoints (no auth required)
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.registerUser)
			auth.POST("/login", s.loginUser)
		}

		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.GET("/profile", s.getProfile)
			protected.PUT("/settings", s.updateSettings)
			protected.POST("/autobot/start", s.startAutobot)
			protected.POST("/autobot/stop", s.stopAutobot)
			protected.GET("/trades", s.getTrades)
			protected.GET("/leaderboard", s.getLeaderboard)
			protected.GET("/status", s.getStatus)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
