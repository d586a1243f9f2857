package api

import (
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/CristiGvl/picoFanCtl/internal/temps"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Server represents the API server
type Server struct {
	app         *fiber.App
	loops       map[string]*control.Loop
	order       []string
	tempsReader temps.Reader
}

// NewServer creates a new API server exposing the given fan loops
func NewServer(loops []*control.Loop, tempsReader temps.Reader) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "picoFanCtl",
		AppName:               "picoFanCtl v1.0",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		MaxAge:       86400, // 24 hours
	}))

	server := &Server{
		app:         app,
		loops:       make(map[string]*control.Loop, len(loops)),
		tempsReader: tempsReader,
	}
	for _, loop := range loops {
		server.loops[loop.Name()] = loop
		server.order = append(server.order, loop.Name())
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	api.Get("/fans", s.getFans)
	api.Get("/fans/:name", s.getFan)
	api.Get("/fans/:name/curve", s.getFanCurve)
	api.Get("/temps", s.getTemps)

	// Health check
	api.Get("/health", s.healthCheck)
}

// Start starts the API server
func (s *Server) Start(address string) error {
	return s.app.Listen(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
