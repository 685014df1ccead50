package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/reviewspace/internal/api/auth"
	"github.com/reviewspace/internal/identity"
)

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int
}

// Deps bundles everything the route table needs.
type Deps struct {
	JWTSecret   string
	EngineToken string
	Resolver    *identity.Resolver
	SpaceH      *SpaceHandlers
	TargetH     *TargetHandlers
	EngineH     *EngineHandlers
}

// NewServer creates a new API server
func NewServer(port int, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo: e,
		port: port,
	}

	server.setupRoutes(deps)
	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(deps Deps) {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")

	// User-facing workflow endpoints
	authed := v1.Group("", auth.RequireAuth(deps.JWTSecret, deps.Resolver))
	authed.POST("/spaces", deps.SpaceH.CreateSpace)
	authed.GET("/spaces", deps.SpaceH.ListSpaces)
	authed.GET("/spaces/:space_id", deps.SpaceH.GetSpace)
	authed.PATCH("/spaces/:space_id", deps.SpaceH.UpdateSpace)
	authed.DELETE("/spaces/:space_id", deps.SpaceH.DeleteSpace)
	authed.POST("/spaces/:space_id/targets", deps.TargetH.SubmitTarget)
	authed.GET("/targets/:target_id", deps.TargetH.GetTarget)
	authed.POST("/targets/:target_id/retry", deps.TargetH.RetryTarget)

	// Engine callback intake. The engine authenticates with its shared
	// bearer token; reports are keyed by history id, not by acting user.
	v1.POST("/engine/reports", deps.EngineH.ReportProgress, auth.RequireEngineToken(deps.EngineToken))
}

// Start begins the API server
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
