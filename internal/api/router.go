// Package api exposes the HTTP admin surface: public status/health
// endpoints and authenticated job-history and printer views.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/orrn/printbridge/internal/api/handlers"
	"github.com/orrn/printbridge/internal/api/middleware"
	"github.com/orrn/printbridge/internal/bridge"
	"github.com/orrn/printbridge/internal/db"
	"github.com/orrn/printbridge/internal/server"
)

// NewRouter builds the admin engine. version and bridgePort feed the
// status endpoint; the rest back the authenticated views.
func NewRouter(version string, bridgePort func() int, registry *server.Registry, enumerator bridge.PrinterEnumerator) (*gin.Engine, error) {
	auth, err := middleware.NewAuthMiddleware()
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	status := handlers.NewStatusHandler(version, bridgePort, registry, enumerator)
	jobs := handlers.NewJobHandler(db.Jobs)
	printers := handlers.NewPrinterHandler(enumerator)

	r.GET("/status", status.Status)
	r.GET("/health", status.Health)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", auth.LoginHandler)
		authGroup.POST("/logout", auth.LogoutHandler)
		authGroup.POST("/setup", auth.SetupHandler)
		authGroup.GET("/status", auth.StatusHandler)
	}

	apiGroup := r.Group("/api", auth.RequireAuth())
	{
		apiGroup.GET("/jobs", jobs.ListJobs)
		apiGroup.GET("/jobs/stats", jobs.JobStats)
		apiGroup.GET("/jobs/:id", jobs.GetJob)
		apiGroup.GET("/printers", printers.ListPrinters)
		apiGroup.GET("/connections", status.Connections)
	}

	return r, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("admin request")
	}
}
