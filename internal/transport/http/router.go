// Package http wires the gin engine: middleware, CORS and the versioned API
// group that services register their routes on.
package http

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"imagemeta-server-go/internal/platform/config"
	"imagemeta-server-go/internal/platform/logging"
)

type Options struct {
	Config *config.Config
	Logger *logging.Logger
}

// Router carries the engine plus the /api group routes attach to.
type Router struct {
	Engine *gin.Engine
	API    *gin.RouterGroup
}

func Build(opts Options) *Router {
	if strings.EqualFold(opts.Config.Log.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(opts.Logger))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	return &Router{
		Engine: engine,
		API:    engine.Group("/api"),
	}
}

func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.InfoTag("HTTP", "%s %s -> %d (%v)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(started))
	}
}
