package restapi

import (
	"context"
	"net/http/pprof"
	"time"

	"fund_tracer/internal/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions configures middleware and optional routes.
type RouterOptions struct {
	CORSAllowOrigins []string
	RequestTimeout   time.Duration
	EnablePprof      bool
}

// SetupRouter builds the gin engine with all routes registered.
func SetupRouter(h *TraceHandler, zapLogger *zap.Logger, opts RouterOptions) *gin.Engine {
	registerValidations()

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(opts.CORSAllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.CORSAllowOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	if zapLogger != nil {
		router.Use(logger.GinMiddleware(zapLogger))
	}
	router.Use(gin.Recovery())

	api := router.Group("/api")
	if opts.RequestTimeout > 0 {
		api.Use(requestTimeout(opts.RequestTimeout))
	}
	api.POST("/track", h.Track)

	v1 := api.Group("/v1")
	{
		v1.GET("/networks", h.Networks)
	}

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.EnablePprof {
		pprofRouter := router.Group("/debug/pprof")
		{
			pprofRouter.GET("/", gin.WrapF(pprof.Index))
			pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
			pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
			pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		}
	}

	return router
}

// requestTimeout bounds the request context; a scan past the deadline is aborted.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
