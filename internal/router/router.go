package router

import (
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/verto-app/verto/internal/config"
	"github.com/verto-app/verto/internal/handlers"
	"github.com/verto-app/verto/internal/middleware"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)

		if len(c.Errors) != 0 {
			log.Error().Err(errors.New(c.Errors.String())).Msg("")
		}

		log.Debug().
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("")
	}
}

func NewRouter(cfg config.Config) *gin.Engine {
	handlers.Init(cfg)

	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", handlers.Signup)
			auth.POST("/login", handlers.Login)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.GET("/invites/preview", handlers.PreviewInvite)
			auth.POST("/invites/accept", handlers.AcceptInvite)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("/me", handlers.Me)
			users.PATCH("/me", handlers.UpdateProfile)
			users.PUT("/me/password", handlers.UpdatePassword)
		}

		releases := api.Group("/releases", middleware.AuthMiddleware())
		{
			releases.GET("", handlers.ListReleases)
			releases.POST("", handlers.UpsertRelease)
			releases.DELETE("/:client/:env", handlers.DeleteRelease)
		}

		// Summary endpoint lives outside the :client group, gin does not
		// allow a static segment next to a parameter one.
		api.GET("/activity", middleware.AuthMiddleware(), handlers.GetActivitySummaries)

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.GET("/:client/activity", handlers.GetProjectActivity)
			projects.POST("/:client/invites", handlers.CreateInvite)
		}

		organizations := api.Group("/organizations", middleware.AuthMiddleware())
		{
			organizations.GET("", handlers.ListOrganizations)
			organizations.POST("", handlers.CreateOrganization)
		}

		events := api.Group("/transaction-events", middleware.AuthMiddleware())
		{
			events.GET("", handlers.ListTransactionEvents)
			events.POST("", handlers.CreateTransactionEvent)
			events.PATCH("/:id", handlers.UpdateTransactionEvent)
		}
	}

	return r
}
