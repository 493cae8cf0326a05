package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rune-settle.backend/internal/interfaces/http/handlers"
	"rune-settle.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler       *handlers.AuthHandler
	settlementHandler *handlers.SettlementHandler
	addressHandler    *handlers.AddressHandler
	feeHandler        *handlers.FeeHandler
	runeHandler       *handlers.RuneHandler
	authMiddleware    gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.authHandler.Register)
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/refresh", d.authHandler.RefreshToken)
			auth.POST("/logout", d.authMiddleware, d.authHandler.Logout)
			auth.GET("/me", d.authMiddleware, d.authHandler.GetMe)
		}

		// Settlement routes (protected)
		settlements := v1.Group("/settlements")
		settlements.Use(d.authMiddleware)
		{
			settlements.POST("", middleware.IdempotencyMiddleware(), d.settlementHandler.Submit)
			settlements.GET("", d.settlementHandler.List)
			settlements.GET("/:id", d.settlementHandler.Get)
			settlements.GET("/:id/events", d.settlementHandler.Events)
			settlements.GET("/:id/subscribe", d.settlementHandler.Subscribe)
		}

		// Address classification (public)
		v1.POST("/addresses/classify", d.addressHandler.Classify)

		// Saved address routes (protected)
		savedAddresses := v1.Group("/saved-addresses")
		savedAddresses.Use(d.authMiddleware)
		{
			savedAddresses.GET("", d.addressHandler.ListSaved)
			savedAddresses.POST("", d.addressHandler.Save)
			savedAddresses.PUT("/:id/primary", d.addressHandler.SetPrimary)
			savedAddresses.DELETE("/:id", d.addressHandler.Delete)
		}

		// Fee quotes (protected)
		v1.GET("/fees/quote", d.authMiddleware, d.feeHandler.Quote)

		// Rune lifecycle routes (protected)
		runes := v1.Group("/runes")
		runes.Use(d.authMiddleware)
		{
			runes.GET("", d.runeHandler.List)
			runes.GET("/:key", d.runeHandler.Get)
		}
	}
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "rune-settle-backend",
			"version": "0.1.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
