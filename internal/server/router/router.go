package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/server/handlers"
	"github.com/mamadbah2/hamma/internal/service/procurement"
)

// New wires the Gin engine with required routes and middlewares.
func New(sessions *procurement.SessionManager, orders *handlers.ProcurementHandler, assistant *handlers.AssistantHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "sessions": sessions.Len()})
	})

	r.POST("/sessions", orders.CreateSession)

	s := r.Group("/sessions/:sid", handlers.RequireSession(sessions, logger))
	{
		s.DELETE("", orders.CloseSession)

		s.GET("/cart", orders.GetCart)
		s.POST("/cart/items", orders.AddItem)
		s.PUT("/cart/items/:itemID", orders.SetQuantity)
		s.DELETE("/cart/items/:itemID", orders.RemoveItem)

		s.POST("/orders", orders.CommitOrder)
		s.GET("/orders", orders.ListOrders)
		s.GET("/orders/:orderID", orders.GetOrder)
		s.POST("/orders/:orderID/reapprove", orders.Reapprove)

		s.GET("/reports", orders.ListReports)
		s.GET("/reports/:orderID/contract", orders.ExportContract)

		s.POST("/search", assistant.Search)
		s.POST("/recommendations/add", assistant.AddRecommendations)
		s.GET("/image-chat", assistant.GetImageChat)
		s.POST("/image-chat", assistant.ImageChat)
		s.DELETE("/image-chat", assistant.ResetImageChat)
		s.POST("/voice/clean", assistant.CleanVoice)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
