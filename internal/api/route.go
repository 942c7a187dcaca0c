package api

import (
	"Estuary/internal/api/middleware"
	"Estuary/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		chatGroup := apiGroup.Group("/chat/conversations/:conversation_id")
		{
			chatGroup.POST("/open", group.ChatHandler.Open)
			chatGroup.DELETE("", group.ChatHandler.Close)
			chatGroup.GET("/view", group.ChatHandler.View)
			chatGroup.POST("/earlier", group.ChatHandler.LoadEarlier)
			chatGroup.POST("/refresh", group.ChatHandler.Refresh)
			chatGroup.POST("/send", group.ChatHandler.Send)
			chatGroup.POST("/reply", group.ChatHandler.StartReply)
			chatGroup.DELETE("/reply", group.ChatHandler.CancelReply)
		}
	}

	return r
}
