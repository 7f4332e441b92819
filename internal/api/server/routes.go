package server

import (
	"github.com/bz888/tsdr/internal/api/server/handlers"
	"github.com/gin-gonic/gin"
)

func registerRoutes(router *gin.Engine, handler *handlers.Handler) {
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	api.POST("/generate", handler.Generate)
	api.GET("/languages", handler.Languages)
}
