package router

import (
	"github.com/gin-gonic/gin"

	"chatbeto.app/archivist/internal/http/handler"
	"chatbeto.app/archivist/internal/store"
)

// SetupRoutes registers the read-only archive API.
func SetupRoutes(router *gin.Engine, stores *store.Stores) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	convHandler := handler.NewConversationHandler(stores.Conversations(), stores.Messages())
	projHandler := handler.NewProjectHandler(stores.Projects(), stores.Conversations(), stores.Messages())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/conversations", convHandler.List)
		v1.GET("/conversations/:id", convHandler.Get)
		v1.GET("/conversations/:id/messages", convHandler.Messages)
		v1.GET("/search", convHandler.Search)
		v1.GET("/projects", projHandler.List)
		v1.GET("/stats", projHandler.Stats)
	}
}
