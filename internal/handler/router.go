package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Search *SearchHandler
}

func RegisterRoutes(engine *gin.Engine, deps RouterDeps) {
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	api := engine.Group("/api/v1")
	api.POST("/search", deps.Search.Search)
	api.GET("/stats", deps.Search.Stats)
}
