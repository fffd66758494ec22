package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docblade/docblade"

	mcpE "github.com/docblade/docblade/mcp"
)

func AddRouters(r *gin.Engine, endpoints docblade.EndpointSet, uploadDir string) {
	// RESTful API routes
	api := r.Group("/api")
	{
		api.POST("/ingest", IngestHandler(endpoints.Ingest, uploadDir))
		api.POST("/query", QueryHandler(endpoints.Query))
		api.POST("/clear", ClearHandler(endpoints.ClearCollection))
		api.GET("/files", ListFilesHandler(endpoints.ListFiles))
		api.POST("/categories", CreateCategoryHandler(endpoints.CreateCategory))
		api.GET("/categories", ListCategoriesHandler(endpoints.ListCategories))
	}
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	mcp := r.Group("/mcp")
	{
		mcp.POST("/", MCPStreamableHandler(endpoints))
	}
}
