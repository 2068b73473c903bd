package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repoexplorer/internal/logging"
	"repoexplorer/internal/metrics"
)

// RegisterRoutes mounts the explorer API on rg
func RegisterRoutes(rg *gin.RouterGroup, h *ExplorerHandler) {
	explorer := rg.Group("/explorer", h.withSession())
	{
		// Tree navigation
		explorer.GET("/list-root", h.ListRoot)
		explorer.GET("/tree", h.Tree)
		explorer.GET("/node", h.GetNode)
		explorer.GET("/node/children", h.Children)
		explorer.GET("/node/properties", h.Properties)
		explorer.GET("/node/export", h.Export)

		// Type catalog
		explorer.GET("/available-node-types", h.AvailableNodeTypes)
		explorer.GET("/available-mixin-types", h.MixinNodeTypes)
		explorer.GET("/supported-node-types", h.SupportedNodeTypes)

		// Search
		explorer.GET("/search", h.Search)
		explorer.GET("/full-text-search", h.FullTextSearch)
		explorer.GET("/x-path-search", h.XPathSearch)
		explorer.GET("/sql-search", h.SQLSearch)

		// Structural changes
		explorer.POST("/nodes", h.AddNode)
		explorer.DELETE("/nodes", h.DeleteNode)
		explorer.POST("/nodes/move", h.Move)
		explorer.POST("/nodes/rename", h.Rename)
		explorer.POST("/nodes/copy", h.Copy)
		explorer.POST("/nodes/cut-paste", h.CutAndPaste)
		explorer.POST("/nodes/bulk-move", h.BulkMove)
		explorer.POST("/nodes/bulk-copy", h.BulkCopy)
		explorer.POST("/nodes/mixins", h.AddMixin)
		explorer.DELETE("/nodes/mixins", h.RemoveMixin)

		// Properties
		explorer.POST("/properties", h.AddProperty)
		explorer.PUT("/properties", h.SaveProperty)
		explorer.DELETE("/properties", h.DeleteProperty)
		explorer.PUT("/properties/binary", h.SaveBinaryProperty)
		explorer.PUT("/node/properties", h.SaveProperties)

		// Node type administration
		explorer.POST("/node-types", h.RegisterNodeTypes)
		explorer.PUT("/node-types/icon", h.AssociateTypeIcon)
		explorer.GET("/node-types/icons", h.TypeIcons)
	}
}

// NewRouter builds the engine serving the explorer API. events, when set,
// serves the change stream at /api/explorer/events.
func NewRouter(h *ExplorerHandler, events http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(), metrics.Middleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	RegisterRoutes(api, h)
	if events != nil {
		api.GET("/explorer/events", gin.WrapH(events))
	}
	return r
}
