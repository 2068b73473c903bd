package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"repoexplorer/internal/codec"
	"repoexplorer/internal/domain"
	"repoexplorer/internal/service"
)

type treeQuery struct {
	Path string `form:"path"`
}

type exportQuery struct {
	Format string `form:"format"`
}

// ListRoot returns the breadcrumb of the root node
func (h *ExplorerHandler) ListRoot(c *gin.Context) {
	levels, err := h.reader.Breadcrumb(c.Request.Context(), session(c), "/")
	if err != nil {
		writeError(c, ReasonFetchRoot, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

// Tree returns the children of every prefix of the requested path
func (h *ExplorerHandler) Tree(c *gin.Context) {
	var q treeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, ReasonFetchRoot, service.BindingError("tree", err))
		return
	}

	levels, err := h.reader.Breadcrumb(c.Request.Context(), session(c), q.Path)
	if err != nil {
		writeError(c, ReasonFetchRoot, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

// bindRef reads a node reference from the query string. A blank reference is
// rejected by binding before the store is touched.
func bindRef(c *gin.Context, op string) (domain.NodeRef, error) {
	var ref domain.NodeRef
	if err := c.ShouldBindQuery(&ref); err != nil {
		return ref, service.BindingError(op, err)
	}
	return ref, nil
}

// GetNode returns a single node with its properties
func (h *ExplorerHandler) GetNode(c *gin.Context) {
	ref, err := bindRef(c, "node")
	if err != nil {
		writeError(c, ReasonFetchNode, err)
		return
	}

	node, err := h.reader.Node(c.Request.Context(), session(c), ref)
	if err != nil {
		writeError(c, ReasonFetchNode, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// Children returns the direct children of a node
func (h *ExplorerHandler) Children(c *gin.Context) {
	ref, err := bindRef(c, "children")
	if err != nil {
		writeError(c, ReasonFetchChildren, err)
		return
	}

	nodes, err := h.reader.Children(c.Request.Context(), session(c), ref)
	if err != nil {
		writeError(c, ReasonFetchChildren, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

// Properties returns the properties of a node keyed by name
func (h *ExplorerHandler) Properties(c *gin.Context) {
	ref, err := bindRef(c, "properties")
	if err != nil {
		writeError(c, ReasonFetchProperties, err)
		return
	}

	props, err := h.reader.Properties(c.Request.Context(), session(c), ref)
	if err != nil {
		writeError(c, ReasonFetchProperties, err)
		return
	}
	c.JSON(http.StatusOK, props)
}

// Export downloads a node and its direct children as JSON or YAML
func (h *ExplorerHandler) Export(c *gin.Context) {
	ref, err := bindRef(c, "export")
	if err != nil {
		writeError(c, ReasonExport, err)
		return
	}
	var q exportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, ReasonExport, service.BindingError("export", err))
		return
	}
	exp, err := codec.ExporterFor(q.Format)
	if err != nil {
		writeError(c, ReasonExport, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reader.Export(c.Request.Context(), session(c), ref, exp.Format(), &buf); err != nil {
		writeError(c, ReasonExport, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=nodes."+exp.Format())
	c.Data(http.StatusOK, exp.ContentType(), buf.Bytes())
}

// AvailableNodeTypes lists every registered node type
func (h *ExplorerHandler) AvailableNodeTypes(c *gin.Context) {
	names, err := h.reader.AvailableNodeTypes(c.Request.Context(), session(c))
	if err != nil {
		writeError(c, ReasonAvailableNodeTypes, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// MixinNodeTypes lists the registered mixin types
func (h *ExplorerHandler) MixinNodeTypes(c *gin.Context) {
	names, err := h.reader.MixinNodeTypes(c.Request.Context(), session(c))
	if err != nil {
		writeError(c, ReasonMixinNodeTypes, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// SupportedNodeTypes lists the logical property types the explorer understands
func (h *ExplorerHandler) SupportedNodeTypes(c *gin.Context) {
	c.JSON(http.StatusOK, h.reader.SupportedLogicalTypes())
}
