package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/repository"
	"repoexplorer/internal/service"
)

// BulkResponse reports the outcome of a bulk move or copy
type BulkResponse struct {
	*domain.BulkResult
	Message string `json:"message"`
}

// AddNode creates a child node
func (h *ExplorerHandler) AddNode(c *gin.Context) {
	var req service.AddNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ReasonAddNode, service.BindingError("add node", err))
		return
	}

	msg, err := h.mutations.AddNode(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonAddNode, err)
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{Message: msg})
}

// DeleteNode removes the node at the path query parameter
func (h *ExplorerHandler) DeleteNode(c *gin.Context) {
	var req service.DeleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, ReasonDeleteNode, service.BindingError("delete", err))
		return
	}

	msg, err := h.mutations.DeleteNode(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonDeleteNode, err)
		return
	}
	writeMessage(c, msg)
}

// AddMixin adds a mixin type to a node
func (h *ExplorerHandler) AddMixin(c *gin.Context) {
	var req service.MixinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ReasonMixin, service.BindingError("add mixin", err))
		return
	}

	msg, err := h.mutations.AddMixin(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonMixin, err)
		return
	}
	writeMessage(c, msg)
}

// RemoveMixin removes a mixin type named in the query string
func (h *ExplorerHandler) RemoveMixin(c *gin.Context) {
	var req service.MixinRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, ReasonMixin, service.BindingError("remove mixin", err))
		return
	}

	msg, err := h.mutations.RemoveMixin(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonMixin, err)
		return
	}
	writeMessage(c, msg)
}

// transfer binds a source/destination body and runs fn on it
func (h *ExplorerHandler) transfer(
	reason, op string,
	fn func(ctx context.Context, sess repository.Session, req service.TransferRequest) (string, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.TransferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, reason, service.BindingError(op, err))
			return
		}

		msg, err := fn(c.Request.Context(), session(c), req)
		if err != nil {
			writeError(c, reason, err)
			return
		}
		writeMessage(c, msg)
	}
}

// Move moves a node below a new parent
func (h *ExplorerHandler) Move(c *gin.Context) {
	h.transfer(ReasonMove, "move", h.mutations.Move)(c)
}

// Copy copies a node below a new parent
func (h *ExplorerHandler) Copy(c *gin.Context) {
	h.transfer(ReasonCopy, "copy", h.mutations.Copy)(c)
}

// CutAndPaste copies a node below a new parent and removes the original
func (h *ExplorerHandler) CutAndPaste(c *gin.Context) {
	h.transfer(ReasonCutAndPaste, "cut and paste", h.mutations.CutAndPaste)(c)
}

// Rename gives a node a new name in place
func (h *ExplorerHandler) Rename(c *gin.Context) {
	var req service.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ReasonRename, service.BindingError("rename", err))
		return
	}

	msg, err := h.mutations.Rename(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonRename, err)
		return
	}
	writeMessage(c, msg)
}

// bulk binds a source to destination map and runs fn on it. Entry failures
// are reported in the body; the request itself still succeeds.
func (h *ExplorerHandler) bulk(
	reason, op string,
	fn func(ctx context.Context, sess repository.Session, entries map[string]string) (*domain.BulkResult, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var entries map[string]string
		if err := c.ShouldBindJSON(&entries); err != nil {
			writeError(c, reason, service.BindingError(op, err))
			return
		}

		result, err := fn(c.Request.Context(), session(c), entries)
		if err != nil {
			writeError(c, reason, err)
			return
		}
		c.JSON(http.StatusOK, BulkResponse{BulkResult: result, Message: result.Summary()})
	}
}

// BulkMove moves each source below its destination parent
func (h *ExplorerHandler) BulkMove(c *gin.Context) {
	h.bulk(ReasonBulkMove, "bulk move", h.mutations.BulkMove)(c)
}

// BulkCopy copies each source below its destination parent
func (h *ExplorerHandler) BulkCopy(c *gin.Context) {
	h.bulk(ReasonBulkCopy, "bulk copy", h.mutations.BulkCopy)(c)
}
