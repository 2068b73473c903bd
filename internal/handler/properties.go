package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/service"
)

// maxTypeDefinitionBytes caps a node type registration body
const maxTypeDefinitionBytes = 1 << 20

// registerResponse acknowledges an administrative change
type registerResponse struct {
	Registered bool `json:"registered"`
}

// AddProperty creates a property on a node
func (h *ExplorerHandler) AddProperty(c *gin.Context) {
	var req service.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ReasonProperty, service.BindingError("add property", err))
		return
	}

	msg, err := h.properties.AddProperty(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonProperty, err)
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{Message: msg})
}

// SaveProperty overwrites one property on a node
func (h *ExplorerHandler) SaveProperty(c *gin.Context) {
	var req service.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ReasonProperty, service.BindingError("save property", err))
		return
	}

	msg, err := h.properties.SaveProperty(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonProperty, err)
		return
	}
	writeMessage(c, msg)
}

// SaveProperties writes every editable property carried by the body
func (h *ExplorerHandler) SaveProperties(c *gin.Context) {
	var req service.SavePropertiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ReasonProperty, service.BindingError("save properties", err))
		return
	}

	msg, err := h.properties.SaveProperties(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonProperty, err)
		return
	}
	writeMessage(c, msg)
}

// DeleteProperty removes the property named in the query string
func (h *ExplorerHandler) DeleteProperty(c *gin.Context) {
	var ref service.PropertyRef
	if err := c.ShouldBindQuery(&ref); err != nil {
		writeError(c, ReasonProperty, service.BindingError("delete property", err))
		return
	}

	msg, err := h.properties.DeleteProperty(c.Request.Context(), session(c), ref)
	if err != nil {
		writeError(c, ReasonProperty, err)
		return
	}
	writeMessage(c, msg)
}

// SaveBinaryProperty streams the request body into a binary property
func (h *ExplorerHandler) SaveBinaryProperty(c *gin.Context) {
	var ref service.PropertyRef
	if err := c.ShouldBindQuery(&ref); err != nil {
		writeError(c, ReasonProperty, service.BindingError("save binary property", err))
		return
	}

	msg, err := h.properties.SaveBinaryProperty(c.Request.Context(), session(c), ref, c.Request.Body)
	if err != nil {
		writeError(c, ReasonProperty, err)
		return
	}
	writeMessage(c, msg)
}

// RegisterNodeTypes registers the YAML node type definitions in the body
func (h *ExplorerHandler) RegisterNodeTypes(c *gin.Context) {
	const op = "register node types"

	text, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxTypeDefinitionBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, ReasonRegisterNodeTypes, domain.Invalid(op, fmt.Sprintf("definitions exceed %d bytes", tooLarge.Limit)))
			return
		}
		writeError(c, ReasonRegisterNodeTypes, service.BindingError(op, err))
		return
	}

	ok, err := h.nodeTypes.RegisterNodeTypes(c.Request.Context(), session(c), string(text))
	if err != nil {
		writeError(c, ReasonRegisterNodeTypes, err)
		return
	}
	c.JSON(http.StatusOK, registerResponse{Registered: ok})
}

// AssociateTypeIcon records the icon shown for a node type
func (h *ExplorerHandler) AssociateTypeIcon(c *gin.Context) {
	var req service.IconRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, ReasonAssociateIcon, service.BindingError("associate icon", err))
		return
	}

	ok, err := h.nodeTypes.AssociateTypeIcon(c.Request.Context(), session(c), req)
	if err != nil {
		writeError(c, ReasonAssociateIcon, err)
		return
	}
	c.JSON(http.StatusOK, registerResponse{Registered: ok})
}

// TypeIcons returns the icon reference of every associated node type
func (h *ExplorerHandler) TypeIcons(c *gin.Context) {
	icons, err := h.nodeTypes.TypeIcons(c.Request.Context(), session(c))
	if err != nil {
		writeError(c, ReasonFetchIcons, err)
		return
	}
	c.JSON(http.StatusOK, icons)
}
