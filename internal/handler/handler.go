package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/logging"
	"repoexplorer/internal/repository"
	"repoexplorer/internal/service"
)

const sessionKey = "explorer.session"

// Reason codes reported with failed requests
const (
	ReasonFetchRoot          = "explorer.error.failed.fetch.root"
	ReasonFetchChildren      = "explorer.error.failed.fetch.nodeChilderen"
	ReasonFetchProperties    = "explorer.error.failed.fetch.properties"
	ReasonFetchNode          = "explorer.error.failed.fetch.node"
	ReasonExport             = "explorer.error.failed.export"
	ReasonAvailableNodeTypes = "explorer.error.failed.fetch.availableNodeTypes"
	ReasonMixinNodeTypes     = "explorer.error.failed.fetch.mixinNodeTypes"
	ReasonSearch             = "explorer.error.failed.fetch.search"
	ReasonFullTextSearch     = "explorer.error.failed.fetch.fullTextSearch"
	ReasonXPathSearch        = "explorer.error.failed.fetch.xpathSearch"
	ReasonSession            = "explorer.error.failed.session"
	ReasonAddNode            = "explorer.error.failed.add.node"
	ReasonDeleteNode         = "explorer.error.failed.delete.node"
	ReasonMove               = "explorer.error.failed.move"
	ReasonRename             = "explorer.error.failed.rename"
	ReasonCopy               = "explorer.error.failed.copy"
	ReasonCutAndPaste        = "explorer.error.failed.cutAndPaste"
	ReasonBulkMove           = "explorer.error.failed.bulk.move"
	ReasonBulkCopy           = "explorer.error.failed.bulk.copy"
	ReasonMixin              = "explorer.error.failed.mixin"
	ReasonProperty           = "explorer.error.failed.property"
	ReasonRegisterNodeTypes  = "explorer.error.failed.register.nodeTypes"
	ReasonAssociateIcon      = "explorer.error.failed.associate.icon"
	ReasonFetchIcons         = "explorer.error.failed.fetch.icons"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
}

// MessageResponse carries the confirmation of a mutation
type MessageResponse struct {
	Message string `json:"message"`
}

// Options tunes request handling
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ExplorerHandler handles explorer API requests. Every request runs on its
// own repository session.
type ExplorerHandler struct {
	repo       repository.Repository
	reader     *service.NodeTreeReader
	search     *service.SearchExecutor
	mutations  *service.MutationService
	properties *service.PropertyEditor
	nodeTypes  *service.NodeTypeService
	opts       Options
}

// NewExplorerHandler creates a new explorer handler
func NewExplorerHandler(repo repository.Repository, eventBus *service.EventBus, opts Options) *ExplorerHandler {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	return &ExplorerHandler{
		repo:       repo,
		reader:     service.NewNodeTreeReader(),
		search:     service.NewSearchExecutor(),
		mutations:  service.NewMutationService(eventBus),
		properties: service.NewPropertyEditor(eventBus),
		nodeTypes:  service.NewNodeTypeService(eventBus),
		opts:       opts,
	}
}

// NodeTypes exposes the node type service for startup registration
func (h *ExplorerHandler) NodeTypes() *service.NodeTypeService {
	return h.nodeTypes
}

// ============================================================================
// Sessions
// ============================================================================

// withSession logs in before the handler runs and logs out after it returns
func (h *ExplorerHandler) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := h.repo.Login(c.Request.Context())
		if err != nil {
			writeError(c, ReasonSession, domain.StoreFailure("login", "failed to open session", err))
			return
		}
		defer sess.Logout()

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func session(c *gin.Context) repository.Session {
	return c.MustGet(sessionKey).(repository.Session)
}

// ============================================================================
// Request Helpers
// ============================================================================

type pageQuery struct {
	Page *int `form:"page" validate:"omitempty,min=0"`
	Size *int `form:"size" validate:"omitempty,min=1"`
}

// pageFrom reads the zero-based page and size parameters. Without either
// parameter the request is unpaged.
func (h *ExplorerHandler) pageFrom(c *gin.Context) (*domain.Page, error) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return nil, service.BindingError("page", err)
	}
	if q.Page == nil && q.Size == nil {
		return nil, nil
	}

	size := h.opts.DefaultPageSize
	if q.Size != nil {
		size = *q.Size
	}
	if size > h.opts.MaxPageSize {
		size = h.opts.MaxPageSize
	}
	index := 0
	if q.Page != nil {
		index = *q.Page
	}
	return domain.PageAt(index, size), nil
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrEmptyRequest),
		errors.Is(err, domain.ErrPartialFailure),
		errors.Is(err, domain.ErrStore):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, reason string, err error) {
	status := statusFor(err)

	resp := ErrorResponse{
		Error:  err.Error(),
		Kind:   domain.KindName(err),
		Reason: reason,
	}
	if cause := errors.Unwrap(err); cause != nil {
		resp.Details = cause.Error()
	}

	log := logging.WithContext(c.Request.Context())
	fields := []zap.Field{
		logging.String("reason", reason),
		logging.Int("status", status),
		logging.Err(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Warn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, resp)
}

func writeMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// ============================================================================
// Binding
// ============================================================================

// structValidator applies the service validation rules during gin binding
type structValidator struct{}

func (structValidator) ValidateStruct(obj any) error {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return service.Validator().Struct(v.Interface())
}

func (structValidator) Engine() any {
	return service.Validator()
}

func init() {
	binding.Validator = structValidator{}
}
