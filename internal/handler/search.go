package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/service"
)

type fullTextQuery struct {
	Query string `form:"query" validate:"notblank"`
}

type scopedQuery struct {
	Query      string `form:"query" validate:"notblank"`
	TargetPath string `form:"targetPath" validate:"notblank"`
}

// unifiedQuery binds the unified search parameters. The type must be spelled
// exactly as one of the search types.
type unifiedQuery struct {
	Query string `form:"query" validate:"notblank"`
	Type  string `form:"type" validate:"required,oneof=structural relational"`
}

// Search runs caller-written query text
func (h *ExplorerHandler) Search(c *gin.Context) {
	var q unifiedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, ReasonSearch, service.BindingError("search", err))
		return
	}
	page, err := h.pageFrom(c)
	if err != nil {
		writeError(c, ReasonSearch, err)
		return
	}

	result, err := h.search.Search(c.Request.Context(), session(c), service.SearchRequest{
		Query: q.Query,
		Type:  domain.SearchType(q.Type),
	}, page)
	if err != nil {
		writeError(c, ReasonSearch, err)
		return
	}
	writeResults(c, result)
}

// FullTextSearch matches the query anywhere in the repository
func (h *ExplorerHandler) FullTextSearch(c *gin.Context) {
	var q fullTextQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, ReasonFullTextSearch, service.BindingError("full-text search", err))
		return
	}
	page, err := h.pageFrom(c)
	if err != nil {
		writeError(c, ReasonFullTextSearch, err)
		return
	}

	result, err := h.search.FullTextSearch(c.Request.Context(), session(c), q.Query, page)
	if err != nil {
		writeError(c, ReasonFullTextSearch, err)
		return
	}
	writeResults(c, result)
}

// XPathSearch matches the query below targetPath
func (h *ExplorerHandler) XPathSearch(c *gin.Context) {
	var q scopedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, ReasonXPathSearch, service.BindingError("xpath search", err))
		return
	}
	page, err := h.pageFrom(c)
	if err != nil {
		writeError(c, ReasonXPathSearch, err)
		return
	}

	result, err := h.search.XPathSearch(c.Request.Context(), session(c), q.Query, q.TargetPath, page)
	if err != nil {
		writeError(c, ReasonXPathSearch, err)
		return
	}
	writeResults(c, result)
}

// SQLSearch matches the query under paths starting with targetPath
func (h *ExplorerHandler) SQLSearch(c *gin.Context) {
	var q scopedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, ReasonXPathSearch, service.BindingError("sql search", err))
		return
	}
	page, err := h.pageFrom(c)
	if err != nil {
		writeError(c, ReasonXPathSearch, err)
		return
	}

	result, err := h.search.SQLSearch(c.Request.Context(), session(c), q.Query, q.TargetPath, page)
	if err != nil {
		writeError(c, ReasonXPathSearch, err)
		return
	}
	writeResults(c, result)
}

// writeResults sends one page of results. Paged responses carry the total
// in the X-Total-Count header.
func writeResults(c *gin.Context, result *domain.SearchResult[domain.ContentNode]) {
	if result.Page != nil {
		c.Header("X-Total-Count", strconv.FormatInt(result.TotalCount, 10))
	}
	c.JSON(http.StatusOK, result)
}
