package service

import (
	"context"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/logging"
	"repoexplorer/internal/metrics"
	"repoexplorer/internal/query"
	"repoexplorer/internal/repository"
)

// SearchRequest is the unified search input
type SearchRequest struct {
	Query string            `json:"query" validate:"notblank"`
	Type  domain.SearchType `json:"type" validate:"required,oneof=structural relational"`
}

// SearchExecutor runs rendered statements and maps the rows to content nodes
type SearchExecutor struct{}

// NewSearchExecutor creates a new search executor
func NewSearchExecutor() *SearchExecutor {
	return &SearchExecutor{}
}

// Execute runs stmt, optionally paged. The total count is only computed for
// paged requests and is taken verbatim from the count statement's row count.
func (s *SearchExecutor) Execute(ctx context.Context, sess repository.Session, stmt query.Statement, page *domain.Page) (*domain.SearchResult[domain.ContentNode], error) {
	const op = "search"

	q := repository.Query{Statement: stmt.Text, Language: stmt.Language}
	if page != nil {
		q.Limit = int64(page.Size)
		q.Offset = page.Offset
	}

	qm := sess.QueryManager()
	res, err := qm.Execute(ctx, q)
	if err != nil {
		logging.WithContext(ctx).Error("query failed",
			logging.String("dialect", string(stmt.Dialect)),
			logging.String("statement", stmt.Text),
			logging.Err(err))
		return nil, wrapStore(op, "failed to execute "+string(stmt.Dialect)+" query", err)
	}

	content := make([]domain.ContentNode, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		cn, err := contentNode(ctx, n)
		if err != nil {
			return nil, wrapStore(op, "failed to read "+n.Path(), err)
		}
		content = append(content, cn)
	}

	result := &domain.SearchResult[domain.ContentNode]{Content: content, Page: page}
	if page != nil {
		count := query.Count(stmt)
		cres, err := qm.Execute(ctx, repository.Query{Statement: count.Text, Language: count.Language})
		if err != nil {
			return nil, wrapStore(op, "failed to count "+string(stmt.Dialect)+" results", err)
		}
		result.TotalCount = cres.Size
	}

	metrics.RecordSearchResults(string(stmt.Dialect), len(content))
	return result, nil
}

// FullTextSearch matches q anywhere in the repository
func (s *SearchExecutor) FullTextSearch(ctx context.Context, sess repository.Session, q string, page *domain.Page) (_ *domain.SearchResult[domain.ContentNode], err error) {
	done := metrics.Track("full_text_search")
	defer func() { done(err) }()

	stmt, err := query.FullText(q)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, sess, stmt, page)
}

// XPathSearch matches q in the subtree below targetPath using the structural dialect
func (s *SearchExecutor) XPathSearch(ctx context.Context, sess repository.Session, q, targetPath string, page *domain.Page) (_ *domain.SearchResult[domain.ContentNode], err error) {
	done := metrics.Track("xpath_search")
	defer func() { done(err) }()

	stmt, err := query.Structural(q, targetPath)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, sess, stmt, page)
}

// SQLSearch matches q under paths starting with targetPath using the relational dialect
func (s *SearchExecutor) SQLSearch(ctx context.Context, sess repository.Session, q, targetPath string, page *domain.Page) (_ *domain.SearchResult[domain.ContentNode], err error) {
	done := metrics.Track("sql_search")
	defer func() { done(err) }()

	stmt, err := query.Relational(q, targetPath)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, sess, stmt, page)
}

// Search runs caller-written query text. The type is validated but every
// query executes as relational text.
func (s *SearchExecutor) Search(ctx context.Context, sess repository.Session, req SearchRequest, page *domain.Page) (_ *domain.SearchResult[domain.ContentNode], err error) {
	done := metrics.Track("search")
	defer func() { done(err) }()

	if err := validateRequest("search", req); err != nil {
		return nil, err
	}
	stmt, err := query.Raw(req.Query)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, sess, stmt, page)
}
