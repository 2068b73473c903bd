package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoexplorer/internal/domain"
)

func resultPaths(res *domain.SearchResult[domain.ContentNode]) []string {
	out := make([]string, 0, len(res.Content))
	for _, n := range res.Content {
		out = append(out, n.Path)
	}
	return out
}

func TestSearchExecutor_FullTextSearch(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	s := NewSearchExecutor()
	ctx := context.Background()

	t.Run("unpaged search reports no total", func(t *testing.T) {
		res, err := s.FullTextSearch(ctx, sess, "report", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"/content/docs/a"}, resultPaths(res))
		assert.Nil(t, res.Page)
		assert.Zero(t, res.TotalCount)
	})

	t.Run("blank query", func(t *testing.T) {
		_, err := s.FullTextSearch(ctx, nil, "   ", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestSearchExecutor_SQLSearchPaged(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	s := NewSearchExecutor()

	res, err := s.SQLSearch(context.Background(), sess, "o", "/content/docs", domain.PageAt(0, 1))
	require.NoError(t, err)
	assert.Len(t, res.Content, 1)
	assert.Equal(t, int64(3), res.TotalCount)
	require.NotNil(t, res.Page)
	assert.Equal(t, 1, res.Page.Size)

	next, err := s.SQLSearch(context.Background(), sess, "o", "/content/docs", domain.PageAt(1, 1))
	require.NoError(t, err)
	require.Len(t, next.Content, 1)
	assert.NotEqual(t, res.Content[0].Path, next.Content[0].Path)
}

func TestSearchExecutor_XPathSearch(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	s := NewSearchExecutor()
	ctx := context.Background()

	res, err := s.XPathSearch(ctx, sess, "photos", "/content", domain.PageAt(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"/content/docs/b"}, resultPaths(res))
	assert.Equal(t, int64(1), res.TotalCount)

	_, err = s.XPathSearch(ctx, nil, "photos", "content')]", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = s.XPathSearch(ctx, nil, "photos", "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearchExecutor_Search(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	s := NewSearchExecutor()
	ctx := context.Background()

	t.Run("runs as relational whatever the type", func(t *testing.T) {
		res, err := s.Search(ctx, sess, SearchRequest{
			Query: "SELECT * FROM [nt:base] WHERE CONTAINS(*, 'holiday')",
			Type:  domain.SearchTypeStructural,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"/content/docs/b"}, resultPaths(res))
	})

	t.Run("paged", func(t *testing.T) {
		_, err := s.Search(ctx, sess, SearchRequest{
			Query: "SELECT * FROM [nt:folder]",
			Type:  domain.SearchTypeRelational,
		}, domain.PageAt(0, 5))
		require.NoError(t, err)
	})

	rejected := []struct {
		name string
		req  SearchRequest
	}{
		{"unknown type", SearchRequest{Query: "SELECT * FROM [nt:base]", Type: "fulltext"}},
		{"type in upper case", SearchRequest{Query: "SELECT * FROM [nt:base]", Type: "STRUCTURAL"}},
		{"type with padding", SearchRequest{Query: "SELECT * FROM [nt:base]", Type: " relational "}},
		{"missing type", SearchRequest{Query: "SELECT * FROM [nt:base]"}},
		{"blank query", SearchRequest{Query: " ", Type: domain.SearchTypeRelational}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Search(ctx, nil, tt.req, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}

	t.Run("malformed statement is a store failure", func(t *testing.T) {
		_, err := s.Search(ctx, sess, SearchRequest{Query: "DROP TABLE nodes", Type: domain.SearchTypeRelational}, nil)
		assert.ErrorIs(t, err, domain.ErrStore)
	})
}
