package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoexplorer/internal/domain"
)

func TestNodeTreeReader_BlankRefFailsBeforeStoreAccess(t *testing.T) {
	r := NewNodeTreeReader()
	ctx := context.Background()

	// A nil session would panic on any store access
	_, err := r.Resolve(ctx, nil, domain.NodeRef{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = r.Children(ctx, nil, domain.NodeRef{Path: "  ", ID: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = r.Properties(ctx, nil, domain.NodeRef{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNodeTreeReader_Resolve(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	r := NewNodeTreeReader()
	ctx := context.Background()

	a, err := r.Resolve(ctx, sess, domain.NodeRef{Path: "/content/docs/a"})
	require.NoError(t, err)

	t.Run("id wins over path", func(t *testing.T) {
		n, err := r.Resolve(ctx, sess, domain.NodeRef{Path: "/content/docs/b", ID: a.Identifier()})
		require.NoError(t, err)
		assert.Equal(t, "/content/docs/a", n.Path())
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := r.Resolve(ctx, sess, domain.NodeRef{Path: "/nope"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := r.Resolve(ctx, sess, domain.NodeRef{ID: "00000000-0000-0000-0000-000000000000"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestNodeTreeReader_Children(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	r := NewNodeTreeReader()
	ctx := context.Background()

	kids, err := r.Children(ctx, sess, domain.NodeRef{Path: "/content"})
	require.NoError(t, err)
	require.Len(t, kids, 2)
	assert.Equal(t, "docs", kids[0].Name)
	assert.Equal(t, "nt:folder", kids[0].PrimaryType)
	assert.Equal(t, []string{"mix:title"}, kids[0].MixinTypes)
	assert.Equal(t, "/content/media", kids[1].Path)
	assert.Empty(t, kids[1].MixinTypes)

	docs, err := r.Children(ctx, sess, domain.NodeRef{Path: "/content/docs"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	title, ok := docs[0].Property("title")
	require.True(t, ok, "children carry their own properties")
	require.Len(t, title.Values, 1)
	assert.Equal(t, "Quarterly Report", *title.Values[0].StringValue)
}

func TestNodeTreeReader_Properties(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	r := NewNodeTreeReader()

	props, err := r.Properties(context.Background(), sess, domain.NodeRef{Path: "/content/docs/b"})
	require.NoError(t, err)

	assert.Equal(t, domain.PropertyTypeString, props["title"].Type)
	assert.False(t, props["title"].ReadOnly)

	primary, ok := props["jcr:primaryType"]
	require.True(t, ok)
	assert.True(t, primary.ReadOnly)
}

func TestBreadcrumbPrefixes(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"", []string{"/"}},
		{"/", []string{"/"}},
		{"/content", []string{"/", "/content"}},
		{"/content/docs/", []string{"/", "/content", "/content/docs"}},
		{"content//docs", []string{"/", "/content", "/content/docs"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, BreadcrumbPrefixes(tt.path))
		})
	}
}

func TestNodeTreeReader_Breadcrumb(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	r := NewNodeTreeReader()
	ctx := context.Background()

	levels, err := r.Breadcrumb(ctx, sess, "/content/docs")
	require.NoError(t, err)
	require.Len(t, levels, 3)

	assert.Equal(t, "/", levels[0].Path)
	assert.Len(t, levels[0].Children, 2)
	assert.Equal(t, "/content", levels[1].Path)
	assert.Len(t, levels[1].Children, 2)
	assert.Equal(t, "/content/docs", levels[2].Path)
	assert.Len(t, levels[2].Children, 2)

	root, err := r.Breadcrumb(ctx, sess, "")
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, "/", root[0].Path)

	_, err = r.Breadcrumb(ctx, sess, "/content/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNodeTreeReader_NodeTypes(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	r := NewNodeTreeReader()
	ctx := context.Background()

	all, err := r.AvailableNodeTypes(ctx, sess)
	require.NoError(t, err)
	assert.Contains(t, all, "nt:folder")
	assert.Contains(t, all, "nt:unstructured")

	mixins, err := r.MixinNodeTypes(ctx, sess)
	require.NoError(t, err)
	assert.Contains(t, mixins, "mix:title")
	assert.NotContains(t, mixins, "nt:folder")

	logical := r.SupportedLogicalTypes()
	require.NotEmpty(t, logical)
	assert.Equal(t, domain.LogicalTypeFolder, logical[0].Name)
}

func TestNodeTreeReader_Export(t *testing.T) {
	repo := newTestRepo(t)
	sess := login(t, repo)
	r := NewNodeTreeReader()
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, r.Export(ctx, sess, domain.NodeRef{Path: "/content/docs"}, "json", &buf))
	assert.Contains(t, buf.String(), "/content/docs/a")
	assert.Contains(t, buf.String(), "Holiday photos")

	buf.Reset()
	require.NoError(t, r.Export(ctx, sess, domain.NodeRef{Path: "/content/docs"}, "yaml", &buf))
	assert.Contains(t, buf.String(), "/content/docs/b")

	err := r.Export(ctx, sess, domain.NodeRef{Path: "/content/docs"}, "xml", &buf)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
