package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/logging"
	"repoexplorer/internal/repository"
	"repoexplorer/internal/repository/sqlite"
	"repoexplorer/internal/service"
)

// ============================================================================
// Test Helpers
// ============================================================================

type testServer struct {
	router *gin.Engine
	repo   *sqlite.Repository
}

// newTestServer serves a store seeded with
// /content/{docs/{a,b},media} and /archive
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logging.Replace(zaptest.NewLogger(t))

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "explorer.db"))
	require.NoError(t, err, "failed to create test repository")
	t.Cleanup(func() {
		repo.Close()
	})

	ctx := context.Background()
	sess, err := repo.Login(ctx)
	require.NoError(t, err)
	defer sess.Logout()

	add := func(parent, name, primaryType string) repository.Node {
		p, err := sess.Node(ctx, parent)
		require.NoError(t, err)
		n, err := p.AddNode(ctx, name, primaryType)
		require.NoError(t, err)
		return n
	}
	add("/", "content", "nt:folder")
	add("/content", "docs", "nt:folder")
	add("/content", "media", "nt:folder")
	add("/", "archive", "nt:folder")
	a := add("/content/docs", "a", "nt:unstructured")
	add("/content/docs", "b", "nt:unstructured")
	require.NoError(t, a.SetProperty(ctx, "title", repository.StringValue("Quarterly Report")))
	require.NoError(t, sess.Save(ctx))

	h := NewExplorerHandler(repo, service.NewEventBus(), Options{DefaultPageSize: 10, MaxPageSize: 50})
	return &testServer{router: NewRouter(h, nil), repo: repo}
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// exists checks path through a fresh session so only committed state is seen
func (s *testServer) exists(t *testing.T, path string) bool {
	t.Helper()
	sess, err := s.repo.Login(context.Background())
	require.NoError(t, err)
	defer sess.Logout()
	ok, err := sess.NodeExists(context.Background(), path)
	require.NoError(t, err)
	return ok
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func names(nodes []domain.ContentNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

// ============================================================================
// Tree Navigation
// ============================================================================

func TestListRoot(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/list-root", nil)
	require.Equal(t, http.StatusOK, w.Code)

	levels := decode[[]domain.BreadcrumbLevel](t, w)
	require.Len(t, levels, 1)
	assert.Equal(t, "/", levels[0].Path)
	assert.ElementsMatch(t, []string{"archive", "content"}, names(levels[0].Children))
}

func TestTree(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/tree?path=/content/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	levels := decode[[]domain.BreadcrumbLevel](t, w)
	require.Len(t, levels, 3)
	assert.Equal(t, "/content/docs", levels[2].Path)
	assert.ElementsMatch(t, []string{"a", "b"}, names(levels[2].Children))
}

func TestChildren(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
		kind   string
	}{
		{"by path", "/api/explorer/node/children?path=/content/docs", http.StatusOK, ""},
		{"blank reference", "/api/explorer/node/children?path=%20", http.StatusBadRequest, "invalid_argument"},
		{"no reference", "/api/explorer/node/children", http.StatusBadRequest, "invalid_argument"},
		{"missing node", "/api/explorer/node/children?path=/nope", http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.kind == "" {
				nodes := decode[[]domain.ContentNode](t, w)
				assert.ElementsMatch(t, []string{"a", "b"}, names(nodes))
				return
			}
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, ReasonFetchChildren, resp.Reason)
		})
	}
}

func TestChildrenByID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/node?path=/content/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[domain.ContentNode](t, w)
	require.NotEmpty(t, docs.ID)

	w = s.do(t, http.MethodGet, "/api/explorer/node/children?path=/archive&id="+docs.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"a", "b"}, names(decode[[]domain.ContentNode](t, w)))
}

func TestProperties(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/node/properties?path=/content/docs/a", nil)
	require.Equal(t, http.StatusOK, w.Code)

	props := decode[map[string]domain.PropertyValue](t, w)
	require.Contains(t, props, "title")
	assert.Equal(t, "Quarterly Report", *props["title"].Values[0].StringValue)
	assert.True(t, props["jcr:primaryType"].ReadOnly)
}

func TestExport(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/node/export?path=/content/docs&format=yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "/content/docs/a")

	w = s.do(t, http.MethodGet, "/api/explorer/node/export?path=/content/docs&format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTypeCatalog(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/available-node-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[[]string](t, w), "nt:folder")

	w = s.do(t, http.MethodGet, "/api/explorer/available-mixin-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	mixins := decode[[]string](t, w)
	assert.Contains(t, mixins, "mix:title")
	assert.NotContains(t, mixins, "nt:folder")

	w = s.do(t, http.MethodGet, "/api/explorer/supported-node-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]domain.LogicalTypeInfo](t, w))
}

// ============================================================================
// Search
// ============================================================================

func TestFullTextSearch(t *testing.T) {
	s := newTestServer(t)

	t.Run("unpaged", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/explorer/full-text-search?query=quarterly", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Total-Count"))

		result := decode[domain.SearchResult[domain.ContentNode]](t, w)
		require.Len(t, result.Content, 1)
		assert.Equal(t, "/content/docs/a", result.Content[0].Path)
		assert.Zero(t, result.TotalCount)
	})

	t.Run("paged", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/explorer/full-text-search?query=quarterly&page=0&size=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

		result := decode[domain.SearchResult[domain.ContentNode]](t, w)
		assert.Equal(t, int64(1), result.TotalCount)
	})

	t.Run("blank query", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/explorer/full-text-search?query=", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "invalid_argument", resp.Kind)
		assert.Equal(t, ReasonFullTextSearch, resp.Reason)
	})
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"relational", "/api/explorer/search?type=relational&query=" + urlQuery("SELECT * FROM [nt:base] WHERE CONTAINS(*, 'quarterly')"), http.StatusOK},
		{"structural", "/api/explorer/search?type=structural&query=" + urlQuery("SELECT * FROM [nt:base] WHERE CONTAINS(*, 'quarterly')"), http.StatusOK},
		{"type in upper case", "/api/explorer/search?type=STRUCTURAL&query=" + urlQuery("SELECT * FROM [nt:base] WHERE CONTAINS(*, 'quarterly')"), http.StatusBadRequest},
		{"unknown type", "/api/explorer/search?type=gremlin&query=x", http.StatusBadRequest},
		{"missing query", "/api/explorer/search?type=relational", http.StatusBadRequest},
		{"unparseable query", "/api/explorer/search?type=relational&query=" + urlQuery("DROP TABLE nodes"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestScopedSearch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/sql-search?query=quarterly&targetPath=/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[domain.SearchResult[domain.ContentNode]](t, w).Content, 1)

	w = s.do(t, http.MethodGet, "/api/explorer/x-path-search?query=quarterly&targetPath=/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[domain.SearchResult[domain.ContentNode]](t, w).Content)

	w = s.do(t, http.MethodGet, "/api/explorer/x-path-search?query=quarterly", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ReasonXPathSearch, decode[ErrorResponse](t, w).Reason)
}

func urlQuery(s string) string {
	r := strings.NewReplacer(" ", "%20", "[", "%5B", "]", "%5D", "'", "%27", "*", "%2A", "(", "%28", ")", "%29", ",", "%2C", ":", "%3A")
	return r.Replace(s)
}

// ============================================================================
// Structural Changes
// ============================================================================

func TestAddAndDeleteNode(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/explorer/nodes", service.AddNodeRequest{
		ParentPath:  "/content",
		Name:        "reports",
		PrimaryType: "nt:folder",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "New node successfully created.", decode[MessageResponse](t, w).Message)
	assert.True(t, s.exists(t, "/content/reports"))

	w = s.do(t, http.MethodPost, "/api/explorer/nodes", map[string]string{"parentPath": "/content"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/explorer/nodes?path=/content/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Successfully deleted. /content/reports", decode[MessageResponse](t, w).Message)
	assert.False(t, s.exists(t, "/content/reports"))

	w = s.do(t, http.MethodDelete, "/api/explorer/nodes", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransfers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/explorer/nodes/copy", service.TransferRequest{
		Source:      "/content/docs/a",
		Destination: "/archive",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully copied /content/docs/a to /archive", decode[MessageResponse](t, w).Message)
	assert.True(t, s.exists(t, "/archive/a"))
	assert.True(t, s.exists(t, "/content/docs/a"))

	w = s.do(t, http.MethodPost, "/api/explorer/nodes/move", service.TransferRequest{
		Source:      "/content/media",
		Destination: "/archive",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully moved. /content/media to /archive", decode[MessageResponse](t, w).Message)
	assert.True(t, s.exists(t, "/archive/media"))

	w = s.do(t, http.MethodPost, "/api/explorer/nodes/cut-paste", service.TransferRequest{
		Source:      "/content/docs/b",
		Destination: "/archive",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully cut and pasted /content/docs/b to /archive", decode[MessageResponse](t, w).Message)
	assert.True(t, s.exists(t, "/archive/b"))
	assert.False(t, s.exists(t, "/content/docs/b"))

	w = s.do(t, http.MethodPost, "/api/explorer/nodes/rename", service.RenameRequest{
		Source:  "/archive/media",
		NewName: "pictures",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully renamed from media to pictures", decode[MessageResponse](t, w).Message)

	w = s.do(t, http.MethodPost, "/api/explorer/nodes/move", service.TransferRequest{Source: "/content/docs"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkMove(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/explorer/nodes/bulk-move", map[string]string{
		"/content/docs/a": "/archive",
		"/content/docs/b": "",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[BulkResponse](t, w)
	require.NotNil(t, resp.BulkResult)
	assert.Len(t, resp.Succeeded, 1)
	assert.Len(t, resp.Failed, 1)
	assert.Equal(t, "Successfully moved 1 nodes, failed to move 1 nodes", resp.Message)
	assert.True(t, s.exists(t, "/archive/a"))
	assert.True(t, s.exists(t, "/content/docs/b"))

	w = s.do(t, http.MethodPost, "/api/explorer/nodes/bulk-copy", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_request", decode[ErrorResponse](t, w).Kind)
}

func TestMixins(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/explorer/nodes/mixins", service.MixinRequest{
		Path:      "/content/media",
		MixinType: "mix:title",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Mixin type successfully added.", decode[MessageResponse](t, w).Message)

	w = s.do(t, http.MethodDelete, "/api/explorer/nodes/mixins?path=/content/media&mixinType=mix:title", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Mixin type successfully removed.", decode[MessageResponse](t, w).Message)
}

// ============================================================================
// Properties
// ============================================================================

func TestPropertyRoutes(t *testing.T) {
	s := newTestServer(t)

	value := domain.PropertyValue{
		Name:   "owner",
		Type:   domain.PropertyTypeString,
		Values: []domain.TypedScalar{domain.StringScalar("alice")},
	}
	w := s.do(t, http.MethodPost, "/api/explorer/properties", service.PropertyRequest{
		Path:  "/content/media",
		Name:  "owner",
		Value: value,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Successfully added new property at /content/media", decode[MessageResponse](t, w).Message)

	value.Values = []domain.TypedScalar{domain.StringScalar("bob")}
	w = s.do(t, http.MethodPut, "/api/explorer/properties", service.PropertyRequest{
		Path:  "/content/media",
		Name:  "owner",
		Value: value,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully saved property /content/media", decode[MessageResponse](t, w).Message)

	w = s.do(t, http.MethodGet, "/api/explorer/node/properties?path=/content/media", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", *decode[map[string]domain.PropertyValue](t, w)["owner"].Values[0].StringValue)

	w = s.do(t, http.MethodDelete, "/api/explorer/properties?path=/content/media&name=owner", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully deleted owner property at /content/media", decode[MessageResponse](t, w).Message)

	w = s.do(t, http.MethodDelete, "/api/explorer/properties?path=/content/media", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddPropertyRejectsValuesJSONCannotCarry(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		typ  domain.PropertyType
		text string
	}{
		{"double nan", domain.PropertyTypeDouble, "NaN"},
		{"double infinity", domain.PropertyTypeDouble, "Inf"},
		{"decimal bare fraction", domain.PropertyTypeDecimal, ".5"},
		{"decimal plus sign", domain.PropertyTypeDecimal, "+1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/explorer/properties", service.PropertyRequest{
				Path: "/content/docs/a",
				Name: "bad",
				Value: domain.PropertyValue{
					Name:        "bad",
					Type:        tt.typ,
					MultiValued: true,
					Values:      []domain.TypedScalar{{StringValue: &tt.text}},
				},
			})
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "invalid_argument", decode[ErrorResponse](t, w).Kind)
		})
	}

	w := s.do(t, http.MethodGet, "/api/explorer/node/children?path=/content/docs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"a", "b"}, names(decode[[]domain.ContentNode](t, w)))
}

func TestSaveProperties(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/explorer/node/properties", service.SavePropertiesRequest{
		Path: "/content/docs/b",
		Node: domain.ContentNode{
			Properties: map[string]domain.PropertyValue{
				"title": {
					Name:   "title",
					Type:   domain.PropertyTypeString,
					Values: []domain.TypedScalar{domain.StringScalar("Holiday photos")},
				},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully saved. /content/docs/b", decode[MessageResponse](t, w).Message)
}

func TestSaveBinaryProperty(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/explorer/properties/binary?path=/content/media&name=data", "raw bytes")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully saved. /content/media", decode[MessageResponse](t, w).Message)

	w = s.do(t, http.MethodGet, "/api/explorer/node/properties?path=/content/media", nil)
	require.Equal(t, http.StatusOK, w.Code)
	props := decode[map[string]domain.PropertyValue](t, w)
	assert.Equal(t, domain.PropertyTypeBinary, props["data"].Type)
}

// ============================================================================
// Node Type Administration
// ============================================================================

func TestRegisterNodeTypes(t *testing.T) {
	s := newTestServer(t)

	body := `
node_types:
  - name: app:document
    properties:
      - name: app:title
        type: String
`
	w := s.do(t, http.MethodPost, "/api/explorer/node-types", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[registerResponse](t, w).Registered)

	w = s.do(t, http.MethodGet, "/api/explorer/available-node-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[[]string](t, w), "app:document")

	w = s.do(t, http.MethodPost, "/api/explorer/node-types", "node_types: [")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ReasonRegisterNodeTypes, decode[ErrorResponse](t, w).Reason)
}

func TestRegisterNodeTypesRejectsOversizeBody(t *testing.T) {
	s := newTestServer(t)

	var body strings.Builder
	body.WriteString("node_types:\n  - name: app:first\n")
	for body.Len() <= maxTypeDefinitionBytes {
		body.WriteString("  - name: app:padding\n")
	}
	body.WriteString("  - name: app:last\n")

	w := s.do(t, http.MethodPost, "/api/explorer/node-types", body.String())
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "invalid_argument", resp.Kind)
	assert.Equal(t, ReasonRegisterNodeTypes, resp.Reason)

	w = s.do(t, http.MethodGet, "/api/explorer/available-node-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode[[]string](t, w), "app:first")
}

func TestTypeIcons(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/explorer/node-types/icons", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string]string](t, w))

	w = s.do(t, http.MethodPut, "/api/explorer/node-types/icon", service.IconRequest{
		NodeType: "nt:folder",
		IconPath: "icons/folder.svg",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/explorer/node-types/icons", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"nt:folder": "icons/folder.svg"}, decode[map[string]string](t, w))

	w = s.do(t, http.MethodPut, "/api/explorer/node-types/icon", service.IconRequest{
		NodeType: "app:missing",
		IconPath: "x.svg",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============================================================================
// Operational Endpoints
// ============================================================================

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// generate at least one labelled request before scraping
	s.do(t, http.MethodGet, "/api/explorer/list-root", nil)
	w = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "explorer_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Invalid("op", "bad"), http.StatusBadRequest},
		{domain.NotFound("op", "gone", nil), http.StatusNotFound},
		{domain.StoreFailure("op", "broken", io.EOF), http.StatusBadRequest},
		{domain.Unsupported("op", domain.PropertyTypeURI), http.StatusBadRequest},
		{io.EOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
