package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"repoexplorer/internal/repository"
)

// ============================================================================
// Path Helpers
// ============================================================================

var indexSuffix = regexp.MustCompile(`\[(\d+)\]$`)

// normalizePath cleans an absolute path and strips "[1]" same-name-sibling
// indices. Any other index cannot resolve in this store and is kept, so the
// lookup fails with ErrItemNotFound.
func normalizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: path must be absolute: %q", repository.ErrItemNotFound, p)
	}
	p = path.Clean(p)
	if p == "/" {
		return p, nil
	}
	segments := strings.Split(p[1:], "/")
	for i, seg := range segments {
		if m := indexSuffix.FindStringSubmatch(seg); m != nil {
			if n, _ := strconv.Atoi(m[1]); n == 1 {
				segments[i] = strings.TrimSuffix(seg, m[0])
			}
		}
	}
	return "/" + strings.Join(segments, "/"), nil
}

// parentPath returns the parent of a normalized path ("/" for top-level nodes)
func parentPath(p string) string {
	if p == "/" {
		return ""
	}
	return path.Dir(p)
}

// childPath joins a parent path and a child name
func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// descendantPrefix returns the LIKE-free prefix shared by every descendant of p
func descendantPrefix(p string) string {
	if p == "/" {
		return "/"
	}
	return p + "/"
}

// validName reports whether name can be used as a single path segment
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/[]*|\t\r\n")
}

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// marshalStrings encodes a string slice as a JSON array, never "null"
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalStrings decodes a JSON array column
func unmarshalStrings(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(ns.String), &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID          string
	Path        string
	ParentID    sql.NullString
	Name        string
	PrimaryType string
	MixinJSON   sql.NullString
	SortOrder   int64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly:
// id, path, parent_id, name, primary_type, mixin_types, sort_order
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,          // 1
		&r.Path,        // 2
		&r.ParentID,    // 3
		&r.Name,        // 4
		&r.PrimaryType, // 5
		&r.MixinJSON,   // 6
		&r.SortOrder,   // 7
	}
}

// toNode converts the scanned row to a node bound to the session
func (r *nodeRow) toNode(s *session) (*node, error) {
	mixins, err := unmarshalStrings(r.MixinJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshal mixin types: %w", err)
	}
	return &node{
		sess:        s,
		id:          r.ID,
		path:        r.Path,
		name:        r.Name,
		primaryType: r.PrimaryType,
		mixins:      mixins,
	}, nil
}

// nodeColumns is the SELECT column list for node queries
const nodeColumns = `id, path, parent_id, name, primary_type, mixin_types, sort_order`

// qualifiedNodeColumns is nodeColumns for queries aliasing nodes as n
const qualifiedNodeColumns = `n.id, n.path, n.parent_id, n.name, n.primary_type, n.mixin_types, n.sort_order`

// ============================================================================
// Property Row Scanner
// ============================================================================

// propertyRow holds all columns from a property query for scanning
type propertyRow struct {
	NodeID   string
	Name     string
	Type     int
	Multiple int
	ValsJSON sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match propertyColumns order exactly:
// node_id, name, type, multiple, vals
func (r *propertyRow) scanArgs() []interface{} {
	return []interface{}{
		&r.NodeID,   // 1
		&r.Name,     // 2
		&r.Type,     // 3
		&r.Multiple, // 4
		&r.ValsJSON, // 5
	}
}

// toProperty converts the scanned row to a property owned by n
func (r *propertyRow) toProperty(n *node, protected bool) (*property, error) {
	lexicals, err := unmarshalStrings(r.ValsJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshal property values: %w", err)
	}
	typ := repository.PropertyType(r.Type)
	values := make([]repository.Value, 0, len(lexicals))
	for _, l := range lexicals {
		values = append(values, repository.RawValue(typ, l))
	}
	return &property{
		owner:     n,
		name:      r.Name,
		typ:       typ,
		multiple:  r.Multiple != 0,
		protected: protected,
		values:    values,
	}, nil
}

// propertyColumns is the SELECT column list for property queries
const propertyColumns = `node_id, name, type, multiple, vals`

// ============================================================================
// Property Write Helpers
// ============================================================================

// propertyInsertArgs prepares arguments for property UPSERT
// Returns: node_id, name, type, multiple, vals, search_text
func propertyInsertArgs(nodeID, name string, typ repository.PropertyType, multiple bool, values []repository.Value) ([]interface{}, error) {
	lexicals := make([]string, 0, len(values))
	for _, v := range values {
		lexicals = append(lexicals, v.String())
	}
	vals, err := marshalStrings(lexicals)
	if err != nil {
		return nil, fmt.Errorf("marshal property values: %w", err)
	}

	// binary digests are not searchable text
	searchText := ""
	if typ != repository.TypeBinary {
		searchText = strings.Join(lexicals, "\n")
	}

	m := 0
	if multiple {
		m = 1
	}
	return []interface{}{nodeID, name, int(typ), m, vals, searchText}, nil
}

// sqlLen is the length SQLite's substr() sees for s
func sqlLen(s string) int {
	return utf8.RuneCountInString(s)
}
