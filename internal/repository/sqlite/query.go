package sqlite

import (
	"context"
	"fmt"
	"strings"

	"repoexplorer/internal/repository"
)

// queryManager implements repository.QueryManager over the session transaction
type queryManager struct {
	sess *session
}

// Execute runs a JCR-SQL2 or XPath statement. Count statements return no
// nodes and report the number of matches in Size.
func (m *queryManager) Execute(ctx context.Context, q repository.Query) (*repository.QueryResult, error) {
	var (
		parsed *parsedQuery
		err    error
	)
	switch q.Language {
	case repository.LanguageSQL2:
		parsed, err = parseSQL2(q.Statement)
	case repository.LanguageXPath:
		parsed, err = parseXPath(q.Statement)
	default:
		return nil, invalidQuery("unsupported language %q", q.Language)
	}
	if err != nil {
		return nil, err
	}

	defs, err := m.sess.nodeTypes(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := parsed.where(defs)
	if err != nil {
		return nil, err
	}

	tx, err := m.sess.conn()
	if err != nil {
		return nil, err
	}

	if parsed.count {
		var count int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes n"+where, args...).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count query results: %w", err)
		}
		return &repository.QueryResult{Nodes: []repository.Node{}, Size: count}, nil
	}

	order, orderArgs := parsed.orderBy()
	stmt := "SELECT " + qualifiedNodeColumns + " FROM nodes n" + where + order
	args = append(args, orderArgs...)
	switch {
	case q.Limit > 0:
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	case q.Offset > 0:
		stmt += " LIMIT -1 OFFSET ?"
		args = append(args, q.Offset)
	}

	rows, err := tx.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	nodes := make([]repository.Node, 0)
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n, err := row.toNode(m.sess)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query results: %w", err)
	}
	return &repository.QueryResult{Nodes: nodes, Size: int64(len(nodes))}, nil
}

// ============================================================================
// SQL Generation
// ============================================================================

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// where renders the WHERE clause (with leading space) over nodes aliased n
func (q *parsedQuery) where(defs map[string]repository.NodeTypeDefinition) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)

	if q.nodeType != "" && q.nodeType != "nt:base" {
		if _, ok := defs[q.nodeType]; !ok {
			return "", nil, invalidQuery("unknown node type %s", q.nodeType)
		}
		names := subtypesOf(defs, q.nodeType)
		ph := placeholders(len(names))
		clauses = append(clauses, "(n.primary_type IN ("+ph+") OR EXISTS (SELECT 1 FROM json_each(n.mixin_types) m WHERE m.value IN ("+ph+")))")
		for i := 0; i < 2; i++ {
			for _, name := range names {
				args = append(args, name)
			}
		}
	}

	if q.name != "" {
		clauses = append(clauses, "n.name = ?")
		args = append(args, q.name)
	}

	for _, c := range q.conds {
		clause, cargs, err := c.sql()
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause...)
		args = append(args, cargs...)
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (c condition) sql() ([]string, []any, error) {
	switch c.kind {
	case condContains:
		return fullTextClauses(c.property, c.value)

	case condDescendant, condChild, condSame:
		p, err := normalizePath(c.value)
		if err != nil {
			return nil, nil, invalidQuery("invalid path %q", c.value)
		}
		switch c.kind {
		case condDescendant:
			if p == "/" {
				return []string{"n.path <> '/'"}, nil, nil
			}
			prefix := descendantPrefix(p)
			return []string{"substr(n.path, 1, ?) = ?"}, []any{sqlLen(prefix), prefix}, nil
		case condChild:
			return []string{"n.parent_id IN (SELECT id FROM nodes WHERE path = ?)"}, []any{p}, nil
		}
		return []string{"n.path = ?"}, []any{p}, nil

	case condPath:
		return []string{compare("n.path", c.op)}, []any{c.value}, nil
	case condType:
		return []string{compare("n.primary_type", c.op)}, []any{c.value}, nil
	case condName:
		return []string{compare("n.name", c.op)}, []any{c.value}, nil
	case condProperty:
		return []string{
			"EXISTS (SELECT 1 FROM properties p, json_each(p.vals) v WHERE p.node_id = n.id AND p.name = ? AND " + compare("v.value", c.op) + ")",
		}, []any{c.property, c.value}, nil
	}
	return nil, nil, invalidQuery("unsupported condition")
}

func compare(column, op string) string {
	if op == "LIKE" {
		return column + ` LIKE ? ESCAPE '\'`
	}
	return column + " " + op + " ?"
}

// fullTextClauses ANDs every term as a case-insensitive substring match over the
// node name and its searchable property text. A leading "-" excludes a term and
// double quotes group a phrase.
func fullTextClauses(property, expr string) ([]string, []any, error) {
	terms := splitTerms(expr)
	if len(terms) == 0 {
		return nil, nil, invalidQuery("empty full-text expression")
	}

	var (
		clauses []string
		args    []any
	)
	for _, t := range terms {
		pattern := "%" + escapeLike(strings.ToLower(t.text)) + "%"
		var clause string
		if property == "" {
			clause = `(lower(n.name) LIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM properties p WHERE p.node_id = n.id AND lower(p.search_text) LIKE ? ESCAPE '\'))`
			args = append(args, pattern, pattern)
		} else {
			clause = `EXISTS (SELECT 1 FROM properties p WHERE p.node_id = n.id AND p.name = ? AND lower(p.search_text) LIKE ? ESCAPE '\')`
			args = append(args, property, pattern)
		}
		if t.exclude {
			clause = "NOT " + clause
		}
		clauses = append(clauses, clause)
	}
	return clauses, args, nil
}

type searchTerm struct {
	text    string
	exclude bool
}

func splitTerms(expr string) []searchTerm {
	var (
		terms   []searchTerm
		current strings.Builder
		exclude bool
		quoted  bool
	)
	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, searchTerm{text: current.String(), exclude: exclude})
		}
		current.Reset()
		exclude = false
	}
	for _, r := range expr {
		switch {
		case r == '"':
			if quoted {
				flush()
			}
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		case !quoted && r == '-' && current.Len() == 0:
			exclude = true
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return terms
}

func (q *parsedQuery) orderBy() (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, o := range q.order {
		var expr string
		switch {
		case o.property:
			expr = "(SELECT json_extract(p.vals, '$[0]') FROM properties p WHERE p.node_id = n.id AND p.name = ?)"
			args = append(args, o.column)
		case o.column == "jcr:name":
			expr = "n.name"
		case o.column == "jcr:primaryType":
			expr = "n.primary_type"
		default:
			expr = "n.path"
		}
		if o.desc {
			expr += " DESC"
		}
		parts = append(parts, expr)
	}
	parts = append(parts, "n.path")
	return " ORDER BY " + strings.Join(parts, ", "), args
}
