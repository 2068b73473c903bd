package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"repoexplorer/internal/repository"
)

// builtinNodeTypes are installed on every new store
func builtinNodeTypes() []repository.NodeTypeDefinition {
	prop := func(name, typ string, protected bool) repository.PropertyDefinition {
		return repository.PropertyDefinition{Name: name, RequiredType: typ, Protected: protected}
	}
	return []repository.NodeTypeDefinition{
		{Name: "nt:base", Abstract: true, Properties: []repository.PropertyDefinition{
			prop(propPrimaryType, "Name", true),
			{Name: propMixinTypes, RequiredType: "Name", Multiple: true, Protected: true},
		}},
		{Name: "nt:hierarchyNode", Abstract: true, Supertypes: []string{"nt:base", "mix:created"}},
		{Name: "nt:folder", Supertypes: []string{"nt:hierarchyNode"},
			ChildNodes: []repository.ChildDefinition{{Name: "*", RequiredTypes: []string{"nt:hierarchyNode"}}}},
		{Name: "nt:file", Supertypes: []string{"nt:hierarchyNode"}, PrimaryItem: "jcr:content",
			ChildNodes: []repository.ChildDefinition{{Name: "jcr:content", RequiredTypes: []string{"nt:base"}, Mandatory: true}}},
		{Name: "nt:resource", Supertypes: []string{"nt:base", "mix:lastModified", "mix:mimeType"}, PrimaryItem: "jcr:data",
			Properties: []repository.PropertyDefinition{{Name: "jcr:data", RequiredType: "Binary", Mandatory: true}}},
		{Name: "nt:unstructured", Supertypes: []string{"nt:base"},
			ChildNodes: []repository.ChildDefinition{{Name: "*", DefaultType: "nt:unstructured"}}},
		{Name: RootType, Supertypes: []string{"nt:unstructured"}},

		{Name: mixinReferenceable, Mixin: true, Properties: []repository.PropertyDefinition{prop(propUUID, "String", true)}},
		{Name: "mix:title", Mixin: true, Properties: []repository.PropertyDefinition{
			prop("jcr:title", "String", false), prop("jcr:description", "String", false),
		}},
		{Name: "mix:created", Mixin: true, Properties: []repository.PropertyDefinition{
			prop("jcr:created", "Date", true), prop("jcr:createdBy", "String", true),
		}},
		{Name: "mix:lastModified", Mixin: true, Properties: []repository.PropertyDefinition{
			prop("jcr:lastModified", "Date", false), prop("jcr:lastModifiedBy", "String", false),
		}},
		{Name: "mix:versionable", Mixin: true, Supertypes: []string{mixinReferenceable}},
		{Name: "mix:lockable", Mixin: true, Properties: []repository.PropertyDefinition{
			prop("jcr:lockOwner", "String", true), prop("jcr:lockIsDeep", "Boolean", true),
		}},
		{Name: "mix:language", Mixin: true, Properties: []repository.PropertyDefinition{prop("jcr:language", "String", false)}},
		{Name: "mix:mimeType", Mixin: true, Properties: []repository.PropertyDefinition{
			prop("jcr:mimeType", "String", false), prop("jcr:encoding", "String", false),
		}},
	}
}

// ============================================================================
// Session Lookups
// ============================================================================

// nodeType loads one definition
func (s *session) nodeType(ctx context.Context, name string) (*repository.NodeTypeDefinition, error) {
	tx, err := s.conn()
	if err != nil {
		return nil, err
	}
	var data string
	err = tx.QueryRowContext(ctx, `SELECT definition FROM node_types WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrNoSuchNodeType, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query node type %s: %w", name, err)
	}
	var def repository.NodeTypeDefinition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, fmt.Errorf("unmarshal node type %s: %w", name, err)
	}
	return &def, nil
}

// nodeTypes loads every definition keyed by name
func (s *session) nodeTypes(ctx context.Context) (map[string]repository.NodeTypeDefinition, error) {
	tx, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, `SELECT definition FROM node_types`)
	if err != nil {
		return nil, fmt.Errorf("failed to query node types: %w", err)
	}
	defer rows.Close()

	defs := make(map[string]repository.NodeTypeDefinition)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan node type: %w", err)
		}
		var def repository.NodeTypeDefinition
		if err := json.Unmarshal([]byte(data), &def); err != nil {
			return nil, fmt.Errorf("unmarshal node type: %w", err)
		}
		defs[def.Name] = def
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating node types: %w", err)
	}
	return defs, nil
}

// protectedNames collects protected property names declared by the node's
// primary type, its mixins and all of their supertypes
func (s *session) protectedNames(ctx context.Context, n *node) (map[string]bool, error) {
	defs, err := s.nodeTypes(ctx)
	if err != nil {
		return nil, err
	}
	protected := map[string]bool{propPrimaryType: true, propMixinTypes: true, propUUID: true}
	seen := make(map[string]bool)
	var walk func(name string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		def, ok := defs[name]
		if !ok {
			return
		}
		for _, p := range def.Properties {
			if p.Protected {
				protected[p.Name] = true
			}
		}
		for _, st := range def.Supertypes {
			walk(st)
		}
	}
	walk(n.primaryType)
	for _, m := range n.mixins {
		walk(m)
	}
	return protected, nil
}

// subtypesOf returns name and every type that inherits from it
func subtypesOf(defs map[string]repository.NodeTypeDefinition, name string) []string {
	var inherits func(t string, seen map[string]bool) bool
	inherits = func(t string, seen map[string]bool) bool {
		if t == name {
			return true
		}
		if seen[t] {
			return false
		}
		seen[t] = true
		for _, st := range defs[t].Supertypes {
			if inherits(st, seen) {
				return true
			}
		}
		return false
	}

	names := []string{name}
	for t := range defs {
		if t != name && inherits(t, map[string]bool{}) {
			names = append(names, t)
		}
	}
	sort.Strings(names[1:])
	return names
}

// ============================================================================
// NodeTypeManager
// ============================================================================

type nodeTypeManager struct {
	sess *session
}

func (m *nodeTypeManager) AllNodeTypes(ctx context.Context) ([]repository.NodeTypeDefinition, error) {
	return m.list(ctx, func(repository.NodeTypeDefinition) bool { return true })
}

func (m *nodeTypeManager) MixinNodeTypes(ctx context.Context) ([]repository.NodeTypeDefinition, error) {
	return m.list(ctx, func(def repository.NodeTypeDefinition) bool { return def.Mixin })
}

func (m *nodeTypeManager) list(ctx context.Context, keep func(repository.NodeTypeDefinition) bool) ([]repository.NodeTypeDefinition, error) {
	defs, err := m.sess.nodeTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]repository.NodeTypeDefinition, 0, len(defs))
	for _, def := range defs {
		if keep(def) {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *nodeTypeManager) HasNodeType(ctx context.Context, name string) (bool, error) {
	_, err := m.sess.nodeType(ctx, name)
	if errors.Is(err, repository.ErrNoSuchNodeType) {
		return false, nil
	}
	return err == nil, err
}

// RegisterNodeTypes stores the definitions as one unit. Supertypes may refer to
// registered types or to other definitions in the same batch.
func (m *nodeTypeManager) RegisterNodeTypes(ctx context.Context, defs []repository.NodeTypeDefinition, allowUpdate bool) error {
	existing, err := m.sess.nodeTypes(ctx)
	if err != nil {
		return err
	}

	batch := make(map[string]bool, len(defs))
	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return fmt.Errorf("%w: node type without a name", repository.ErrConstraintViolation)
		}
		if batch[name] {
			return fmt.Errorf("%w: node type %s defined twice", repository.ErrConstraintViolation, name)
		}
		batch[name] = true
		if _, ok := existing[name]; ok && !allowUpdate {
			return fmt.Errorf("%w: node type %s", repository.ErrItemExists, name)
		}
	}
	for _, def := range defs {
		for _, st := range def.Supertypes {
			if _, ok := existing[st]; !ok && !batch[st] {
				return fmt.Errorf("%w: %s (supertype of %s)", repository.ErrNoSuchNodeType, st, def.Name)
			}
		}
	}

	return m.sess.atomic(ctx, func(tx *sql.Tx) error {
		for _, def := range defs {
			def.Name = strings.TrimSpace(def.Name)
			data, err := json.Marshal(def)
			if err != nil {
				return fmt.Errorf("marshal node type %s: %w", def.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO node_types (name, is_mixin, definition) VALUES (?, ?, ?)
				ON CONFLICT(name) DO UPDATE SET
					is_mixin = excluded.is_mixin,
					definition = excluded.definition,
					updated_at = CURRENT_TIMESTAMP
			`, def.Name, boolToInt(def.Mixin), string(data)); err != nil {
				return fmt.Errorf("failed to register node type %s: %w", def.Name, err)
			}
		}
		return nil
	})
}
