package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"

	"repoexplorer/internal/repository"
)

// Synthetic property names derived from node columns
const (
	propPrimaryType = "jcr:primaryType"
	propMixinTypes  = "jcr:mixinTypes"
	propUUID        = "jcr:uuid"

	mixinReferenceable = "mix:referenceable"
	defaultPrimaryType = "nt:unstructured"
)

// node implements repository.Node. It snapshots its row when loaded; mutations
// address the row by id, which survives moves.
type node struct {
	sess        *session
	id          string
	path        string
	name        string
	primaryType string
	mixins      []string
}

func (n *node) Path() string         { return n.path }
func (n *node) Name() string         { return n.name }
func (n *node) IsNode() bool         { return true }
func (n *node) Identifier() string   { return n.id }
func (n *node) PrimaryType() string  { return n.primaryType }
func (n *node) MixinTypes() []string { return append([]string(nil), n.mixins...) }

func (n *node) hasMixin(mixin string) bool {
	for _, m := range n.mixins {
		if m == mixin {
			return true
		}
	}
	return false
}

// Remove deletes the node and its subtree
func (n *node) Remove(ctx context.Context) error {
	if n.path == "/" {
		return fmt.Errorf("%w: the root node cannot be removed", repository.ErrConstraintViolation)
	}
	return n.sess.atomic(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, n.id)
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", n.path, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("%w: node %s", repository.ErrItemNotFound, n.path)
		}
		return nil
	})
}

// Nodes lists direct children in insertion order
func (n *node) Nodes(ctx context.Context) ([]repository.Node, error) {
	tx, err := n.sess.conn()
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes WHERE parent_id = ? ORDER BY sort_order, name
	`, n.id)
	if err != nil {
		return nil, fmt.Errorf("failed to query children of %s: %w", n.path, err)
	}
	defer rows.Close()

	children := make([]repository.Node, 0)
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		child, err := row.toNode(n.sess)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children: %w", err)
	}
	return children, nil
}

func (n *node) HasNode(ctx context.Context, name string) (bool, error) {
	return n.sess.NodeExists(ctx, childPath(n.path, name))
}

// Properties returns the synthetic properties followed by the stored ones in name order
func (n *node) Properties(ctx context.Context) ([]repository.Property, error) {
	tx, err := n.sess.conn()
	if err != nil {
		return nil, err
	}

	protected, err := n.sess.protectedNames(ctx, n)
	if err != nil {
		return nil, err
	}

	props := make([]repository.Property, 0)
	for _, p := range n.syntheticProperties() {
		props = append(props, p)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+propertyColumns+` FROM properties WHERE node_id = ? ORDER BY name
	`, n.id)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties of %s: %w", n.path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row propertyRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		p, err := row.toProperty(n, protected[row.Name])
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}
	return props, nil
}

func (n *node) Property(ctx context.Context, name string) (repository.Property, error) {
	return n.property(ctx, name)
}

func (n *node) property(ctx context.Context, name string) (*property, error) {
	for _, p := range n.syntheticProperties() {
		if p.name == name {
			return p, nil
		}
	}

	tx, err := n.sess.conn()
	if err != nil {
		return nil, err
	}

	var row propertyRow
	err = tx.QueryRowContext(ctx, `
		SELECT `+propertyColumns+` FROM properties WHERE node_id = ? AND name = ?
	`, n.id, name).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: property %s at %s", repository.ErrItemNotFound, name, n.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property %s: %w", name, err)
	}

	protected, err := n.sess.protectedNames(ctx, n)
	if err != nil {
		return nil, err
	}
	return row.toProperty(n, protected[name])
}

func (n *node) syntheticProperties() []*property {
	props := []*property{{
		owner:     n,
		name:      propPrimaryType,
		typ:       repository.TypeName,
		protected: true,
		values:    []repository.Value{repository.RawValue(repository.TypeName, n.primaryType)},
	}}

	if len(n.mixins) > 0 {
		values := make([]repository.Value, 0, len(n.mixins))
		for _, m := range n.mixins {
			values = append(values, repository.RawValue(repository.TypeName, m))
		}
		props = append(props, &property{
			owner:     n,
			name:      propMixinTypes,
			typ:       repository.TypeName,
			multiple:  true,
			protected: true,
			values:    values,
		})
	}

	if n.hasMixin(mixinReferenceable) {
		props = append(props, &property{
			owner:     n,
			name:      propUUID,
			typ:       repository.TypeString,
			protected: true,
			values:    []repository.Value{repository.StringValue(n.id)},
		})
	}
	return props
}

func isSynthetic(name string) bool {
	return name == propPrimaryType || name == propMixinTypes || name == propUUID
}

// ============================================================================
// Structure
// ============================================================================

// AddNode creates a child. An empty primaryType defaults to nt:unstructured.
func (n *node) AddNode(ctx context.Context, name, primaryType string) (repository.Node, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: invalid node name %q", repository.ErrConstraintViolation, name)
	}
	if primaryType == "" {
		primaryType = defaultPrimaryType
	}

	def, err := n.sess.nodeType(ctx, primaryType)
	if err != nil {
		return nil, err
	}
	if def.Mixin || def.Abstract {
		return nil, fmt.Errorf("%w: %s cannot be used as a primary type", repository.ErrConstraintViolation, primaryType)
	}

	p := childPath(n.path, name)
	exists, err := n.sess.NodeExists(ctx, p)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", repository.ErrItemExists, p)
	}

	child := &node{sess: n.sess, id: newID(), path: p, name: name, primaryType: primaryType, mixins: []string{}}
	err = n.sess.atomic(ctx, func(tx *sql.Tx) error {
		order, err := nextSortOrder(ctx, tx, n.id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO nodes (id, path, parent_id, name, primary_type, mixin_types, sort_order)
			VALUES (?, ?, ?, ?, ?, '[]', ?)
		`, child.id, child.path, n.id, child.name, child.primaryType, order)
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

func (n *node) AddMixin(ctx context.Context, mixin string) error {
	def, err := n.sess.nodeType(ctx, mixin)
	if err != nil {
		return err
	}
	if !def.Mixin {
		return fmt.Errorf("%w: %s is not a mixin type", repository.ErrConstraintViolation, mixin)
	}
	if n.hasMixin(mixin) {
		return nil
	}
	return n.writeMixins(ctx, append(n.MixinTypes(), mixin))
}

func (n *node) RemoveMixin(ctx context.Context, mixin string) error {
	if !n.hasMixin(mixin) {
		return fmt.Errorf("%w: %s is not assigned to %s", repository.ErrNoSuchNodeType, mixin, n.path)
	}
	remaining := make([]string, 0, len(n.mixins))
	for _, m := range n.mixins {
		if m != mixin {
			remaining = append(remaining, m)
		}
	}
	return n.writeMixins(ctx, remaining)
}

func (n *node) writeMixins(ctx context.Context, mixins []string) error {
	sort.Strings(mixins)
	data, err := marshalStrings(mixins)
	if err != nil {
		return fmt.Errorf("marshal mixin types: %w", err)
	}
	err = n.sess.atomic(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE nodes SET mixin_types = ? WHERE id = ?`, data, n.id); err != nil {
			return fmt.Errorf("failed to update mixin types of %s: %w", n.path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	n.mixins = mixins
	return nil
}

// ============================================================================
// Property Writes
// ============================================================================

func (n *node) SetProperty(ctx context.Context, name string, value repository.Value) error {
	return n.writeProperty(ctx, name, value.Type(), false, []repository.Value{value})
}

// SetPropertyValues writes a multi-valued property of type typ. Every value
// must carry that type, so an empty slice keeps the declared type.
func (n *node) SetPropertyValues(ctx context.Context, name string, typ repository.PropertyType, values []repository.Value) error {
	for _, v := range values {
		if v.Type() != typ {
			return fmt.Errorf("%w: %s value in %s property %s", repository.ErrValueFormat, v.Type(), typ, name)
		}
	}
	return n.writeProperty(ctx, name, typ, true, values)
}

func (n *node) SetBinaryProperty(ctx context.Context, name string, r io.Reader) error {
	if err := n.checkWritable(ctx, name); err != nil {
		return err
	}
	return n.sess.atomic(ctx, func(tx *sql.Tx) error {
		digest, err := storeBinary(ctx, tx, r)
		if err != nil {
			return err
		}
		return upsertProperty(ctx, tx, n.id, name, repository.TypeBinary, false,
			[]repository.Value{repository.RawValue(repository.TypeBinary, digest)})
	})
}

func (n *node) writeProperty(ctx context.Context, name string, typ repository.PropertyType, multiple bool, values []repository.Value) error {
	if err := n.checkWritable(ctx, name); err != nil {
		return err
	}
	return n.sess.atomic(ctx, func(tx *sql.Tx) error {
		return upsertProperty(ctx, tx, n.id, name, typ, multiple, values)
	})
}

func (n *node) checkWritable(ctx context.Context, name string) error {
	if !validName(name) {
		return fmt.Errorf("%w: invalid property name %q", repository.ErrConstraintViolation, name)
	}
	protected, err := n.sess.protectedNames(ctx, n)
	if err != nil {
		return err
	}
	if protected[name] {
		return fmt.Errorf("%w: property %s is protected", repository.ErrConstraintViolation, name)
	}
	return nil
}

func upsertProperty(ctx context.Context, tx *sql.Tx, nodeID, name string, typ repository.PropertyType, multiple bool, values []repository.Value) error {
	args, err := propertyInsertArgs(nodeID, name, typ, multiple, values)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO properties (node_id, name, type, multiple, vals, search_text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id, name) DO UPDATE SET
			type = excluded.type,
			multiple = excluded.multiple,
			vals = excluded.vals,
			search_text = excluded.search_text,
			updated_at = CURRENT_TIMESTAMP
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to write property %s: %w", name, err)
	}
	return nil
}
