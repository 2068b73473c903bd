package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"repoexplorer/internal/codec"
	"repoexplorer/internal/domain"
	"repoexplorer/internal/logging"
	"repoexplorer/internal/metrics"
	"repoexplorer/internal/repository"
)

// NodeTreeReader answers read-only questions about the content tree
type NodeTreeReader struct{}

// NewNodeTreeReader creates a new reader
func NewNodeTreeReader() *NodeTreeReader {
	return &NodeTreeReader{}
}

// Resolve finds the node addressed by ref. The id wins when both are set.
func (r *NodeTreeReader) Resolve(ctx context.Context, sess repository.Session, ref domain.NodeRef) (repository.Node, error) {
	const op = "resolve node"
	if err := validateRequest(op, ref); err != nil {
		return nil, err
	}

	var (
		n   repository.Node
		err error
	)
	if id := strings.TrimSpace(ref.ID); id != "" {
		n, err = sess.NodeByIdentifier(ctx, id)
	} else {
		n, err = sess.Node(ctx, strings.TrimSpace(ref.Path))
	}
	if err != nil {
		return nil, wrapStore(op, "no node at "+ref.String(), err)
	}
	return n, nil
}

// Node returns the addressed node with its properties
func (r *NodeTreeReader) Node(ctx context.Context, sess repository.Session, ref domain.NodeRef) (_ *domain.ContentNode, err error) {
	done := metrics.Track("node")
	defer func() { done(err) }()

	n, err := r.Resolve(ctx, sess, ref)
	if err != nil {
		return nil, err
	}
	cn, err := contentNode(ctx, n)
	if err != nil {
		return nil, wrapStore("read node", "failed to read "+n.Path(), err)
	}
	return &cn, nil
}

// Children lists the direct children of the addressed node. Each child carries
// its own properties and mixins.
func (r *NodeTreeReader) Children(ctx context.Context, sess repository.Session, ref domain.NodeRef) (_ []domain.ContentNode, err error) {
	done := metrics.Track("children")
	defer func() { done(err) }()

	n, err := r.Resolve(ctx, sess, ref)
	if err != nil {
		return nil, err
	}
	return children(ctx, n)
}

func children(ctx context.Context, n repository.Node) ([]domain.ContentNode, error) {
	const op = "list children"
	kids, err := n.Nodes(ctx)
	if err != nil {
		return nil, wrapStore(op, "failed to list children of "+n.Path(), err)
	}
	out := make([]domain.ContentNode, 0, len(kids))
	for _, k := range kids {
		cn, err := contentNode(ctx, k)
		if err != nil {
			return nil, wrapStore(op, "failed to read "+k.Path(), err)
		}
		out = append(out, cn)
	}
	return out, nil
}

// Properties returns the portable properties of the addressed node keyed by name
func (r *NodeTreeReader) Properties(ctx context.Context, sess repository.Session, ref domain.NodeRef) (_ map[string]domain.PropertyValue, err error) {
	done := metrics.Track("properties")
	defer func() { done(err) }()

	n, err := r.Resolve(ctx, sess, ref)
	if err != nil {
		return nil, err
	}
	props, err := properties(ctx, n)
	if err != nil {
		return nil, wrapStore("read properties", "failed to read properties of "+n.Path(), err)
	}
	return props, nil
}

// Breadcrumb lists, for "/" and every ancestor prefix of path (path included),
// the children of that prefix. A blank path means the root.
func (r *NodeTreeReader) Breadcrumb(ctx context.Context, sess repository.Session, path string) (_ []domain.BreadcrumbLevel, err error) {
	done := metrics.Track("breadcrumb")
	defer func() { done(err) }()

	levels := make([]domain.BreadcrumbLevel, 0)
	for _, prefix := range BreadcrumbPrefixes(path) {
		n, err := sess.Node(ctx, prefix)
		if err != nil {
			return nil, wrapStore("breadcrumb", "no node at "+prefix, err)
		}
		kids, err := children(ctx, n)
		if err != nil {
			return nil, err
		}
		levels = append(levels, domain.BreadcrumbLevel{Path: prefix, Children: kids})
	}
	logging.WithContext(ctx).Debug("breadcrumb built", logging.Path(path), logging.Int("levels", len(levels)))
	return levels, nil
}

// BreadcrumbPrefixes returns "/" followed by each cumulative prefix of path,
// without trailing slashes
func BreadcrumbPrefixes(path string) []string {
	prefixes := []string{"/"}
	current := ""
	for _, seg := range strings.Split(strings.TrimSpace(path), "/") {
		if seg == "" {
			continue
		}
		current += "/" + seg
		prefixes = append(prefixes, current)
	}
	return prefixes
}

// Export renders the addressed node followed by its direct children in the
// requested format
func (r *NodeTreeReader) Export(ctx context.Context, sess repository.Session, ref domain.NodeRef, format string, w io.Writer) (err error) {
	done := metrics.Track("export")
	defer func() { done(err) }()

	exp, err := codec.ExporterFor(format)
	if err != nil {
		return err
	}
	n, err := r.Resolve(ctx, sess, ref)
	if err != nil {
		return err
	}
	self, err := contentNode(ctx, n)
	if err != nil {
		return wrapStore("export", "failed to read "+n.Path(), err)
	}
	kids, err := children(ctx, n)
	if err != nil {
		return err
	}
	if err := exp.Export(append([]domain.ContentNode{self}, kids...), w); err != nil {
		return fmt.Errorf("failed to export %s as %s: %w", n.Path(), exp.Format(), err)
	}
	return nil
}

// AvailableNodeTypes lists every registered node type name
func (r *NodeTreeReader) AvailableNodeTypes(ctx context.Context, sess repository.Session) ([]string, error) {
	defs, err := sess.NodeTypeManager().AllNodeTypes(ctx)
	if err != nil {
		return nil, domain.StoreFailure("available node types", "failed to list node types", err)
	}
	return typeNames(defs), nil
}

// MixinNodeTypes lists the registered mixin type names
func (r *NodeTreeReader) MixinNodeTypes(ctx context.Context, sess repository.Session) ([]string, error) {
	defs, err := sess.NodeTypeManager().MixinNodeTypes(ctx)
	if err != nil {
		return nil, domain.StoreFailure("mixin node types", "failed to list mixin types", err)
	}
	return typeNames(defs), nil
}

func typeNames(defs []repository.NodeTypeDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}

// SupportedLogicalTypes returns the fixed logical type enumeration
func (r *NodeTreeReader) SupportedLogicalTypes() []domain.LogicalTypeInfo {
	return domain.LogicalTypes()
}

// ============================================================================
// Projection Helpers
// ============================================================================

func contentNode(ctx context.Context, n repository.Node) (domain.ContentNode, error) {
	props, err := properties(ctx, n)
	if err != nil {
		return domain.ContentNode{}, err
	}
	mixins := n.MixinTypes()
	if mixins == nil {
		mixins = []string{}
	}
	return domain.ContentNode{
		ID:          n.Identifier(),
		Name:        n.Name(),
		Path:        n.Path(),
		PrimaryType: n.PrimaryType(),
		MixinTypes:  mixins,
		Properties:  props,
	}, nil
}

func properties(ctx context.Context, n repository.Node) (map[string]domain.PropertyValue, error) {
	props, err := n.Properties(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.PropertyValue, len(props))
	for _, p := range props {
		pv, err := codec.ToPortable(p)
		if err != nil {
			return nil, err
		}
		out[pv.Name] = pv
	}
	return out, nil
}
