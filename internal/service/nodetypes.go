package service

import (
	"context"
	"errors"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/loader"
	"repoexplorer/internal/logging"
	"repoexplorer/internal/metrics"
	"repoexplorer/internal/repository"
)

// Icon associations live as string properties on this node, one per type name
const (
	systemPath          = "/system"
	IconAssociationPath = systemPath + "/nodetype-icons"
)

// IconRequest associates an icon reference with a node type
type IconRequest struct {
	NodeType string `json:"nodeType" validate:"notblank"`
	IconPath string `json:"iconPath" validate:"notblank"`
}

// NodeTypeService registers node types and keeps their icon associations
type NodeTypeService struct {
	eventBus *EventBus
}

// NewNodeTypeService creates a new node type service
func NewNodeTypeService(eventBus *EventBus) *NodeTypeService {
	return &NodeTypeService{eventBus: eventBus}
}

// RegisterNodeTypes parses YAML definitions and registers them, replacing
// existing types of the same name
func (s *NodeTypeService) RegisterNodeTypes(ctx context.Context, sess repository.Session, text string) (_ bool, err error) {
	const op = "register node types"
	done := metrics.Track("register_node_types")
	defer func() { done(err) }()

	if err := validate.Var(text, "notblank"); err != nil {
		return false, domain.Invalid(op, "node type definitions are missing")
	}
	defs, err := loader.ParseYAML([]byte(text))
	if err != nil {
		return false, &domain.Error{Kind: domain.ErrInvalidArgument, Op: op, Message: "failed to parse node type definitions", Err: err}
	}
	return s.Register(ctx, sess, defs)
}

// Register stores already parsed definitions
func (s *NodeTypeService) Register(ctx context.Context, sess repository.Session, defs []repository.NodeTypeDefinition) (bool, error) {
	const op = "register node types"

	if err := sess.NodeTypeManager().RegisterNodeTypes(ctx, defs, true); err != nil {
		if errors.Is(err, repository.ErrNoSuchNodeType) || errors.Is(err, repository.ErrConstraintViolation) {
			_ = sess.Discard(ctx)
			return false, &domain.Error{Kind: domain.ErrInvalidArgument, Op: op, Message: "node type definitions rejected", Err: err}
		}
		return false, abort(ctx, sess, op, "failed to register node types", err)
	}

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventNodeTypesRegistered,
		Payload: map[string][]string{"names": names},
	}); err != nil {
		return false, err
	}
	logging.WithContext(ctx).Info("registered node types", logging.Strings("names", names))
	return true, nil
}

// AssociateTypeIcon records iconPath as the icon of an existing node type
func (s *NodeTypeService) AssociateTypeIcon(ctx context.Context, sess repository.Session, req IconRequest) (_ bool, err error) {
	const op = "associate type icon"
	done := metrics.Track("associate_type_icon")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return false, err
	}

	exists, err := sess.NodeTypeManager().HasNodeType(ctx, req.NodeType)
	if err != nil {
		return false, domain.StoreFailure(op, "failed to look up node type "+req.NodeType, err)
	}
	if !exists {
		return false, domain.NotFound(op, "node type does not exist: "+req.NodeType, nil)
	}

	icons, err := s.iconNode(ctx, sess)
	if err != nil {
		return false, abort(ctx, sess, op, "failed to prepare "+IconAssociationPath, err)
	}
	if err := icons.SetProperty(ctx, req.NodeType, repository.StringValue(req.IconPath)); err != nil {
		return false, abort(ctx, sess, op, "failed to associate icon with "+req.NodeType, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventTypeIconAssociated,
		Payload: map[string]string{"node_type": req.NodeType, "icon_path": req.IconPath},
	}); err != nil {
		return false, err
	}
	logging.WithContext(ctx).Info("associated icon with node type",
		logging.String("node_type", req.NodeType),
		logging.String("icon_path", req.IconPath))
	return true, nil
}

// iconNode returns the association node, creating it and its parent on first use
func (s *NodeTypeService) iconNode(ctx context.Context, sess repository.Session) (repository.Node, error) {
	exists, err := sess.NodeExists(ctx, IconAssociationPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return sess.Node(ctx, IconAssociationPath)
	}

	root, err := sess.RootNode(ctx)
	if err != nil {
		return nil, err
	}
	var system repository.Node
	hasSystem, err := root.HasNode(ctx, "system")
	if err != nil {
		return nil, err
	}
	if hasSystem {
		system, err = sess.Node(ctx, systemPath)
	} else {
		system, err = root.AddNode(ctx, "system", "nt:folder")
	}
	if err != nil {
		return nil, err
	}
	return system.AddNode(ctx, "nodetype-icons", "nt:unstructured")
}

// TypeIcons returns the recorded icon per node type
func (s *NodeTypeService) TypeIcons(ctx context.Context, sess repository.Session) (map[string]string, error) {
	const op = "type icons"

	icons := make(map[string]string)
	exists, err := sess.NodeExists(ctx, IconAssociationPath)
	if err != nil {
		return nil, domain.StoreFailure(op, "failed to read "+IconAssociationPath, err)
	}
	if !exists {
		return icons, nil
	}
	n, err := sess.Node(ctx, IconAssociationPath)
	if err != nil {
		return nil, wrapStore(op, "failed to read "+IconAssociationPath, err)
	}
	props, err := n.Properties(ctx)
	if err != nil {
		return nil, wrapStore(op, "failed to read "+IconAssociationPath, err)
	}
	for _, p := range props {
		if p.IsProtected() || p.IsMultiple() || p.Type() != repository.TypeString {
			continue
		}
		v, err := p.Value()
		if err != nil {
			continue
		}
		icons[p.Name()] = v.String()
	}
	return icons, nil
}
