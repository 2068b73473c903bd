package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/logging"
	"repoexplorer/internal/metrics"
	"repoexplorer/internal/repository"
)

// AddNodeRequest describes a new child node
type AddNodeRequest struct {
	ParentPath  string   `json:"parentPath" validate:"notblank"`
	Name        string   `json:"name" validate:"notblank"`
	PrimaryType string   `json:"primaryType" validate:"notblank"`
	MixinTypes  []string `json:"mixinTypes,omitempty" validate:"omitempty,dive,notblank"`
}

// MixinRequest names a mixin on a node
type MixinRequest struct {
	Path      string `json:"path" form:"path" validate:"notblank"`
	MixinType string `json:"mixinType" form:"mixinType" validate:"notblank"`
}

// TransferRequest moves or copies Source below the Destination parent
type TransferRequest struct {
	Source      string `json:"sourcePath" validate:"notblank"`
	Destination string `json:"destinationPath" validate:"notblank"`
}

// RenameRequest gives Source a new last segment
type RenameRequest struct {
	Source  string `json:"sourcePath" validate:"notblank"`
	NewName string `json:"newName" validate:"notblank"`
}

// DeleteRequest removes the item at Path
type DeleteRequest struct {
	Path string `json:"path" form:"path" validate:"notblank"`
}

// MutationService performs structural changes. Each operation commits once
// and publishes an event after the commit succeeds.
type MutationService struct {
	eventBus *EventBus
}

// NewMutationService creates a new mutation service
func NewMutationService(eventBus *EventBus) *MutationService {
	return &MutationService{eventBus: eventBus}
}

// AddNode creates a node below the parent and assigns the requested mixins
func (s *MutationService) AddNode(ctx context.Context, sess repository.Session, req AddNodeRequest) (_ string, err error) {
	const op = "add node"
	done := metrics.Track("add_node")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}

	parent, err := nodeAt(ctx, sess, op, req.ParentPath)
	if err != nil {
		return "", err
	}
	child, err := parent.AddNode(ctx, req.Name, req.PrimaryType)
	if err != nil {
		return "", abort(ctx, sess, op, "node not added at "+req.ParentPath, err)
	}
	for _, mixin := range req.MixinTypes {
		if err := child.AddMixin(ctx, mixin); err != nil {
			return "", abort(ctx, sess, op, "mixin "+mixin+" not added to "+child.Path(), err)
		}
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventNodeAdded,
		Payload: map[string]string{"path": child.Path(), "id": child.Identifier(), "primary_type": child.PrimaryType()},
	}); err != nil {
		return "", err
	}
	return "New node successfully created.", nil
}

// AddMixin assigns a mixin type to the node at path
func (s *MutationService) AddMixin(ctx context.Context, sess repository.Session, req MixinRequest) (_ string, err error) {
	const op = "add mixin"
	done := metrics.Track("add_mixin")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	n, err := nodeAt(ctx, sess, op, req.Path)
	if err != nil {
		return "", err
	}
	if err := n.AddMixin(ctx, req.MixinType); err != nil {
		return "", abort(ctx, sess, op, "mixin type not added to "+req.Path, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventMixinAdded,
		Payload: map[string]string{"path": n.Path(), "mixin_type": req.MixinType},
	}); err != nil {
		return "", err
	}
	return "Mixin type successfully added.", nil
}

// RemoveMixin removes a mixin type from the node at path
func (s *MutationService) RemoveMixin(ctx context.Context, sess repository.Session, req MixinRequest) (_ string, err error) {
	const op = "remove mixin"
	done := metrics.Track("remove_mixin")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	n, err := nodeAt(ctx, sess, op, req.Path)
	if err != nil {
		return "", err
	}
	if err := n.RemoveMixin(ctx, req.MixinType); err != nil {
		return "", abort(ctx, sess, op, "mixin type not removed from "+req.Path, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventMixinRemoved,
		Payload: map[string]string{"path": n.Path(), "mixin_type": req.MixinType},
	}); err != nil {
		return "", err
	}
	return "Mixin type successfully removed.", nil
}

// Move relocates Source so it becomes a child of Destination
func (s *MutationService) Move(ctx context.Context, sess repository.Session, req TransferRequest) (_ string, err error) {
	const op = "move node"
	done := metrics.Track("move")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	target := TargetPath(req.Source, req.Destination)
	if err := sess.Move(ctx, req.Source, target); err != nil {
		return "", abort(ctx, sess, op, "node not moved from "+req.Source, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventNodeMoved,
		Payload: map[string]string{"source": req.Source, "target": target},
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully moved. %s to %s", req.Source, req.Destination), nil
}

// Rename replaces the last segment of Source with NewName
func (s *MutationService) Rename(ctx context.Context, sess repository.Session, req RenameRequest) (_ string, err error) {
	const op = "rename node"
	done := metrics.Track("rename")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	slash := strings.LastIndex(req.Source, "/")
	oldName := req.Source[slash+1:]
	newPath := req.Source[:slash+1] + req.NewName
	if err := sess.Move(ctx, req.Source, newPath); err != nil {
		return "", abort(ctx, sess, op, "node not renamed at "+req.Source, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventNodeRenamed,
		Payload: map[string]string{"source": req.Source, "target": newPath},
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully renamed from %s to %s", oldName, req.NewName), nil
}

// Copy duplicates the subtree at Source as a child of Destination
func (s *MutationService) Copy(ctx context.Context, sess repository.Session, req TransferRequest) (_ string, err error) {
	const op = "copy node"
	done := metrics.Track("copy")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	target := TargetPath(req.Source, req.Destination)
	if err := sess.Copy(ctx, req.Source, target); err != nil {
		return "", abort(ctx, sess, op, "node not copied from "+req.Source, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventNodeCopied,
		Payload: map[string]string{"source": req.Source, "target": target},
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully copied %s to %s", req.Source, req.Destination), nil
}

// CutAndPaste copies Source below Destination and removes the original.
// Both steps are committed together; nothing is kept when either fails.
func (s *MutationService) CutAndPaste(ctx context.Context, sess repository.Session, req TransferRequest) (_ string, err error) {
	const op = "cut and paste node"
	done := metrics.Track("cut_paste")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	target := TargetPath(req.Source, req.Destination)
	if err := sess.Copy(ctx, req.Source, target); err != nil {
		return "", abort(ctx, sess, op, "node not cut from "+req.Source, err)
	}
	src, err := sess.Item(ctx, req.Source)
	if err != nil {
		return "", abort(ctx, sess, op, "node not cut from "+req.Source, err)
	}
	if err := src.Remove(ctx); err != nil {
		return "", abort(ctx, sess, op, "node not cut from "+req.Source, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventNodeCutPasted,
		Payload: map[string]string{"source": req.Source, "target": target},
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully cut and pasted %s to %s", req.Source, req.Destination), nil
}

// DeleteNode removes the item at path with its subtree
func (s *MutationService) DeleteNode(ctx context.Context, sess repository.Session, req DeleteRequest) (_ string, err error) {
	const op = "delete node"
	done := metrics.Track("delete")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	item, err := sess.Item(ctx, req.Path)
	if err != nil {
		return "", wrapStore(op, "no item at "+req.Path, err)
	}
	if err := item.Remove(ctx); err != nil {
		return "", abort(ctx, sess, op, "node not deleted at "+req.Path, err)
	}
	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    EventNodeDeleted,
		Payload: map[string]string{"path": req.Path},
	}); err != nil {
		return "", err
	}
	return "Successfully deleted. " + req.Path, nil
}

// ============================================================================
// Bulk Operations
// ============================================================================

// BulkMove moves every source below its destination parent
func (s *MutationService) BulkMove(ctx context.Context, sess repository.Session, entries map[string]string) (*domain.BulkResult, error) {
	return s.bulk(ctx, sess, "move", entries, func(ctx context.Context, src, dest string) error {
		return sess.Move(ctx, src, dest)
	}, EventNodesBulkMoved)
}

// BulkCopy copies every source below its destination parent
func (s *MutationService) BulkCopy(ctx context.Context, sess repository.Session, entries map[string]string) (*domain.BulkResult, error) {
	return s.bulk(ctx, sess, "copy", entries, func(ctx context.Context, src, dest string) error {
		return sess.Copy(ctx, src, dest)
	}, EventNodesBulkCopied)
}

// bulk stages each entry in source order and commits once. Entry failures are
// recorded in the result; only an empty request or a failed commit is an error.
func (s *MutationService) bulk(
	ctx context.Context,
	sess repository.Session,
	operation string,
	entries map[string]string,
	transfer func(ctx context.Context, src, dest string) error,
	eventType EventType,
) (_ *domain.BulkResult, err error) {
	op := "bulk " + operation
	done := metrics.Track("bulk_" + operation)
	defer func() { done(err) }()

	if len(entries) == 0 {
		return nil, &domain.Error{Kind: domain.ErrEmptyRequest, Op: op, Message: "no nodes specified for " + operation}
	}

	sources := make([]string, 0, len(entries))
	for src := range entries {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	log := logging.WithContext(ctx)
	result := domain.NewBulkResult(operation)
	for _, src := range sources {
		entry := domain.BulkEntry{Source: src, Destination: entries[src]}
		if strings.TrimSpace(entry.Source) == "" || strings.TrimSpace(entry.Destination) == "" {
			log.Warn("bulk entry skipped",
				logging.String("operation", operation),
				logging.String("source", entry.Source),
				logging.String("destination", entry.Destination))
			result.Fail(entry, "source and destination are required")
			continue
		}

		entry.Target = TargetPath(entry.Source, entry.Destination)
		if err := transfer(ctx, entry.Source, entry.Target); err != nil {
			log.Error("bulk entry failed",
				logging.String("operation", operation),
				logging.String("source", entry.Source),
				logging.String("destination", entry.Destination),
				logging.Err(err))
			result.Fail(entry, err.Error())
			continue
		}
		result.Succeed(entry)
	}

	metrics.RecordBulkEntries(operation, result.SucceededCount(), result.FailedCount())

	if err := commit(ctx, sess, s.eventBus, op, Event{
		Type:    eventType,
		Payload: map[string]string{"summary": result.Summary()},
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================================================
// Helpers
// ============================================================================

// TargetPath returns the path source takes when placed below destination.
// A same-name sibling index on the source name is dropped.
func TargetPath(source, destination string) string {
	name := source[strings.LastIndex(source, "/")+1:]
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if destination == "/" {
		return destination + name
	}
	return destination + "/" + name
}

// nodeAt resolves path to a node, rejecting properties
func nodeAt(ctx context.Context, sess repository.Session, op, path string) (repository.Node, error) {
	item, err := sess.Item(ctx, path)
	if err != nil {
		return nil, wrapStore(op, "no item at "+path, err)
	}
	n, ok := item.(repository.Node)
	if !ok || !item.IsNode() {
		return nil, domain.Invalid(op, path+" is not a node")
	}
	return n, nil
}

// commit saves the session and publishes evt once the changes are durable
func commit(ctx context.Context, sess repository.Session, bus *EventBus, op string, evt Event) error {
	if err := sess.Save(ctx); err != nil {
		return abort(ctx, sess, op, "failed to save changes", err)
	}
	bus.Publish(evt)
	return nil
}

// abort drops staged work and classifies err
func abort(ctx context.Context, sess repository.Session, op, message string, err error) error {
	log := logging.WithContext(ctx)
	log.Error(op+" failed", logging.String("reason", message), logging.Err(err))
	if derr := sess.Discard(ctx); derr != nil {
		log.Error("failed to discard staged changes", logging.Err(derr))
	}
	return wrapStore(op, message, err)
}
