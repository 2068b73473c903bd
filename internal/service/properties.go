package service

import (
	"context"
	"io"
	"sort"

	"repoexplorer/internal/codec"
	"repoexplorer/internal/domain"
	"repoexplorer/internal/metrics"
	"repoexplorer/internal/repository"
)

// PropertyRequest writes one property on the node at Path
type PropertyRequest struct {
	Path  string               `json:"path" validate:"notblank"`
	Name  string               `json:"name" validate:"notblank"`
	Value domain.PropertyValue `json:"value"`
}

// PropertyRef names one property on the node at Path
type PropertyRef struct {
	Path string `json:"path" form:"path" validate:"notblank"`
	Name string `json:"name" form:"name" validate:"notblank"`
}

// SavePropertiesRequest writes every property carried by Node onto Path
type SavePropertiesRequest struct {
	Path string             `json:"path" validate:"notblank"`
	Node domain.ContentNode `json:"node"`
}

// PropertyEditor writes and removes node properties
type PropertyEditor struct {
	eventBus *EventBus
}

// NewPropertyEditor creates a new property editor
func NewPropertyEditor(eventBus *EventBus) *PropertyEditor {
	return &PropertyEditor{eventBus: eventBus}
}

// AddProperty creates the named property on the node at path
func (e *PropertyEditor) AddProperty(ctx context.Context, sess repository.Session, req PropertyRequest) (_ string, err error) {
	done := metrics.Track("add_property")
	defer func() { done(err) }()

	if err := e.write(ctx, sess, "add property", req); err != nil {
		return "", err
	}
	return "Successfully added new property at " + req.Path, nil
}

// SaveProperty overwrites the named property on the node at path
func (e *PropertyEditor) SaveProperty(ctx context.Context, sess repository.Session, req PropertyRequest) (_ string, err error) {
	done := metrics.Track("save_property")
	defer func() { done(err) }()

	if err := e.write(ctx, sess, "save property", req); err != nil {
		return "", err
	}
	return "Successfully saved property " + req.Path, nil
}

func (e *PropertyEditor) write(ctx context.Context, sess repository.Session, op string, req PropertyRequest) error {
	if err := validateRequest(op, req); err != nil {
		return err
	}
	n, err := nodeAt(ctx, sess, op, req.Path)
	if err != nil {
		return err
	}
	if err := codec.ToNative(ctx, n, req.Name, req.Value); err != nil {
		return abort(ctx, sess, op, "property "+req.Name+" not saved at "+req.Path, err)
	}
	return commit(ctx, sess, e.eventBus, op, Event{
		Type:    EventPropertySaved,
		Payload: map[string]string{"path": req.Path, "name": req.Name},
	})
}

// SaveProperties applies every writable property of req.Node, keyed by each
// value's own name, and commits once. Read-only entries are skipped.
func (e *PropertyEditor) SaveProperties(ctx context.Context, sess repository.Session, req SavePropertiesRequest) (_ string, err error) {
	const op = "save properties"
	done := metrics.Track("save_properties")
	defer func() { done(err) }()

	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	n, err := nodeAt(ctx, sess, op, req.Path)
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(req.Node.Properties))
	for key := range req.Node.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pv := req.Node.Properties[key]
		if pv.ReadOnly {
			continue
		}
		name := pv.Name
		if name == "" {
			name = key
		}
		if err := codec.ToNative(ctx, n, name, pv); err != nil {
			return "", abort(ctx, sess, op, "property "+name+" not saved at "+req.Path, err)
		}
	}
	if err := commit(ctx, sess, e.eventBus, op, Event{
		Type:    EventPropertiesSaved,
		Payload: map[string]string{"path": req.Path},
	}); err != nil {
		return "", err
	}
	return "Successfully saved. " + req.Path, nil
}

// DeleteProperty removes the named property from the node at path
func (e *PropertyEditor) DeleteProperty(ctx context.Context, sess repository.Session, ref PropertyRef) (_ string, err error) {
	const op = "delete property"
	done := metrics.Track("delete_property")
	defer func() { done(err) }()

	if err := validateRequest(op, ref); err != nil {
		return "", err
	}
	n, err := nodeAt(ctx, sess, op, ref.Path)
	if err != nil {
		return "", err
	}
	p, err := n.Property(ctx, ref.Name)
	if err != nil {
		return "", wrapStore(op, "no property "+ref.Name+" at "+ref.Path, err)
	}
	if err := p.Remove(ctx); err != nil {
		return "", abort(ctx, sess, op, "property "+ref.Name+" not deleted at "+ref.Path, err)
	}
	if err := commit(ctx, sess, e.eventBus, op, Event{
		Type:    EventPropertyDeleted,
		Payload: map[string]string{"path": ref.Path, "name": ref.Name},
	}); err != nil {
		return "", err
	}
	return "Successfully deleted " + ref.Name + " property at " + ref.Path, nil
}

// SaveBinaryProperty streams r into the named binary property
func (e *PropertyEditor) SaveBinaryProperty(ctx context.Context, sess repository.Session, ref PropertyRef, r io.Reader) (_ string, err error) {
	const op = "save binary property"
	done := metrics.Track("save_binary_property")
	defer func() { done(err) }()

	if err := validateRequest(op, ref); err != nil {
		return "", err
	}
	if r == nil {
		return "", domain.Invalid(op, "binary content is missing")
	}
	n, err := nodeAt(ctx, sess, op, ref.Path)
	if err != nil {
		return "", err
	}
	if err := n.SetBinaryProperty(ctx, ref.Name, r); err != nil {
		return "", abort(ctx, sess, op, "binary property "+ref.Name+" not saved at "+ref.Path, err)
	}
	if err := commit(ctx, sess, e.eventBus, op, Event{
		Type:    EventPropertySaved,
		Payload: map[string]string{"path": ref.Path, "name": ref.Name, "type": string(domain.PropertyTypeBinary)},
	}); err != nil {
		return "", err
	}
	return "Successfully saved. " + ref.Path, nil
}
