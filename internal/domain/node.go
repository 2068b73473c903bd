package domain

import "strings"

// ContentNode is a read projection of a node in the content tree
type ContentNode struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Path        string                   `json:"path"`
	PrimaryType string                   `json:"primaryType"`
	MixinTypes  []string                 `json:"mixinTypes"`
	Properties  map[string]PropertyValue `json:"properties,omitempty"`
}

// HasMixin reports whether the node carries the given mixin type
func (n *ContentNode) HasMixin(mixin string) bool {
	for _, m := range n.MixinTypes {
		if m == mixin {
			return true
		}
	}
	return false
}

// Property returns the named property
func (n *ContentNode) Property(name string) (PropertyValue, bool) {
	if n.Properties == nil {
		return PropertyValue{}, false
	}
	p, ok := n.Properties[name]
	return p, ok
}

// NodeRef addresses a node by id or by path. The id wins when both are set.
type NodeRef struct {
	Path string `json:"path" form:"path"`
	ID   string `json:"id" form:"id"`
}

// IsBlank reports whether neither path nor id carries text
func (r NodeRef) IsBlank() bool {
	return strings.TrimSpace(r.Path) == "" && strings.TrimSpace(r.ID) == ""
}

func (r NodeRef) String() string {
	if strings.TrimSpace(r.ID) != "" {
		return "id:" + r.ID
	}
	return r.Path
}

// BreadcrumbLevel lists the children of one prefix of a path
type BreadcrumbLevel struct {
	Path     string        `json:"path"`
	Children []ContentNode `json:"children"`
}
