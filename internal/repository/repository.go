package repository

import (
	"context"
	"io"
)

// Repository hands out sessions on the content store
type Repository interface {
	// Login opens a new session
	Login(ctx context.Context) (Session, error)

	// Close releases resources
	Close() error
}

// Session is a request-scoped view of the content tree with staged changes
type Session interface {
	// Read operations
	RootNode(ctx context.Context) (Node, error)
	Node(ctx context.Context, path string) (Node, error)
	NodeByIdentifier(ctx context.Context, id string) (Node, error)
	Item(ctx context.Context, path string) (Item, error)
	NodeExists(ctx context.Context, path string) (bool, error)

	// Workspace operations, staged until Save
	Move(ctx context.Context, srcPath, destPath string) error
	Copy(ctx context.Context, srcPath, destPath string) error

	// Save commits staged changes
	Save(ctx context.Context) error
	// Discard drops staged changes
	Discard(ctx context.Context) error

	QueryManager() QueryManager
	NodeTypeManager() NodeTypeManager

	// Logout releases the session, dropping anything not saved
	Logout()
}

// Item is a node or a property
type Item interface {
	Path() string
	Name() string
	IsNode() bool
	Remove(ctx context.Context) error
}

// Node is an item with children, mixins and properties
type Node interface {
	Item

	Identifier() string
	PrimaryType() string
	MixinTypes() []string

	Nodes(ctx context.Context) ([]Node, error)
	HasNode(ctx context.Context, name string) (bool, error)
	Properties(ctx context.Context) ([]Property, error)
	Property(ctx context.Context, name string) (Property, error)

	AddNode(ctx context.Context, name, primaryType string) (Node, error)
	AddMixin(ctx context.Context, mixin string) error
	RemoveMixin(ctx context.Context, mixin string) error

	SetProperty(ctx context.Context, name string, value Value) error
	SetPropertyValues(ctx context.Context, name string, typ PropertyType, values []Value) error
	SetBinaryProperty(ctx context.Context, name string, r io.Reader) error
}

// Property is an item holding one or more values
type Property interface {
	Item

	Type() PropertyType
	IsMultiple() bool
	IsProtected() bool
	// Value returns the single value; it fails for multi-valued properties
	Value() (Value, error)
	Values() []Value
}

// Query languages
const (
	LanguageSQL2  = "JCR-SQL2"
	LanguageXPath = "xpath"
)

// Query is a statement with optional paging. Zero Limit means unlimited.
type Query struct {
	Statement string
	Language  string
	Limit     int64
	Offset    int64
}

// QueryResult holds matched nodes. Size is the row count for count statements
// and the number of returned nodes otherwise.
type QueryResult struct {
	Nodes []Node
	Size  int64
}

// QueryManager executes statements against the session's view
type QueryManager interface {
	Execute(ctx context.Context, q Query) (*QueryResult, error)
}

// NodeTypeManager exposes and extends the registered node types
type NodeTypeManager interface {
	AllNodeTypes(ctx context.Context) ([]NodeTypeDefinition, error)
	MixinNodeTypes(ctx context.Context) ([]NodeTypeDefinition, error)
	HasNodeType(ctx context.Context, name string) (bool, error)
	RegisterNodeTypes(ctx context.Context, defs []NodeTypeDefinition, allowUpdate bool) error
}

// NodeTypeDefinition describes a primary or mixin node type
type NodeTypeDefinition struct {
	Name        string               `json:"name" yaml:"name"`
	Mixin       bool                 `json:"mixin,omitempty" yaml:"mixin,omitempty"`
	Abstract    bool                 `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Supertypes  []string             `json:"supertypes,omitempty" yaml:"supertypes,omitempty"`
	PrimaryItem string               `json:"primaryItem,omitempty" yaml:"primary_item,omitempty"`
	Properties  []PropertyDefinition `json:"properties,omitempty" yaml:"properties,omitempty"`
	ChildNodes  []ChildDefinition    `json:"childNodes,omitempty" yaml:"child_nodes,omitempty"`
}

// PropertyDefinition declares a property on a node type
type PropertyDefinition struct {
	Name         string `json:"name" yaml:"name"`
	RequiredType string `json:"requiredType,omitempty" yaml:"type,omitempty"`
	Multiple     bool   `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Mandatory    bool   `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	Protected    bool   `json:"protected,omitempty" yaml:"protected,omitempty"`
}

// ChildDefinition declares an allowed child node on a node type
type ChildDefinition struct {
	Name          string   `json:"name" yaml:"name"`
	RequiredTypes []string `json:"requiredTypes,omitempty" yaml:"required_types,omitempty"`
	DefaultType   string   `json:"defaultType,omitempty" yaml:"default_type,omitempty"`
	Mandatory     bool     `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
}
