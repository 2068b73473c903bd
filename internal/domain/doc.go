// Package domain defines the portable types returned by the content repository explorer.
//
// Everything in this package is a transient projection of the underlying store: values are
// rebuilt on every read and are never cached. The store's own live objects are described by
// the repository package; the codec package converts between the two.
//
// # Core Types
//
// ContentNode is an addressable item of the content tree, identified by path and by a stable
// store-assigned id, carrying a primary type, mixin types and properties.
//
// PropertyValue is a named, typed value or ordered list of values. Each element is a
// TypedScalar that only carries the field relevant to its type.
//
// SearchResult wraps a page of search hits with the total count reported by the store.
//
// BulkResult reports per-entry outcomes of bulk move and copy operations.
//
// # Errors
//
// Error carries one of the kinds ErrInvalidArgument, ErrNotFound, ErrUnsupportedType,
// ErrStore, ErrPartialFailure or ErrEmptyRequest so callers can branch with errors.Is
// instead of inspecting messages.
//
// # Design Principles
//
// - Plain data, JSON-serialisable
// - No database or transport dependencies
// - Closed enumerations for property and logical types
package domain
