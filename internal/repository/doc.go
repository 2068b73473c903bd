// Package repository defines the session-handle contract the explorer consumes.
//
// A Repository hands out Sessions. A Session exposes the content tree as
// Items: Nodes, which have children, mixins and properties, and Properties,
// which hold one or more typed Values. Changes made through a Session are
// staged until Save and dropped by Discard or Logout.
//
// # Values
//
// Value pairs a PropertyType tag with a canonical lexical form. The typed
// constructors (BooleanValue, DateValue, ...) and NewValue, which parses a
// string for a declared type, are the only ways to build one.
//
// # Queries
//
// QueryManager executes JCR-SQL2 and XPath statements. Count statements
// (SELECT COUNT(*) ... or COUNT(...)) report the row count in
// QueryResult.Size and return no nodes.
//
// # SQLite Implementation
//
// The sqlite subpackage provides the reference store used by the server
// and by tests.
package repository
