// Package service implements the explorer operations on top of a repository session.
//
// Handlers open one session per request and pass it to the services, which
// never hold sessions themselves. Every mutating operation stages its work in
// the session and commits once; on failure the staged work is discarded.
//
// # Services
//
// NodeTreeReader resolves node references and lists children, properties,
// breadcrumbs and the registered node types.
//
// SearchExecutor renders full-text, structural and relational searches and
// runs them with optional paging. Paged results carry a total count taken from
// the counting form of the same statement.
//
// MutationService adds, moves, renames, copies, cuts and deletes nodes and
// manages mixins. Bulk moves and copies record a per-entry outcome and commit
// once after the loop.
//
// PropertyEditor writes, replaces and removes properties, including streamed
// binary values.
//
// NodeTypeService registers YAML node type definitions and keeps the icon
// associations under /system/nodetype-icons.
//
// # Event System
//
// Committed mutations are published on the EventBus so connected clients can
// follow changes over Server-Sent Events.
//
// # Errors
//
// Operations return *domain.Error values. Request validation failures are
// reported before any store access.
package service
