// Package handler implements the HTTP boundary of the explorer API.
//
// Routes live under /api/explorer and are served by gin. Each request runs on
// its own repository session: the session is opened before the route handler
// and logged out after it returns, so staged changes never outlive a request.
//
// # Binding
//
// Query strings and JSON bodies are bound with gin and validated with the same
// validator the services use. A node reference needs a path or an id; search
// text must not be blank.
//
// # Response Format
//
// Success responses return JSON with 200 (201 for creations). Mutations answer
// with {message}. Paged searches set X-Total-Count.
//
// Error responses return {error, details, kind, reason}. The kind names the
// error class (invalid_argument, not_found, ...) and the reason is the
// per-route code, for example explorer.error.failed.fetch.root. Not found maps
// to 404; every other classified failure maps to 400.
//
// # Server-Sent Events
//
// NewRouter can mount the change stream at /api/explorer/events so clients
// receive committed mutations as they happen.
package handler
