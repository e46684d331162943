// Package handler implements the HTTP API of the transit map server.
//
// # Handlers
//
// MapHandler exposes the session: reference network, live layout, version
// operations and the canvas events (drag release, station tap, background
// tap, label keypress). Every mutating call returns the state the toolbar or
// info panel needs; the same state is also pushed over /events.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure. Malformed
// layout imports are 400, unknown stations 404.
//
// # Middleware
//
// NewRouter installs chi's request id and panic recovery, a zap request
// logger, Prometheus request metrics and CORS.
package handler
