// Package service implements the interactive session behind the transit map.
//
// A Session owns the live canvas state, the version controller and the path
// selector for one map. HTTP handlers and the inbox watcher call into it
// concurrently; a mutex makes every user event run to completion before the
// next one starts, so the core sees a single logical UI thread.
//
// # Events
//
// Each user event produces an ordered batch of canvas intents (positions,
// label anchors, highlight set, status text). The batch is published on the
// EventBus as one EventIntents event; version changes are published as
// EventVersionsChanged with the new VersionView. The SSE hub forwards both
// to connected browsers.
//
// # Design Principles
//
// - The core packages never block on I/O other than the snapshot store
// - Auto-save failures are reported, never fatal
// - Context-aware for cancellation and timeouts
package service
