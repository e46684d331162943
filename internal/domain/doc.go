// Package domain defines the core types of the transit map: stations, lines,
// the reference network, and the layout data that versions are made of.
//
// # Reference Data
//
// Station, Line and Network describe the transit system. A Line has a main
// sequence and zero or more named branches; Sequences exposes them in scan
// order (main first, then branches in declaration order). Network merges the
// station records of every dataset (metro, tram, funicular, metrobus) into a
// single node per station id.
//
// # Layout Data
//
// LayoutEntry is one station's {x, y, label_pos}. A Snapshot maps station ids
// to entries and may be partial. SnapshotID is either OriginalID or a
// time-ordered ULID-based id.
//
// # Label Anchors
//
// AnchorKey enumerates the nine label placements (compass points plus centre)
// and maps each to an AnchorStyle. AnchorForKeypress translates the WASD-style
// direction keys used for label editing.
//
// # Design Principles
//
// - No database or transport dependencies
// - Snapshots are copied, never shared between owners
package domain
