// Package canvas holds the live node state shown by the browser canvas and
// records every change as a rendering intent.
package canvas

import (
	"encoding/json"
	"fmt"
	"math"

	"transitmap/internal/domain"
)

// Marker size of a station on the source drawing. Design coordinates are the
// top-left corner of the marker; the canvas positions centres.
const (
	MarkerWidth  = 8
	MarkerHeight = 8
)

// Ring placement for stations that have no design coordinates
const (
	ringMinRadius     = 150.0
	ringRadiusPerNode = 10.0
	ringGap           = 200.0
	ringStartAngle    = 3 * math.Pi / 2
)

// IntentKind names a rendering instruction for the canvas
type IntentKind string

const (
	IntentApplyPosition    IntentKind = "apply-position"
	IntentApplyLabelAnchor IntentKind = "apply-label-anchor"
	IntentHighlight        IntentKind = "set-selection-highlight"
	IntentStatusText       IntentKind = "set-status-text"
)

// Intent is one instruction for the rendering engine. On the wire each kind
// carries exactly its own fields.
type Intent struct {
	Kind      IntentKind
	StationID string
	X         float64
	Y         float64
	Anchor    domain.AnchorKey
	Style     *domain.AnchorStyle
	Stations  []string
	Text      string
}

type positionPayload struct {
	Kind      IntentKind `json:"kind"`
	StationID string     `json:"station_id"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
}

type anchorPayload struct {
	Kind      IntentKind          `json:"kind"`
	StationID string              `json:"station_id"`
	Anchor    domain.AnchorKey    `json:"anchor"`
	Style     *domain.AnchorStyle `json:"style,omitempty"`
}

type highlightPayload struct {
	Kind     IntentKind `json:"kind"`
	Stations []string   `json:"stations"`
}

type statusPayload struct {
	Kind IntentKind `json:"kind"`
	Text string     `json:"text"`
}

// MarshalJSON implements json.Marshaler
func (i Intent) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case IntentApplyPosition:
		return json.Marshal(positionPayload{Kind: i.Kind, StationID: i.StationID, X: i.X, Y: i.Y})
	case IntentApplyLabelAnchor:
		return json.Marshal(anchorPayload{Kind: i.Kind, StationID: i.StationID, Anchor: i.Anchor, Style: i.Style})
	case IntentHighlight:
		stations := i.Stations
		if stations == nil {
			stations = []string{}
		}
		return json.Marshal(highlightPayload{Kind: i.Kind, Stations: stations})
	case IntentStatusText:
		return json.Marshal(statusPayload{Kind: i.Kind, Text: i.Text})
	}
	return nil, fmt.Errorf("unknown intent kind %q", i.Kind)
}

// Graph is the live per-station state. It is not safe for concurrent use.
type Graph struct {
	ids     []string
	index   map[string]int
	entries []domain.LayoutEntry
	home    []domain.LayoutEntry
	pending []Intent
}

// New places every station of the network and returns the graph. Stations
// with coordinates sit at the centre of their marker; the rest go on a ring
// to the right of the positioned ones.
func New(n *domain.Network) *Graph {
	g := &Graph{
		ids:     make([]string, len(n.StationIDs)),
		index:   make(map[string]int, len(n.StationIDs)),
		entries: make([]domain.LayoutEntry, len(n.StationIDs)),
	}
	copy(g.ids, n.StationIDs)

	var unplaced []int
	box := newBounds()
	for i, id := range g.ids {
		g.index[id] = i
		coord, ok := n.Coordinates[id]
		if !ok {
			unplaced = append(unplaced, i)
			continue
		}
		x, y := coord.X+MarkerWidth/2, coord.Y+MarkerHeight/2
		g.entries[i] = domain.NewLayoutEntry(x, y, domain.DefaultAnchor)
		box.add(x, y)
	}

	if len(unplaced) > 0 {
		cx, cy := box.ringCentre()
		radius := math.Max(ringMinRadius, float64(len(unplaced))*ringRadiusPerNode)
		step := 2 * math.Pi / float64(len(unplaced))
		for k, i := range unplaced {
			theta := ringStartAngle + float64(k)*step
			g.entries[i] = domain.NewLayoutEntry(
				cx+radius*math.Cos(theta),
				cy+radius*math.Sin(theta),
				domain.DefaultAnchor,
			)
		}
	}

	g.home = make([]domain.LayoutEntry, len(g.entries))
	copy(g.home, g.entries)
	return g
}

// StationIDs returns station ids in network order
func (g *Graph) StationIDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Has reports whether id is a station on the canvas
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Entry returns the live position and anchor of a station
func (g *Graph) Entry(id string) (domain.LayoutEntry, bool) {
	i, ok := g.index[id]
	if !ok {
		return domain.LayoutEntry{}, false
	}
	return g.entries[i], true
}

// Home returns the position a station was first placed at
func (g *Graph) Home(id string) (domain.LayoutEntry, bool) {
	i, ok := g.index[id]
	if !ok {
		return domain.LayoutEntry{}, false
	}
	return g.home[i], true
}

// ApplyPosition moves a station. Unknown ids are ignored.
func (g *Graph) ApplyPosition(id string, x, y float64) {
	i, ok := g.index[id]
	if !ok {
		return
	}
	g.entries[i].X, g.entries[i].Y = x, y
	g.pending = append(g.pending, Intent{Kind: IntentApplyPosition, StationID: id, X: x, Y: y})
}

// ApplyLabelAnchor sets a station's label placement, resolving unknown keys
// to the default anchor.
func (g *Graph) ApplyLabelAnchor(id string, key domain.AnchorKey) {
	i, ok := g.index[id]
	if !ok {
		return
	}
	key = key.OrDefault()
	style := key.Style()
	g.entries[i].LabelPos = key
	g.pending = append(g.pending, Intent{Kind: IntentApplyLabelAnchor, StationID: id, Anchor: key, Style: &style})
}

// Highlight replaces the highlighted station set. An empty set clears it.
func (g *Graph) Highlight(ids []string) {
	set := make([]string, len(ids))
	copy(set, ids)
	g.pending = append(g.pending, Intent{Kind: IntentHighlight, Stations: set})
}

// SetStatus replaces the info panel text
func (g *Graph) SetStatus(text string) {
	g.pending = append(g.pending, Intent{Kind: IntentStatusText, Text: text})
}

// Drain returns the intents recorded since the last call, in order
func (g *Graph) Drain() []Intent {
	out := g.pending
	g.pending = nil
	return out
}

// Layout returns the live state of every station
func (g *Graph) Layout() domain.Snapshot {
	snap := make(domain.Snapshot, len(g.ids))
	for i, id := range g.ids {
		snap[id] = g.entries[i]
	}
	return snap
}

type bounds struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newBounds() *bounds {
	return &bounds{empty: true}
}

func (b *bounds) add(x, y float64) {
	if b.empty {
		b.minX, b.maxX, b.minY, b.maxY = x, x, y, y
		b.empty = false
		return
	}
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

// ringCentre sits ringGap to the right of the box, vertically centred
func (b *bounds) ringCentre() (float64, float64) {
	if b.empty {
		return ringGap, 0
	}
	return b.maxX + ringGap, b.minY + (b.maxY-b.minY)/2
}
