package domain

// LayoutEntry is one station's placement and label orientation at a point in time
type LayoutEntry struct {
	X        float64   `json:"x" yaml:"x"`
	Y        float64   `json:"y" yaml:"y"`
	LabelPos AnchorKey `json:"label_pos" yaml:"label_pos"`
}

// NewLayoutEntry creates a layout entry, normalising an unknown anchor to the default
func NewLayoutEntry(x, y float64, anchor AnchorKey) LayoutEntry {
	return LayoutEntry{
		X:        x,
		Y:        y,
		LabelPos: anchor.OrDefault(),
	}
}

// Snapshot maps station ids to layout entries. It may be partial.
type Snapshot map[string]LayoutEntry

// Clone returns a deep copy so snapshots never share backing storage
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for id, entry := range s {
		out[id] = entry
	}
	return out
}

// Equal reports whether two snapshots hold the same entries
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for id, entry := range s {
		o, ok := other[id]
		if !ok || o != entry {
			return false
		}
	}
	return true
}
