package domain

// StationKind is the dataset a station was loaded from
type StationKind string

const (
	StationKindMetro     StationKind = "metro"
	StationKindTram      StationKind = "tram"
	StationKindFunicular StationKind = "funicular"
	StationKindMetrobus  StationKind = "metrobus"
)

// Station is a stop on one or more lines
type Station struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Lines     []string      `json:"lines,omitempty" yaml:"lines,omitempty"`
	Transfers []string      `json:"transfers,omitempty" yaml:"transfers,omitempty"`
	Notes     string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Kinds     []StationKind `json:"kinds,omitempty" yaml:"-"`
}

// DisplayName returns the station name, or its id when unnamed
func (s *Station) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Interchange reports whether passengers can change lines here
func (s *Station) Interchange() bool {
	return len(s.Lines) > 1 || len(s.Transfers) > 0
}

// HasKind reports whether the station belongs to the given dataset
func (s *Station) HasKind(kind StationKind) bool {
	for _, k := range s.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Merge folds another record for the same station id into s.
// Lines and kinds are unioned; the first non-empty name and notes win.
func (s *Station) Merge(other *Station) {
	if s.Name == "" {
		s.Name = other.Name
	}
	if s.Notes == "" {
		s.Notes = other.Notes
	}
	s.Lines = unionStrings(s.Lines, other.Lines)
	s.Transfers = unionStrings(s.Transfers, other.Transfers)
	for _, k := range other.Kinds {
		if !s.HasKind(k) {
			s.Kinds = append(s.Kinds, k)
		}
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Branch is a named alternative sequence of a line
type Branch struct {
	Key      string   `json:"key"`
	Stations []string `json:"stations"`
}

// Line is an ordered main sequence of stations plus optional branches.
// Branches keep the order they were declared in.
type Line struct {
	ID       string      `json:"id"`
	Kind     StationKind `json:"kind,omitempty"`
	Stations []string    `json:"stations"`
	Branches []Branch    `json:"branches,omitempty"`
	Color    string      `json:"color,omitempty"`
}

// Sequences returns the main sequence followed by every branch, in scan order
func (l *Line) Sequences() []Sequence {
	seqs := make([]Sequence, 0, 1+len(l.Branches))
	seqs = append(seqs, Sequence{LineID: l.ID, Stations: l.Stations})
	for _, b := range l.Branches {
		seqs = append(seqs, Sequence{LineID: l.ID, BranchKey: b.Key, Stations: b.Stations})
	}
	return seqs
}

// Sequence is one ordered run of stations: a line's main sequence or one of its branches
type Sequence struct {
	LineID    string
	BranchKey string // empty for the main sequence
	Stations  []string
}

// IndexOf returns the position of id in the sequence, or -1
func (s Sequence) IndexOf(id string) int {
	for i, st := range s.Stations {
		if st == id {
			return i
		}
	}
	return -1
}

// Coordinate is a station's design-time position on the source drawing
type Coordinate struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Fill string  `json:"figmaFill,omitempty" yaml:"fill,omitempty"`
}

// Network is the immutable reference data for one session
type Network struct {
	Stations    map[string]*Station   `json:"stations"`
	StationIDs  []string              `json:"station_ids"`
	Lines       []*Line               `json:"lines"`
	Coordinates map[string]Coordinate `json:"coordinates"`
	Colors      map[string]string     `json:"colors"`
}

// NewNetwork creates an empty network
func NewNetwork() *Network {
	return &Network{
		Stations:    make(map[string]*Station),
		Coordinates: make(map[string]Coordinate),
		Colors:      make(map[string]string),
	}
}

// AddStation inserts a station or merges it into an existing one with the same id
func (n *Network) AddStation(s *Station) {
	if existing, ok := n.Stations[s.ID]; ok {
		existing.Merge(s)
		return
	}
	n.Stations[s.ID] = s
	n.StationIDs = append(n.StationIDs, s.ID)
}

// Station looks up a station by id
func (n *Network) Station(id string) (*Station, bool) {
	s, ok := n.Stations[id]
	return s, ok
}

// StationName returns the display name for id, or id itself when unknown
func (n *Network) StationName(id string) string {
	if s, ok := n.Stations[id]; ok {
		return s.DisplayName()
	}
	return id
}

// LineColor resolves a line colour with the DEFAULT entry and a grey fallback
func (n *Network) LineColor(lineID string) string {
	if c, ok := n.Colors[lineID]; ok && c != "" {
		return c
	}
	if c, ok := n.Colors["DEFAULT"]; ok && c != "" {
		return c
	}
	return "#CCCCCC"
}
