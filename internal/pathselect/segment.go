package pathselect

import (
	"strings"

	"transitmap/internal/domain"
)

// Segment is a contiguous run of stations on one line sequence
type Segment struct {
	LineID    string
	BranchKey string
	// Stations runs from the first endpoint to the second, inclusive
	Stations []string
}

// Hops is the number of edges in the segment
func (s Segment) Hops() int {
	if len(s.Stations) == 0 {
		return 0
	}
	return len(s.Stations) - 1
}

// ShortestSegment finds the shortest same-line run between a and b. Every
// main sequence and branch is scanned in line order; on equal length the
// first one found wins. The result is ordered from a to b. It returns
// domain.ErrNoPath when no single sequence contains both stations.
func ShortestSegment(lines []*domain.Line, a, b string) (Segment, error) {
	var (
		best  Segment
		found bool
	)
	for _, line := range lines {
		for _, seq := range line.Sequences() {
			ia, ib := seq.IndexOf(a), seq.IndexOf(b)
			if ia < 0 || ib < 0 {
				continue
			}
			hops := ia - ib
			if hops < 0 {
				hops = -hops
			}
			if found && hops >= best.Hops() {
				continue
			}
			best = Segment{
				LineID:    seq.LineID,
				BranchKey: seq.BranchKey,
				Stations:  between(seq.Stations, ia, ib),
			}
			found = true
		}
	}
	if !found {
		return Segment{}, domain.ErrNoPath
	}
	return best, nil
}

// between copies stations[from..to] inclusive, reversed when from > to
func between(stations []string, from, to int) []string {
	if from <= to {
		out := make([]string, to-from+1)
		copy(out, stations[from:to+1])
		return out
	}
	out := make([]string, 0, from-to+1)
	for i := from; i >= to; i-- {
		out = append(out, stations[i])
	}
	return out
}

// Describe renders a segment for the info panel. Intermediate stations are
// parenthesised.
func Describe(seg Segment, name func(id string) string) string {
	parts := make([]string, len(seg.Stations))
	for i, id := range seg.Stations {
		if i == 0 || i == len(seg.Stations)-1 {
			parts[i] = name(id)
			continue
		}
		parts[i] = "(" + name(id) + ")"
	}
	return "Path on line " + seg.LineID + ": " + strings.Join(parts, " → ")
}

// DescribeNoPath is the status text shown when two stations share no line
func DescribeNoPath(a, b string, name func(id string) string) string {
	return "No direct line path between " + name(a) + " and " + name(b) + "."
}
