// Package pathselect tracks the stations a user has clicked and finds the
// shortest same-line segment between two of them.
package pathselect

import (
	"errors"

	"transitmap/internal/domain"
)

// Outcome classifies the selection after a click
type Outcome string

const (
	OutcomeCleared   Outcome = "cleared"
	OutcomeOneAnchor Outcome = "one-anchor"
	OutcomePath      Outcome = "path"
	OutcomeNoPath    Outcome = "no-path"
)

// Result describes the selection after an event
type Result struct {
	Outcome Outcome
	// Anchors are the clicked stations still selected, in click order
	Anchors []string
	// Segment is set when Outcome is OutcomePath
	Segment Segment
	// NoPathBetween holds the two clicked stations when Outcome is OutcomeNoPath
	NoPathBetween [2]string
}

// Highlight returns the stations the canvas should highlight
func (r Result) Highlight() []string {
	if r.Outcome == OutcomePath {
		return append([]string(nil), r.Segment.Stations...)
	}
	return append([]string(nil), r.Anchors...)
}

// Selector holds the path selection state: up to two anchors and the
// highlighted path between them.
type Selector struct {
	lines   []*domain.Line
	anchors []string
	path    []string
}

// NewSelector creates a selector over the given lines, scanned in order
func NewSelector(lines []*domain.Line) *Selector {
	return &Selector{lines: lines}
}

// Anchors returns the currently selected anchors in click order
func (s *Selector) Anchors() []string {
	return append([]string(nil), s.anchors...)
}

// Path returns the highlighted path, empty when none
func (s *Selector) Path() []string {
	return append([]string(nil), s.path...)
}

// Clear drops every anchor and the highlighted path
func (s *Selector) Clear() {
	s.anchors = nil
	s.path = nil
}

// SelectStation handles a click on a station. A plain click starts a new
// selection. An augmenting (shift) click toggles id: removing it when already
// selected, otherwise adding it, restarting from id when two anchors are
// already held. With exactly two anchors the shortest segment is computed;
// when none exists the selection collapses to the first anchor.
func (s *Selector) SelectStation(id string, augmenting bool) Result {
	s.path = nil

	if !augmenting {
		s.anchors = []string{id}
		return s.result(OutcomeOneAnchor)
	}

	if i := indexOf(s.anchors, id); i >= 0 {
		s.anchors = append(s.anchors[:i:i], s.anchors[i+1:]...)
		if len(s.anchors) == 0 {
			return s.result(OutcomeCleared)
		}
		return s.result(OutcomeOneAnchor)
	}

	if len(s.anchors) >= 2 {
		s.anchors = []string{id}
		return s.result(OutcomeOneAnchor)
	}

	s.anchors = append(s.anchors, id)
	if len(s.anchors) < 2 {
		return s.result(OutcomeOneAnchor)
	}

	a, b := s.anchors[0], s.anchors[1]
	seg, err := ShortestSegment(s.lines, a, b)
	if errors.Is(err, domain.ErrNoPath) {
		s.anchors = []string{a}
		res := s.result(OutcomeNoPath)
		res.NoPathBetween = [2]string{a, b}
		return res
	}

	s.path = append([]string(nil), seg.Stations...)
	res := s.result(OutcomePath)
	res.Segment = seg
	return res
}

func (s *Selector) result(outcome Outcome) Result {
	return Result{Outcome: outcome, Anchors: s.Anchors()}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
