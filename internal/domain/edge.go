package domain

import "fmt"

// Edge connects two consecutive stations of one line sequence
type Edge struct {
	ID        string      `json:"id"`
	FromID    string      `json:"from_id"`
	ToID      string      `json:"to_id"`
	LineID    string      `json:"line_id"`
	BranchKey string      `json:"branch,omitempty"`
	Kind      StationKind `json:"kind,omitempty"`
	Color     string      `json:"color"`
}

// NewEdge creates an edge for a hop on the given line sequence
func NewEdge(kind StationKind, seq Sequence, fromID, toID, color string) *Edge {
	edge := &Edge{
		FromID:    fromID,
		ToID:      toID,
		LineID:    seq.LineID,
		BranchKey: seq.BranchKey,
		Kind:      kind,
		Color:     color,
	}
	edge.ID = edge.GenerateID()
	return edge
}

// GenerateID creates a deterministic id from dataset, line, branch and endpoints
func (e *Edge) GenerateID() string {
	prefix := string(e.Kind)
	if prefix == "" {
		prefix = "line"
	}
	if e.BranchKey != "" {
		return fmt.Sprintf("%s-%s-%s-%s-%s", prefix, e.LineID, e.BranchKey, e.FromID, e.ToID)
	}
	return fmt.Sprintf("%s-%s-%s-%s", prefix, e.LineID, e.FromID, e.ToID)
}
