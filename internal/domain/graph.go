package domain

import "fmt"

// Graph is the derived view sent to the canvas
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []Edge      `json:"edges"`
}

// GraphNode represents a station in the visualization
type GraphNode struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Kinds       []StationKind `json:"kinds"`
	Lines       []string      `json:"lines"`
	Interchange bool          `json:"interchange"`
	Fill        string        `json:"fill,omitempty"`
}

// DeriveGraph converts a Network into nodes and edges. Hops whose endpoints
// are not known stations are returned as skipped descriptions.
func DeriveGraph(n *Network) (*Graph, []string) {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, len(n.StationIDs)),
		Edges: make([]Edge, 0),
	}
	var skipped []string

	for _, id := range n.StationIDs {
		st := n.Stations[id]
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:          id,
			Name:        st.DisplayName(),
			Kinds:       st.Kinds,
			Lines:       st.Lines,
			Interchange: st.Interchange(),
			Fill:        n.Coordinates[id].Fill,
		})
	}

	for _, line := range n.Lines {
		color := n.LineColor(line.ID)
		for _, seq := range line.Sequences() {
			for i := 0; i+1 < len(seq.Stations); i++ {
				from, to := seq.Stations[i], seq.Stations[i+1]
				_, okFrom := n.Stations[from]
				_, okTo := n.Stations[to]
				if !okFrom || !okTo {
					skipped = append(skipped, fmt.Sprintf("line %s: %s-%s", line.ID, from, to))
					continue
				}
				graph.Edges = append(graph.Edges, *NewEdge(line.Kind, seq, from, to, color))
			}
		}
	}

	return graph, skipped
}
