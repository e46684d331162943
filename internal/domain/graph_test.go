package domain

import (
	"testing"
)

func sampleNetwork() *Network {
	n := NewNetwork()
	n.AddStation(&Station{ID: "a", Name: "Alpha", Lines: []string{"M1"}, Kinds: []StationKind{StationKindMetro}})
	n.AddStation(&Station{ID: "b", Name: "Bravo", Lines: []string{"M1"}, Kinds: []StationKind{StationKindMetro}})
	n.AddStation(&Station{ID: "c", Name: "Charlie", Lines: []string{"M1"}, Kinds: []StationKind{StationKindMetro}})
	n.Lines = append(n.Lines, &Line{
		ID:       "M1",
		Kind:     StationKindMetro,
		Stations: []string{"a", "b", "c"},
		Branches: []Branch{{Key: "spur", Stations: []string{"b", "ghost"}}},
	})
	n.Colors["M1"] = "#e30613"
	return n
}

func TestDeriveGraph(t *testing.T) {
	t.Run("creates a node per station", func(t *testing.T) {
		graph, _ := DeriveGraph(sampleNetwork())

		if len(graph.Nodes) != 3 {
			t.Fatalf("expected 3 nodes, got %d", len(graph.Nodes))
		}
		if graph.Nodes[0].ID != "a" || graph.Nodes[0].Name != "Alpha" {
			t.Errorf("unexpected first node %+v", graph.Nodes[0])
		}
	})

	t.Run("creates edges for consecutive stations", func(t *testing.T) {
		graph, _ := DeriveGraph(sampleNetwork())

		if len(graph.Edges) != 2 {
			t.Fatalf("expected 2 edges, got %d", len(graph.Edges))
		}
		if graph.Edges[0].Color != "#e30613" {
			t.Errorf("expected line colour, got %s", graph.Edges[0].Color)
		}
	})

	t.Run("skips hops to unknown stations", func(t *testing.T) {
		_, skipped := DeriveGraph(sampleNetwork())

		if len(skipped) != 1 {
			t.Fatalf("expected 1 skipped hop, got %d", len(skipped))
		}
		if skipped[0] != "line M1: b-ghost" {
			t.Errorf("unexpected skipped description %q", skipped[0])
		}
	})
}

func TestNetworkAddStationMerges(t *testing.T) {
	n := NewNetwork()
	n.AddStation(&Station{ID: "hub", Name: "Hub", Lines: []string{"M1"}, Kinds: []StationKind{StationKindMetro}})
	n.AddStation(&Station{ID: "hub", Lines: []string{"T1", "M1"}, Notes: "tram stop", Kinds: []StationKind{StationKindTram}})

	if len(n.StationIDs) != 1 {
		t.Fatalf("expected 1 station id, got %d", len(n.StationIDs))
	}
	st := n.Stations["hub"]
	if len(st.Lines) != 2 {
		t.Errorf("expected lines to be unioned, got %v", st.Lines)
	}
	if !st.HasKind(StationKindTram) || !st.HasKind(StationKindMetro) {
		t.Errorf("expected both kinds, got %v", st.Kinds)
	}
	if !st.Interchange() {
		t.Error("expected merged station to be an interchange")
	}
	if st.Notes != "tram stop" {
		t.Errorf("expected notes to be filled in, got %q", st.Notes)
	}
}

func TestNetworkLineColor(t *testing.T) {
	n := NewNetwork()
	if got := n.LineColor("X"); got != "#CCCCCC" {
		t.Errorf("expected grey fallback, got %s", got)
	}
	n.Colors["DEFAULT"] = "#123456"
	if got := n.LineColor("X"); got != "#123456" {
		t.Errorf("expected DEFAULT colour, got %s", got)
	}
	n.Colors["X"] = "#abcdef"
	if got := n.LineColor("X"); got != "#abcdef" {
		t.Errorf("expected line colour, got %s", got)
	}
}
