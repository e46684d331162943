package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/internal/domain"
)

const metroJSON = `{
  "stations": [
    {"id": "A", "name": "Alpha", "lines": ["M1"]},
    {"id": "B", "name": "Bravo", "lines": ["M1", "M2"], "population": 300},
    {"id": "C", "name": "Charlie", "lines": ["M1"], "notes": "closed on sundays"}
  ],
  "lines": [
    {"id": "M1", "stations": ["A", "B", "C"], "branches": {"zeta": ["B", "Z"], "alpha": ["A", "C"]}},
    {"id": "M2", "stations": ["B"]}
  ]
}`

const tramYAML = `
stations:
  - id: B
    name: Bravo Tram Stop
    lines: [T1]
    transfers: [M1]
  - id: D
    name: Delta
    lines: [T1]
lines:
  - id: T1
    stations: [B, D]
    color: "#00FF00"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MergesDatasets(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Datasets: []Dataset{
			{Kind: domain.StationKindMetro, Location: writeFile(t, dir, "metro.json", metroJSON)},
			{Kind: domain.StationKindTram, Location: writeFile(t, dir, "tram.yaml", tramYAML)},
		},
		Coordinates: writeFile(t, dir, "coords.json", `{"A": {"x": 10, "y": "20.5", "figmaFill": "#FF0000"}, "B": {"x": "oops", "y": 1}}`),
		Colors:      writeFile(t, dir, "colors.json", `{"M1": "#123456", "DEFAULT": "#999999"}`),
	}

	n, err := New(time.Second, nil).Load(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, n.StationIDs)

	b, ok := n.Station("B")
	require.True(t, ok)
	assert.Equal(t, "Bravo", b.Name, "first dataset's name wins")
	assert.ElementsMatch(t, []string{"M1", "M2", "T1"}, b.Lines)
	assert.Equal(t, []domain.StationKind{domain.StationKindMetro, domain.StationKindTram}, b.Kinds)
	assert.True(t, b.Interchange())

	require.Len(t, n.Lines, 3)
	m1 := lineByID(t, n, "M1")
	require.Len(t, m1.Branches, 2)
	assert.Equal(t, "zeta", m1.Branches[0].Key, "branches keep document order")
	assert.Equal(t, "alpha", m1.Branches[1].Key)

	t1 := lineByID(t, n, "T1")
	assert.Equal(t, domain.StationKindTram, t1.Kind)
	assert.Equal(t, "#00FF00", n.LineColor("T1"))
	assert.Equal(t, "#123456", n.LineColor("M1"))
	assert.Equal(t, "#999999", n.LineColor("M2"))

	assert.Equal(t, domain.Coordinate{X: 10, Y: 20.5, Fill: "#FF0000"}, n.Coordinates["A"])
	_, hasB := n.Coordinates["B"]
	assert.False(t, hasB, "malformed coordinate is skipped")
}

func lineByID(t *testing.T, n *domain.Network, id string) *domain.Line {
	t.Helper()
	for _, l := range n.Lines {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("line %s not loaded", id)
	return nil
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metro.json":
			w.Write([]byte(metroJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := New(time.Second, nil)

	n, err := l.Load(context.Background(), Sources{
		Datasets: []Dataset{{Kind: domain.StationKindMetro, Location: srv.URL + "/metro.json"}},
	})
	require.NoError(t, err)
	assert.Len(t, n.StationIDs, 3)

	_, err = l.Load(context.Background(), Sources{
		Datasets: []Dataset{{Kind: domain.StationKindMetro, Location: srv.URL + "/metro.json"}},
		Colors:   srv.URL + "/colors.json",
	})
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, srv.URL+"/colors.json", loadErr.Source)
	assert.Contains(t, err.Error(), "404")
}

func TestLoad_FailFast(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		src    Sources
		source string
	}{
		{
			name:   "no datasets",
			src:    Sources{},
			source: "datasets",
		},
		{
			name: "missing file",
			src: Sources{Datasets: []Dataset{
				{Kind: domain.StationKindMetro, Location: filepath.Join(dir, "absent.json")},
			}},
			source: filepath.Join(dir, "absent.json"),
		},
		{
			name: "dataset without lines",
			src: Sources{Datasets: []Dataset{
				{Kind: domain.StationKindMetro, Location: writeFile(t, dir, "nolines.json", `{"stations": []}`)},
			}},
			source: filepath.Join(dir, "nolines.json"),
		},
		{
			name: "unparseable coordinates",
			src: Sources{
				Datasets:    []Dataset{{Kind: domain.StationKindMetro, Location: writeFile(t, dir, "ok.json", metroJSON)}},
				Coordinates: writeFile(t, dir, "bad.json", `[1, 2]`),
			},
			source: filepath.Join(dir, "bad.json"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(time.Second, nil).Load(context.Background(), tt.src)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
			assert.Equal(t, tt.source, loadErr.Source)
		})
	}
}

func TestOrderedBranches_RejectsSequence(t *testing.T) {
	_, err := decodeDataset([]byte(`{"stations": [], "lines": [{"id": "L", "stations": [], "branches": ["a"]}]}`))
	assert.Error(t, err)
}
