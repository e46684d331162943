package loader

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"transitmap/internal/domain"
)

// Reference documents are decoded with yaml.v3 so JSON and YAML files share
// one code path; JSON is valid YAML and node decoding keeps mapping order.

type datasetDoc struct {
	Stations []domain.Station `yaml:"stations"`
	Lines    []lineDoc        `yaml:"lines"`
}

type lineDoc struct {
	ID       string          `yaml:"id"`
	Stations []string        `yaml:"stations"`
	Branches orderedBranches `yaml:"branches"`
	Color    string          `yaml:"color"`
}

// orderedBranches decodes a mapping of branch key to station list, keeping
// the order the keys appear in the document
type orderedBranches []domain.Branch

func (b *orderedBranches) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: branches must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var stations []string
		if err := value.Content[i+1].Decode(&stations); err != nil {
			return fmt.Errorf("branch %q: %w", value.Content[i].Value, err)
		}
		*b = append(*b, domain.Branch{Key: value.Content[i].Value, Stations: stations})
	}
	return nil
}

func decodeDataset(data []byte) (*datasetDoc, error) {
	var doc datasetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if doc.Stations == nil || doc.Lines == nil {
		return nil, fmt.Errorf("dataset needs both stations and lines")
	}
	for i, st := range doc.Stations {
		if strings.TrimSpace(st.ID) == "" {
			return nil, fmt.Errorf("station %d has no id", i)
		}
	}
	for i, ln := range doc.Lines {
		if strings.TrimSpace(ln.ID) == "" {
			return nil, fmt.Errorf("line %d has no id", i)
		}
	}
	return &doc, nil
}

func (d *datasetDoc) mergeInto(n *domain.Network, kind domain.StationKind) {
	for i := range d.Stations {
		st := d.Stations[i]
		st.Kinds = []domain.StationKind{kind}
		n.AddStation(&st)
	}
	for _, ld := range d.Lines {
		var branches []domain.Branch
		for _, b := range ld.Branches {
			if len(b.Stations) > 0 {
				branches = append(branches, b)
			}
		}
		n.Lines = append(n.Lines, &domain.Line{
			ID:       ld.ID,
			Kind:     kind,
			Stations: ld.Stations,
			Branches: branches,
			Color:    ld.Color,
		})
		if _, ok := n.Colors[ld.ID]; !ok && ld.Color != "" {
			n.Colors[ld.ID] = ld.Color
		}
	}
}

// decodeCoordinates reads {id: {x, y, figmaFill}}. Coordinates may be numbers
// or numeric strings; entries that are neither are returned as skipped.
func decodeCoordinates(data []byte) (map[string]domain.Coordinate, []string, error) {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse coordinates: %w", err)
	}

	out := make(map[string]domain.Coordinate, len(raw))
	var skipped []string
	for id, fields := range raw {
		x, okX := toFloat(fields["x"])
		y, okY := toFloat(fields["y"])
		if !okX || !okY {
			skipped = append(skipped, id)
			continue
		}
		fill, _ := fields["figmaFill"].(string)
		out[id] = domain.Coordinate{X: x, Y: y, Fill: fill}
	}
	sort.Strings(skipped)
	return out, skipped, nil
}

func decodeColors(data []byte) (map[string]string, error) {
	var colors map[string]string
	if err := yaml.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("parse colors: %w", err)
	}
	return colors, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
