package codec

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"transitmap/internal/domain"
)

// Importer reads a layout snapshot from a serialized form
type Importer interface {
	Parse(r io.Reader) (domain.Snapshot, error)
	Format() string
}

// Exporter writes a layout snapshot in a serialized form
type Exporter interface {
	Export(snap domain.Snapshot, w io.Writer) error
	Format() string
	ContentType() string
}

// Codec is both an Importer and an Exporter
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for a format name ("json", "yaml", "yml")
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported layout format: %q", format)
	}
}

// ParseSnapshot decodes an imported layout, choosing JSON when the payload
// starts with an object and YAML otherwise. Any structural problem is
// reported as a *domain.MalformedImportError.
func ParseSnapshot(data []byte) (domain.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &domain.MalformedImportError{Reason: "empty file"}
	}
	var c Importer = NewYAMLCodec()
	if trimmed[0] == '{' {
		c = NewJSONCodec()
	}
	return c.Parse(bytes.NewReader(trimmed))
}

// snapshotFromPayload validates a generically decoded document. The payload
// must be a mapping; entries without numeric x and y are skipped, and a
// non-empty mapping must keep at least one entry. label_pos is optional and
// anything that is not a known anchor falls back to the default.
func snapshotFromPayload(payload any) (domain.Snapshot, error) {
	entries, ok := stringKeyed(payload)
	if !ok {
		return nil, &domain.MalformedImportError{Reason: "expected a mapping of station ids to positions"}
	}

	snap := make(domain.Snapshot, len(entries))
	for id, raw := range entries {
		fields, ok := stringKeyed(raw)
		if !ok {
			continue
		}
		x, okX := number(fields["x"])
		y, okY := number(fields["y"])
		if !okX || !okY {
			continue
		}
		anchor, _ := fields["label_pos"].(string)
		snap[id] = domain.NewLayoutEntry(x, y, domain.AnchorKey(anchor))
	}

	if len(entries) > 0 && len(snap) == 0 {
		return nil, &domain.MalformedImportError{Reason: "no entry has numeric x and y"}
	}
	return snap, nil
}

// stringKeyed accepts YAML mappings with non-string keys such as numeric
// station ids.
func stringKeyed(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
