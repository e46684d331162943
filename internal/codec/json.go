package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"transitmap/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of exported documents
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse imports a layout snapshot from JSON
func (c *JSONCodec) Parse(r io.Reader) (domain.Snapshot, error) {
	var payload any
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&payload); err != nil {
		return nil, &domain.MalformedImportError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return snapshotFromPayload(payload)
}

// Export writes a layout snapshot as indented JSON with sorted keys
func (c *JSONCodec) Export(snap domain.Snapshot, w io.Writer) error {
	if snap == nil {
		snap = domain.Snapshot{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
