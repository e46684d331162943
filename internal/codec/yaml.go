package codec

import (
	"errors"
	"fmt"
	"io"

	"transitmap/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of exported documents
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// Parse imports a layout snapshot from YAML
func (c *YAMLCodec) Parse(r io.Reader) (domain.Snapshot, error) {
	var payload any
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.MalformedImportError{Reason: "empty file"}
		}
		return nil, &domain.MalformedImportError{Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return snapshotFromPayload(payload)
}

// Export writes a layout snapshot as YAML
func (c *YAMLCodec) Export(snap domain.Snapshot, w io.Writer) error {
	if snap == nil {
		snap = domain.Snapshot{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush YAML: %w", err)
	}

	return nil
}
