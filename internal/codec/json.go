package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"repoexplorer/internal/domain"
)

// JSONCodec exports nodes as indented JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of the output
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Export writes nodes as a JSON array
func (c *JSONCodec) Export(nodes []domain.ContentNode, w io.Writer) error {
	if nodes == nil {
		nodes = []domain.ContentNode{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(nodes); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
