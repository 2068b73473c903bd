// Package codec converts between the store's native values and the portable
// property model, and renders node listings for download.
package codec

import (
	"fmt"
	"io"

	"repoexplorer/internal/domain"
)

// Exporter renders nodes in a download format
type Exporter interface {
	Export(nodes []domain.ContentNode, w io.Writer) error
	Format() string
	ContentType() string
}

// ExporterFor returns the exporter registered for format ("json" or "yaml")
func ExporterFor(format string) (Exporter, error) {
	switch format {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, domain.Invalid("export", fmt.Sprintf("unsupported export format %q", format))
}
