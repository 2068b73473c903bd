package codec

import (
	"fmt"
	"io"
	"sort"
	"time"

	"repoexplorer/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec exports nodes as YAML with plain scalar values
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of the output
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// yamlDocument represents the YAML structure for exported nodes
type yamlDocument struct {
	Nodes []yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	ID          string         `yaml:"id"`
	Path        string         `yaml:"path"`
	PrimaryType string         `yaml:"primary_type"`
	Mixins      []string       `yaml:"mixins,omitempty"`
	Properties  []yamlProperty `yaml:"properties,omitempty"`
}

type yamlProperty struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	ReadOnly bool   `yaml:"read_only,omitempty"`
	Value    any    `yaml:"value,omitempty"`
	Values   []any  `yaml:"values,omitempty"`
}

// Export writes nodes as a YAML document
func (c *YAMLCodec) Export(nodes []domain.ContentNode, w io.Writer) error {
	doc := yamlDocument{Nodes: make([]yamlNode, 0, len(nodes))}
	for _, n := range nodes {
		yn := yamlNode{
			ID:          n.ID,
			Path:        n.Path,
			PrimaryType: n.PrimaryType,
			Mixins:      n.MixinTypes,
		}

		names := make([]string, 0, len(n.Properties))
		for name := range n.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			pv := n.Properties[name]
			yp := yamlProperty{Name: name, Type: string(pv.Type), ReadOnly: pv.ReadOnly}
			if pv.MultiValued {
				yp.Values = make([]any, 0, len(pv.Values))
				for _, s := range pv.Values {
					yp.Values = append(yp.Values, plainScalar(s))
				}
			} else if len(pv.Values) == 1 {
				yp.Value = plainScalar(pv.Values[0])
			}
			yn.Properties = append(yn.Properties, yp)
		}
		doc.Nodes = append(doc.Nodes, yn)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// plainScalar returns the typed field of s as a YAML-friendly value
func plainScalar(s domain.TypedScalar) any {
	switch {
	case s.BooleanValue != nil:
		return *s.BooleanValue
	case s.DateValue != nil:
		return s.DateValue.Format(time.RFC3339Nano)
	case s.DecimalValue != nil:
		return s.DecimalValue.String()
	case s.DoubleValue != nil:
		return *s.DoubleValue
	case s.LongValue != nil:
		return *s.LongValue
	case s.StringValue != nil:
		return *s.StringValue
	}
	return nil
}
