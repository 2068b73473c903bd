package loader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"repoexplorer/internal/repository"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned for definitions that parse but do not describe a usable type
var ErrInvalidDefinition = errors.New("invalid node type definition")

// NodeTypesYAML represents the YAML file structure
type NodeTypesYAML struct {
	Version   string         `yaml:"version,omitempty"`
	NodeTypes []NodeTypeYAML `yaml:"node_types"`
}

// NodeTypeYAML represents one node type in YAML format
type NodeTypeYAML struct {
	Name        string         `yaml:"name"`
	Mixin       bool           `yaml:"mixin,omitempty"`
	Abstract    bool           `yaml:"abstract,omitempty"`
	Supertypes  []string       `yaml:"supertypes,omitempty"`
	PrimaryItem string         `yaml:"primary_item,omitempty"`
	Properties  []PropertyYAML `yaml:"properties,omitempty"`
	ChildNodes  []ChildYAML    `yaml:"child_nodes,omitempty"`
}

// PropertyYAML represents a property definition
type PropertyYAML struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type,omitempty"`
	Multiple  bool   `yaml:"multiple,omitempty"`
	Mandatory bool   `yaml:"mandatory,omitempty"`
	Protected bool   `yaml:"protected,omitempty"`
}

// ChildYAML represents a child node definition
type ChildYAML struct {
	Name          string   `yaml:"name"`
	RequiredTypes []string `yaml:"required_types,omitempty"`
	DefaultType   string   `yaml:"default_type,omitempty"`
	Mandatory     bool     `yaml:"mandatory,omitempty"`
}

// LoadYAML loads node type definitions from a YAML file
func LoadYAML(path string) ([]repository.NodeTypeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses node type definitions from YAML bytes
func ParseYAML(data []byte) ([]repository.NodeTypeDefinition, error) {
	var yamlData NodeTypesYAML
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(yamlData.NodeTypes) == 0 {
		return nil, fmt.Errorf("%w: no node_types declared", ErrInvalidDefinition)
	}

	return convertYAMLToDefinitions(&yamlData)
}

func convertYAMLToDefinitions(y *NodeTypesYAML) ([]repository.NodeTypeDefinition, error) {
	defs := make([]repository.NodeTypeDefinition, 0, len(y.NodeTypes))
	seen := make(map[string]bool, len(y.NodeTypes))

	for i, t := range y.NodeTypes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: node type %d has no name", ErrInvalidDefinition, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s declared twice", ErrInvalidDefinition, name)
		}
		seen[name] = true

		def := repository.NodeTypeDefinition{
			Name:        name,
			Mixin:       t.Mixin,
			Abstract:    t.Abstract,
			Supertypes:  t.Supertypes,
			PrimaryItem: t.PrimaryItem,
		}

		// Primary types without an explicit parent extend nt:base
		if len(def.Supertypes) == 0 && !def.Mixin {
			def.Supertypes = []string{"nt:base"}
		}

		for _, p := range t.Properties {
			if strings.TrimSpace(p.Name) == "" {
				return nil, fmt.Errorf("%w: %s has a property without a name", ErrInvalidDefinition, name)
			}
			typ := p.Type
			if typ == "" {
				typ = repository.TypeUndefined.String()
			}
			pt, ok := repository.ParsePropertyType(typ)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s has unknown type %q", ErrInvalidDefinition, name, p.Name, p.Type)
			}
			def.Properties = append(def.Properties, repository.PropertyDefinition{
				Name:         p.Name,
				RequiredType: pt.String(),
				Multiple:     p.Multiple,
				Mandatory:    p.Mandatory,
				Protected:    p.Protected,
			})
		}

		for _, c := range t.ChildNodes {
			if strings.TrimSpace(c.Name) == "" {
				return nil, fmt.Errorf("%w: %s has a child definition without a name", ErrInvalidDefinition, name)
			}
			def.ChildNodes = append(def.ChildNodes, repository.ChildDefinition{
				Name:          c.Name,
				RequiredTypes: c.RequiredTypes,
				DefaultType:   c.DefaultType,
				Mandatory:     c.Mandatory,
			})
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// ExportYAML exports node type definitions to YAML format
func ExportYAML(defs []repository.NodeTypeDefinition) ([]byte, error) {
	yamlData := &NodeTypesYAML{
		Version:   "1",
		NodeTypes: make([]NodeTypeYAML, 0, len(defs)),
	}

	for _, d := range defs {
		t := NodeTypeYAML{
			Name:        d.Name,
			Mixin:       d.Mixin,
			Abstract:    d.Abstract,
			Supertypes:  d.Supertypes,
			PrimaryItem: d.PrimaryItem,
		}
		for _, p := range d.Properties {
			t.Properties = append(t.Properties, PropertyYAML{
				Name:      p.Name,
				Type:      p.RequiredType,
				Multiple:  p.Multiple,
				Mandatory: p.Mandatory,
				Protected: p.Protected,
			})
		}
		for _, c := range d.ChildNodes {
			t.ChildNodes = append(t.ChildNodes, ChildYAML{
				Name:          c.Name,
				RequiredTypes: c.RequiredTypes,
				DefaultType:   c.DefaultType,
				Mandatory:     c.Mandatory,
			})
		}
		yamlData.NodeTypes = append(yamlData.NodeTypes, t)
	}

	return yaml.Marshal(yamlData)
}
