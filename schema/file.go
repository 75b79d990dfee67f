package schema

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// File is the on-disk schema document.
type File struct {
	Entities []*Entity `json:"entities"`
}

// Parse decodes a YAML (or JSON) schema document and builds a graph from it.
func Parse(data []byte) (*Graph, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return NewGraph(f.Entities...)
}

// Load reads and parses a schema file.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	return g, nil
}

// Marshal renders the graph back to YAML.
func (g *Graph) Marshal() ([]byte, error) {
	return yaml.Marshal(File{Entities: g.entities})
}
