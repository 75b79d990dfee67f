package schema

import "fmt"

// Graph is an immutable, validated set of entities and their relationships.
// Build one with NewGraph or Load and share it; it is safe for concurrent use.
type Graph struct {
	entities []*Entity
	byName   map[string]*Entity
	byTable  map[string]*Entity
}

// NewGraph validates the entities and indexes them. Relationship sources are set
// from the declaring entity. The entities must not be modified afterwards.
func NewGraph(entities ...*Entity) (*Graph, error) {
	for _, e := range entities {
		if e == nil {
			continue
		}
		for _, r := range e.Relationships {
			if r != nil {
				r.Source = e.Name
			}
		}
	}
	if err := Validate(entities); err != nil {
		return nil, err
	}

	g := &Graph{
		entities: append([]*Entity(nil), entities...),
		byName:   make(map[string]*Entity, len(entities)),
		byTable:  make(map[string]*Entity, len(entities)),
	}
	for _, e := range entities {
		g.byName[e.Name] = e
		g.byTable[e.Table] = e
	}
	return g, nil
}

// MustGraph is NewGraph that panics on error. Intended for fixtures.
func MustGraph(entities ...*Entity) *Graph {
	g, err := NewGraph(entities...)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return g
}

// Reset returns a freshly indexed graph over the same entities. Caches keyed by
// graph identity treat it as a different graph.
func (g *Graph) Reset() *Graph {
	return &Graph{
		entities: append([]*Entity(nil), g.entities...),
		byName:   cloneIndex(g.byName),
		byTable:  cloneIndex(g.byTable),
	}
}

func cloneIndex(m map[string]*Entity) map[string]*Entity {
	out := make(map[string]*Entity, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Entities returns the entities in registration order.
func (g *Graph) Entities() []*Entity {
	return append([]*Entity(nil), g.entities...)
}

// Entity looks up an entity by name.
func (g *Graph) Entity(name string) (*Entity, bool) {
	e, ok := g.byName[name]
	return e, ok
}

// EntityByTable looks up an entity by table name.
func (g *Graph) EntityByTable(table string) (*Entity, bool) {
	e, ok := g.byTable[table]
	return e, ok
}

// Contains reports whether e is the entity registered under its name.
func (g *Graph) Contains(e *Entity) bool {
	return e != nil && g.byName[e.Name] == e
}

// Edges returns the outgoing relationships of the named entity in declared order.
func (g *Graph) Edges(name string) []*Relationship {
	if e, ok := g.byName[name]; ok {
		return e.Relationships
	}
	return nil
}

// Target returns the entity a relationship points at.
func (g *Graph) Target(r *Relationship) *Entity {
	return g.byName[r.Target]
}

// Source returns the entity a relationship leaves from.
func (g *Graph) Source(r *Relationship) *Entity {
	return g.byName[r.Source]
}
