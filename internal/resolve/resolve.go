// Package resolve turns relationship keys into edge paths over a schema graph.
//
// A plain key ("comments") is found by breadth-first search from the start
// entity, following edges in declared order and expanding each entity once; the
// first edge whose key matches ends the search, so the shortest path wins and
// ties go to declaration order. A key that matches nothing resolves to an empty
// path without error.
//
// A dotted key ("posts.comments.reactions") is walked strictly: every segment
// must be an edge of the entity reached so far, otherwise resolution fails with
// an *UnknownRelationshipError.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm/autoload/internal/memo"
	"github.com/pthm/autoload/schema"
)

// ErrUnknownRelationship is wrapped by every dotted-path resolution failure.
var ErrUnknownRelationship = errors.New("autoload: unknown relationship")

// UnknownRelationshipError reports the dotted segment that does not exist.
type UnknownRelationshipError struct {
	Segment string // the missing key
	Entity  string // entity the key was looked up on
	Path    string // the full dotted path
	Root    string // entity resolution started from
}

func (e *UnknownRelationshipError) Error() string {
	return fmt.Sprintf("No relationship '%s' on %s (resolving '%s' from %s)", e.Segment, e.Entity, e.Path, e.Root)
}

// Unwrap lets errors.Is match ErrUnknownRelationship.
func (e *UnknownRelationshipError) Unwrap() error {
	return ErrUnknownRelationship
}

// Path is a resolved, immutable sequence of edges.
type Path struct {
	Start string
	Key   string
	Edges []*schema.Relationship
}

// Empty reports whether the key matched nothing.
func (p *Path) Empty() bool {
	return p == nil || len(p.Edges) == 0
}

// Last returns the final edge, or nil for an empty path.
func (p *Path) Last() *schema.Relationship {
	if p.Empty() {
		return nil
	}
	return p.Edges[len(p.Edges)-1]
}

// Keys returns the edge keys in order.
func (p *Path) Keys() []string {
	keys := make([]string, len(p.Edges))
	for i, e := range p.Edges {
		keys[i] = e.Key
	}
	return keys
}

// Cumulative returns the dotted prefix ending at edge i ("posts", "posts.comments", ...).
func (p *Path) Cumulative(i int) string {
	return strings.Join(p.Keys()[:i+1], ".")
}

// Resolver resolves keys against one graph and memoizes the results.
type Resolver struct {
	graph *schema.Graph
	cache *memo.Cache[*Path]
}

// New creates a resolver over g with room for size memoized paths.
func New(g *schema.Graph, size int) *Resolver {
	return &Resolver{graph: g, cache: memo.New[*Path](size)}
}

// Graph returns the graph the resolver walks.
func (r *Resolver) Graph() *schema.Graph {
	return r.graph
}

// Resolve returns the path for key starting at the named entity. Repeated calls
// return the same *Path while it remains cached.
func (r *Resolver) Resolve(start, key string) (*Path, error) {
	return r.cache.Do(start+"\x00"+key, func() (*Path, error) {
		if strings.Contains(key, ".") {
			return r.walk(start, key)
		}
		return r.search(start, key), nil
	})
}

// Stats reports memo counters.
func (r *Resolver) Stats() memo.Stats {
	return r.cache.Stats()
}

// Purge drops every memoized path.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

type queued struct {
	entity string
	path   []*schema.Relationship
}

func (r *Resolver) search(start, key string) *Path {
	queue := []queued{{entity: start}}
	seen := make(map[string]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.entity] {
			continue
		}
		seen[cur.entity] = true

		for _, rel := range r.graph.Edges(cur.entity) {
			next := make([]*schema.Relationship, len(cur.path), len(cur.path)+1)
			copy(next, cur.path)
			next = append(next, rel)
			if rel.Key == key {
				return &Path{Start: start, Key: key, Edges: next}
			}
			queue = append(queue, queued{entity: rel.Target, path: next})
		}
	}
	return &Path{Start: start, Key: key}
}

func (r *Resolver) walk(start, dotted string) (*Path, error) {
	segments := strings.Split(dotted, ".")
	edges := make([]*schema.Relationship, 0, len(segments))
	current := start
	for _, seg := range segments {
		var found *schema.Relationship
		for _, rel := range r.graph.Edges(current) {
			if rel.Key == seg {
				found = rel
				break
			}
		}
		if found == nil {
			return nil, &UnknownRelationshipError{Segment: seg, Entity: current, Path: dotted, Root: start}
		}
		edges = append(edges, found)
		current = found.Target
	}
	return &Path{Start: start, Key: dotted, Edges: edges}, nil
}
