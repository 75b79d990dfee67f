// Package testmodels holds the blog fixture used across the test suites: a schema
// graph plus matching DDL and seed rows.
package testmodels

import (
	_ "embed"

	"github.com/pthm/autoload/schema"
)

//go:embed blog.yaml
var BlogYAML []byte

// DDL creates the blog tables.
//
//go:embed schema.sql
var DDL string

// Seed inserts the fixture rows.
//
//go:embed seed.sql
var Seed string

// Blog parses the fixture schema into a fresh graph.
func Blog() *schema.Graph {
	g, err := schema.Parse(BlogYAML)
	if err != nil {
		panic("testmodels: " + err.Error())
	}
	return g
}

// MustEntity returns the named entity or panics.
func MustEntity(g *schema.Graph, name string) *schema.Entity {
	e, ok := g.Entity(name)
	if !ok {
		panic("testmodels: no entity " + name)
	}
	return e
}
