// Package schema describes the entity graph autoload plans queries over.
//
// An Entity is a mapped table: its columns, its primary key and its outgoing
// relationships. A Relationship is a directed, named edge from one entity to
// another, either direct (foreign key on one side) or through an association
// table (many-to-many). A Graph is the immutable, validated collection of
// entities built once by NewGraph or Load and passed explicitly to the
// resolver and builder.
//
// # Schema files
//
// Schemas can be written in YAML:
//
//	entities:
//	  - name: User
//	    table: users
//	    columns:
//	      - {name: id, type: integer, primary_key: true}
//	      - {name: name, type: text}
//	    relationships:
//	      - key: posts
//	        target: Post
//	        many: true
//	        join: [{local: id, remote: author_id}]
//
// Relationship sources are implied by the enclosing entity.
//
// # Validation
//
// NewGraph rejects duplicate entity names and tables, duplicate relationship
// keys on one entity, unknown targets and join columns that do not exist.
// Every failure wraps ErrInvalidSchema.
package schema

import (
	"github.com/pthm/autoload/pkg/sqldsl"
)

// Column is a mapped column.
type Column struct {
	Name       string     `json:"name"`
	Type       string     `json:"type,omitempty"`
	PrimaryKey bool       `json:"primary_key,omitempty"`
	References *ColumnRef `json:"references,omitempty"`
}

// ColumnRef is a foreign key target.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Entity is a mapped table together with its outgoing relationships.
type Entity struct {
	Name          string          `json:"name"`
	Table         string          `json:"table"`
	Columns       []Column        `json:"columns"`
	Relationships []*Relationship `json:"relationships,omitempty"`
	// Abstract entities are mixins; they cannot be the root of a query.
	Abstract bool `json:"abstract,omitempty"`
}

// C returns a handle on one of the entity's columns, qualified with its table.
// Conditions are written against these handles and retargeted to whatever alias
// the builder ends up using.
func (e *Entity) C(name string) sqldsl.Col {
	return sqldsl.Col{Table: e.Table, Column: name}
}

// Column looks up a column by name.
func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the entity maps a column with that name.
func (e *Entity) HasColumn(name string) bool {
	_, ok := e.Column(name)
	return ok
}

// ColumnNames returns the column names in declared order.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the primary key column names in declared order.
func (e *Entity) PrimaryKey() []string {
	var pk []string
	for _, c := range e.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// PK returns the first primary key column. Self-referential joins and the default
// capped ordering use it.
func (e *Entity) PK() string {
	pk := e.PrimaryKey()
	if len(pk) == 0 {
		return ""
	}
	return pk[0]
}

// Cols returns column handles for every mapped column, qualified with alias.
func (e *Entity) Cols(alias string) []sqldsl.Expr {
	cols := make([]sqldsl.Expr, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = sqldsl.Col{Table: alias, Column: c.Name}
	}
	return cols
}

// Relationship returns the outgoing edge with the given key.
func (e *Entity) Relationship(key string) (*Relationship, bool) {
	for _, r := range e.Relationships {
		if r.Key == key {
			return r, true
		}
	}
	return nil, false
}
