package hydrate

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/pthm/autoload/schema"
)

// Record is one hydrated entity row and the relationships loaded onto it.
// Records are identity-mapped per fetch: the same primary key reached through
// several paths yields the same *Record.
type Record struct {
	Entity *schema.Entity
	// Values maps column name to the value the driver returned.
	Values map[string]any

	rels   map[string][]*Record
	loaded map[string]bool
	order  []string
}

func newRecord(e *schema.Entity, vals []any) *Record {
	r := &Record{
		Entity: e,
		Values: make(map[string]any, len(e.Columns)),
	}
	for i, c := range e.Columns {
		r.Values[c.Name] = vals[i]
	}
	return r
}

// Get returns the raw value of a column, or nil.
func (r *Record) Get(col string) any {
	return r.Values[col]
}

// Int64 returns a column converted with cast.
func (r *Record) Int64(col string) int64 {
	return cast.ToInt64(r.Values[col])
}

// String returns a column converted with cast.
func (r *Record) String(col string) string {
	return cast.ToString(r.Values[col])
}

// Bool returns a column converted with cast.
func (r *Record) Bool(col string) bool {
	return cast.ToBool(r.Values[col])
}

// Loaded reports whether the relationship was part of the fetch, even if it
// turned out empty.
func (r *Record) Loaded(key string) bool {
	return r.loaded[key]
}

// Many returns the related records of a relationship in arrival order.
func (r *Record) Many(key string) []*Record {
	return r.rels[key]
}

// One returns the related record of a to-one relationship, or nil.
func (r *Record) One(key string) *Record {
	if rs := r.rels[key]; len(rs) > 0 {
		return rs[0]
	}
	return nil
}

func (r *Record) markLoaded(key string) {
	if r.loaded == nil {
		r.loaded = make(map[string]bool)
		r.rels = make(map[string][]*Record)
	}
	if !r.loaded[key] {
		r.loaded[key] = true
		r.order = append(r.order, key)
	}
}

// attach adds child under key unless it is already there.
func (r *Record) attach(key string, child *Record) {
	r.markLoaded(key)
	for _, c := range r.rels[key] {
		if c == child {
			return
		}
	}
	r.rels[key] = append(r.rels[key], child)
}

// MarshalJSON renders the columns and loaded relationships. A record that is
// already being rendered higher up the tree is rendered with its columns only.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.tree(make(map[*Record]bool)))
}

func (r *Record) tree(open map[*Record]bool) map[string]any {
	out := make(map[string]any, len(r.Values)+len(r.order))
	for k, v := range r.Values {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out[k] = v
	}
	if open[r] {
		return out
	}
	open[r] = true
	defer delete(open, r)

	for _, key := range r.order {
		rel, _ := r.Entity.Relationship(key)
		if rel != nil && !rel.Many {
			if c := r.One(key); c != nil {
				out[key] = c.tree(open)
			} else {
				out[key] = nil
			}
			continue
		}
		list := make([]map[string]any, 0, len(r.rels[key]))
		for _, c := range r.rels[key] {
			list = append(list, c.tree(open))
		}
		out[key] = list
	}
	return out
}

// identityKey builds the identity-map key of a row: entity name plus primary
// key values. ok is false when any key value is NULL.
func identityKey(e *schema.Entity, pk []any) (string, bool) {
	return valuesKey(e.Name, pk)
}

func valuesKey(prefix string, vals []any) (string, bool) {
	key := prefix
	for _, v := range vals {
		if v == nil {
			return "", false
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		key += fmt.Sprintf("\x00%v", v)
	}
	return key, true
}
