package sqlgen

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pthm/autoload/pkg/sqldsl"
)

// Condition filters the rows of one relationship. It receives a select over the
// relationship's target table and returns a modified copy; everything except
// WHERE is ignored when the condition is used as join or separate-query
// criteria.
type Condition func(sqldsl.SelectStmt) sqldsl.SelectStmt

// conditionEntry gives each registered function an identity usable in cache keys.
// IDs are never reused within a process.
type conditionEntry struct {
	id uint64
	fn Condition
}

var conditionIDs atomic.Uint64

func newEntry(fn Condition) *conditionEntry {
	return &conditionEntry{id: conditionIDs.Add(1), fn: fn}
}

// Conditions is an immutable map from relationship key to Condition. Two values
// are Equal when they map the same keys to the same registrations, so reusing a
// Conditions value across calls keeps query cache keys stable.
type Conditions struct {
	m map[string]*conditionEntry
}

// NewConditions freezes m. Later changes to m are not observed.
func NewConditions(m map[string]Condition) Conditions {
	if len(m) == 0 {
		return Conditions{}
	}
	frozen := make(map[string]*conditionEntry, len(m))
	for k, fn := range m {
		if fn != nil {
			frozen[k] = newEntry(fn)
		}
	}
	return Conditions{m: frozen}
}

// Get returns the condition for a relationship key.
func (c Conditions) Get(key string) (Condition, bool) {
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// Len returns the number of keys.
func (c Conditions) Len() int {
	return len(c.m)
}

// Keys returns the keys sorted.
func (c Conditions) Keys() []string {
	keys := make([]string, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy with key mapped to fn. A nil fn removes the key.
func (c Conditions) With(key string, fn Condition) Conditions {
	out := make(map[string]*conditionEntry, len(c.m)+1)
	for k, e := range c.m {
		out[k] = e
	}
	if fn == nil {
		delete(out, key)
	} else {
		out[key] = newEntry(fn)
	}
	return Conditions{m: out}
}

// Equal reports whether both values hold the same registrations.
func (c Conditions) Equal(o Conditions) bool {
	if len(c.m) != len(o.m) {
		return false
	}
	for k, e := range c.m {
		if o.m[k] != e {
			return false
		}
	}
	return true
}

// Key is an order-independent fingerprint suitable for cache keys.
func (c Conditions) Key() string {
	if len(c.m) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, k := range c.Keys() {
		fmt.Fprintf(&sb, "%s=%d;", k, c.m[k].id)
	}
	return sb.String()
}

// AddConditions returns a Condition that ANDs exprs into the WHERE clause.
func AddConditions(exprs ...sqldsl.Expr) Condition {
	return func(s sqldsl.SelectStmt) sqldsl.SelectStmt {
		return s.AndWhere(exprs...)
	}
}

// whereOf runs cond against a bare select over table and returns the WHERE it
// produced, or nil.
func whereOf(cond Condition, table string) sqldsl.Expr {
	if cond == nil {
		return nil
	}
	return cond(sqldsl.Select().From(sqldsl.TableRef{Name: table})).Where
}
