package sqlgen

import (
	"fmt"

	"github.com/pthm/autoload/pkg/sqldsl"
)

// loadSelf plans an edge from the root entity back to itself. The first such
// edge is joined under the alias {table}_{key}; later ones run as SelectIn so
// the two sides never share an alias.
func (b *builder) loadSelf(e edge) (*Load, error) {
	selfKey := b.opts.SelfKey
	if selfKey == "" {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingSelfKey, e.rel.Source, e.rel.Key)
	}
	target := e.target
	if !target.HasColumn(selfKey) {
		return nil, fmt.Errorf("%w: self_key %q on %s", ErrUnknownColumn, selfKey, target.Name)
	}

	where := b.criteria(e.rel, target)
	if b.selfRefLoaded {
		return b.separate(e, SelectIn, where), nil
	}

	pa, home := b.parentRef(e.parent)
	table := target.Table
	alias := table + "_" + e.rel.Key
	filter := sqldsl.Retarget(where, table, alias)
	pk := target.PK()
	stmt := b.stmt(home)

	if e.rel.Many {
		corr := sqldsl.Eq{
			Left:  sqldsl.Col{Table: pa, Column: pk},
			Right: sqldsl.Col{Table: alias, Column: selfKey},
		}
		if b.opts.Limit != nil {
			order, err := b.orderTerms(target, alias)
			if err != nil {
				return nil, err
			}
			inner := sqldsl.Select(target.Cols(alias)...).
				From(sqldsl.TableAs(table, alias)).
				AndWhere(corr, filter).
				OrderBy(order...).
				WithLimit(*b.opts.Limit)
			stmt = stmt.LeftJoin(sqldsl.Subquery{Query: inner, Alias: alias, Lateral: true}, nil)
		} else {
			stmt = stmt.LeftJoin(sqldsl.TableAs(table, alias), joinOn(corr, filter))
		}
	} else {
		corr := sqldsl.Eq{
			Left:  sqldsl.Col{Table: pa, Column: selfKey},
			Right: sqldsl.Col{Table: alias, Column: pk},
		}
		stmt = stmt.LeftJoin(sqldsl.TableAs(table, alias), joinOn(corr, filter))
	}
	b.setStmt(home, stmt)
	b.selfRefLoaded = true

	l := &Load{
		Rel:      e.rel,
		Target:   target,
		Path:     e.path,
		Strategy: eagerStrategy(home),
		Alias:    alias,
	}
	b.addEager(home, l)
	return l, nil
}

// joinOn ANDs an optional filter onto a join condition.
func joinOn(cond, filter sqldsl.Expr) sqldsl.Expr {
	if filter == nil {
		return cond
	}
	return sqldsl.And(cond, filter)
}
