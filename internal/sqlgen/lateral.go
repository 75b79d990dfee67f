package sqlgen

import (
	"github.com/pthm/autoload/pkg/sqldsl"
)

// loadLateral plans a capped to-many edge as a LEFT JOIN LATERAL sub-select
// correlated to the parent alias.
func (b *builder) loadLateral(e edge) (*Load, error) {
	pa, home := b.parentRef(e.parent)
	target := e.target
	rel := e.rel
	limit := *b.opts.Limit

	assoc := rel.Association
	reuse := ""
	if assoc != nil {
		reuse = b.assocLaterals[lateralKey{parent: pa, table: assoc.Table}]
	}

	order, err := b.orderTerms(target, target.Table)
	if err != nil {
		return nil, err
	}
	inner := sqldsl.Select(target.Cols(target.Table)...).
		From(sqldsl.TableRef{Name: target.Table}).
		OrderBy(order...).
		WithLimit(limit)
	if assoc != nil && reuse == "" {
		inner = inner.
			From(sqldsl.TableRef{Name: assoc.Table}).
			Join(sqldsl.TableRef{Name: target.Table}, rel.SecondaryJoin(assoc.Table, target.Table))
	}
	if cond, ok := b.opts.Conditions.Get(rel.Key); ok {
		inner = cond(inner)
	}

	// A parent alias equal to the target table would be shadowed inside the
	// sub-select.
	innerAlias := target.Table
	if pa == target.Table {
		innerAlias = target.Table + "_inner"
		inner = aliasTable(inner, target.Table, innerAlias)
	}

	var corr sqldsl.Expr
	switch {
	case assoc == nil:
		corr = rel.PrimaryJoin(pa, innerAlias)
	case reuse != "":
		corr = rel.SecondaryJoin(reuse, innerAlias)
	default:
		corr = rel.PrimaryJoin(pa, assoc.Table)
	}
	inner = inner.AndWhere(corr)

	stmt := b.stmt(home)
	name := target.Table
	if e.isAlias {
		name = target.Table + "_" + rel.Key
	}
	if b.opts.CheckTables && sqldsl.HasTableName(stmt, name) {
		name += "_alias"
	}

	var on sqldsl.Expr
	lvl := b.zip[e.depth]
	if home == nil && lvl != nil && (assoc == nil || reuse == "") {
		inner = numbered(inner, target.ColumnNames())
		b.joinSeries(lvl)
		stmt = b.main
		on = sqldsl.Eq{
			Left:  sqldsl.Col{Table: name, Column: rnLabel},
			Right: sqldsl.Col{Table: lvl.alias, Column: rnColumn},
		}
	}
	b.setStmt(home, stmt.LeftJoin(sqldsl.Subquery{Query: inner, Alias: name, Lateral: true}, on))

	l := &Load{
		Rel:      rel,
		Target:   target,
		Path:     e.path,
		Strategy: eagerStrategy(home),
		Alias:    name,
	}
	b.addEager(home, l)
	b.assocLaterals[lateralKey{parent: pa, table: target.Table}] = name
	return l, nil
}

// aliasTable renames every unaliased reference to table in stmt, including its
// FROM and JOIN entries.
func aliasTable(stmt sqldsl.SelectStmt, table, alias string) sqldsl.SelectStmt {
	out := sqldsl.RetargetStmt(stmt, table, alias)
	rename := func(t sqldsl.TableExpr) sqldsl.TableExpr {
		if ref, ok := t.(sqldsl.TableRef); ok && ref.Name == table && ref.Alias == "" {
			return sqldsl.TableRef{Name: table, Alias: alias}
		}
		return t
	}
	out.FromExpr = rename(out.FromExpr)
	for i, j := range out.Joins {
		out.Joins[i].TableExpr = rename(j.TableExpr)
	}
	return out
}
