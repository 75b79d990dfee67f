package sqlgen

import (
	"github.com/pthm/autoload/pkg/sqldsl"
)

// loadToOne plans a to-one edge. A target entity already reached elsewhere is
// loaded with SelectIn. A root edge whose table the base query already joins
// reads its columns from that join. Otherwise the target is LEFT JOINed into
// the parent's statement with any condition folded into the ON clause.
func (b *builder) loadToOne(e edge) *Load {
	where := b.criteria(e.rel, e.target)
	if e.isAlias {
		return b.separate(e, SelectIn, where)
	}

	pa, home := b.parentRef(e.parent)
	rel := e.rel
	table := e.target.Table

	if e.parent == nil && where == nil && rel.Association == nil {
		if alias, ok := b.baseJoin(table); ok {
			l := &Load{
				Rel:      rel,
				Target:   e.target,
				Path:     e.path,
				Strategy: ContainsEager,
				Alias:    alias,
			}
			b.addEager(nil, l)
			return l
		}
	}

	stmt := b.stmt(home)
	alias := table
	if sqldsl.HasTableName(stmt, alias) {
		alias = uniqueAlias(stmt, table+"_"+rel.Key)
	}
	filter := sqldsl.Retarget(where, table, alias)

	if assoc := rel.Association; assoc != nil {
		assocAlias := uniqueAlias(stmt, assoc.Table)
		stmt = stmt.
			LeftJoin(sqldsl.TableAs(assoc.Table, assocAlias), rel.PrimaryJoin(pa, assocAlias)).
			LeftJoin(sqldsl.TableAs(table, alias), joinOn(rel.SecondaryJoin(assocAlias, alias), filter))
	} else {
		stmt = stmt.LeftJoin(sqldsl.TableAs(table, alias), joinOn(rel.PrimaryJoin(pa, alias), filter))
	}
	b.setStmt(home, stmt)

	l := &Load{
		Rel:      rel,
		Target:   e.target,
		Path:     e.path,
		Strategy: eagerStrategy(home),
		Alias:    alias,
	}
	b.addEager(home, l)
	return l
}

// baseJoin finds an unclaimed join of table supplied by the base query and
// claims its alias.
func (b *builder) baseJoin(table string) (string, bool) {
	for _, j := range b.main.Joins[:b.baseJoins] {
		ref, ok := j.TableExpr.(sqldsl.TableRef)
		if !ok || ref.Name != table {
			continue
		}
		alias := ref.Visible()
		if b.claimed[alias] {
			continue
		}
		b.claimed[alias] = true
		return alias, true
	}
	return "", false
}
