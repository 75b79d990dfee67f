package sqlgen

import (
	"fmt"
	"sort"

	"github.com/pthm/autoload/internal/resolve"
	"github.com/pthm/autoload/pkg/sqldsl"
)

// Names used by the row-number alignment.
const (
	rnCTE    = "_sqla_rn_cte"
	rnColumn = "_rn"
	rnSeries = "_sqla_rn"
	rnLabel  = "_sqla_rn"
	zipInner = "_sqla_inner"
)

// zipLevel is the shared row-number series of one depth. It is joined into the
// main statement right before the first lateral that uses it.
type zipLevel struct {
	alias  string
	joined bool
}

// planZip finds depths with two or more to-many paths and prepares a shared
// row-number series for each. Sibling laterals at such a depth are joined on
// their row number instead of ON TRUE, so N rows of one and M rows of another
// produce max(N, M) result rows per parent rather than N*M.
func (b *builder) planZip(paths []*resolve.Path) {
	if b.opts.Limit == nil || !b.opts.Alignment {
		return
	}

	depthPaths := make(map[int]map[string]bool)
	for _, p := range paths {
		for depth, rel := range p.Edges {
			selfRef := rel.SelfReferential() && rel.Target == b.root.Name
			if !rel.Many || selfRef {
				continue
			}
			if depthPaths[depth] == nil {
				depthPaths[depth] = make(map[string]bool)
			}
			depthPaths[depth][p.Cumulative(depth)] = true
		}
	}

	var depths []int
	for d, set := range depthPaths {
		if len(set) >= 2 {
			depths = append(depths, d)
		}
	}
	if len(depths) == 0 {
		return
	}
	sort.Ints(depths)

	upper := b.alignmentBound(paths, depths)

	cteCol := sqldsl.Col{Table: rnCTE, Column: rnColumn}
	counter := sqldsl.UnionAll{
		sqldsl.Select(sqldsl.SelectAs(sqldsl.Int(1), rnColumn)),
		sqldsl.Select(sqldsl.SelectAs(sqldsl.Add{Left: cteCol, Right: sqldsl.Int(1)}, rnColumn)).
			From(sqldsl.TableRef{Name: rnCTE}).
			AndWhere(sqldsl.Lt{Left: cteCol, Right: sqldsl.Int(upper)}),
	}
	if !b.main.HasCTE(rnCTE) {
		b.main = b.main.WithCTE(sqldsl.CTEDef{Name: rnCTE, Columns: []string{rnColumn}, Query: counter}, true)
	}

	for i, d := range depths {
		alias := rnSeries
		if i > 0 {
			alias = fmt.Sprintf("%s_%d", rnSeries, i)
		}
		b.zip[d] = &zipLevel{alias: alias}
	}
}

// alignmentBound is the largest row number any aligned lateral can need: the cap,
// or a larger LIMIT a condition at an aligned depth sets.
func (b *builder) alignmentBound(paths []*resolve.Path, depths []int) int {
	upper := *b.opts.Limit
	aligned := make(map[int]bool, len(depths))
	for _, d := range depths {
		aligned[d] = true
	}
	for _, p := range paths {
		for depth, rel := range p.Edges {
			if !aligned[depth] || !rel.Many {
				continue
			}
			cond, ok := b.opts.Conditions.Get(rel.Key)
			if !ok {
				continue
			}
			probe := cond(sqldsl.Select().WithLimit(*b.opts.Limit))
			if n, ok := probe.LimitValue(); ok && n > upper {
				upper = n
			}
		}
	}
	return upper
}

// joinSeries joins the row-number series of a level into the main statement
// once.
func (b *builder) joinSeries(lvl *zipLevel) {
	if lvl.joined {
		return
	}
	series := sqldsl.Select(sqldsl.Col{Table: rnCTE, Column: rnColumn}).From(sqldsl.TableRef{Name: rnCTE})
	b.main = b.main.LeftJoin(sqldsl.Subquery{Query: series, Alias: lvl.alias}, nil)
	lvl.joined = true
}

// numbered wraps inner so every row carries its position as _sqla_rn.
func numbered(inner sqldsl.SelectStmt, cols []string) sqldsl.SelectStmt {
	exprs := make([]sqldsl.Expr, 0, len(cols)+1)
	for _, c := range cols {
		exprs = append(exprs, sqldsl.Col{Table: zipInner, Column: c})
	}
	exprs = append(exprs, sqldsl.SelectAs(sqldsl.RowNumber{}, rnLabel))
	return sqldsl.Select(exprs...).From(sqldsl.Subquery{Query: inner, Alias: zipInner})
}
