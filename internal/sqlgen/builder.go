package sqlgen

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pthm/autoload/internal/resolve"
	"github.com/pthm/autoload/pkg/sqldsl"
	"github.com/pthm/autoload/schema"
)

// builder holds the state of one Build call. It is never shared.
type builder struct {
	resolver *resolve.Resolver
	graph    *schema.Graph
	root     *schema.Entity
	opts     Options
	log      *slog.Logger

	main      sqldsl.SelectStmt
	rootAlias string
	baseJoins int             // joins carried in by Options.Base
	claimed   map[string]bool // base join aliases already serving a to-one load
	mainEager []*Load
	top       []*Load

	seen          map[string]bool  // entity names reached so far, root included
	loaded        map[string]*Load // cumulative path -> load
	assocLaterals map[lateralKey]string
	zip           map[int]*zipLevel
	selfRefLoaded bool
	firstLoad     map[string]*Load

	manyLoad       ManyLoad
	manyLoadWarned bool
	warnings       []string
}

// lateralKey identifies a lateral over table correlated to parent alias.
type lateralKey struct {
	parent string
	table  string
}

// edge is one relationship hop being folded.
type edge struct {
	rel     *schema.Relationship
	target  *schema.Entity
	parent  *Load
	depth   int
	path    string
	isAlias bool
}

// Build plans the statement for root with the given relationship paths.
func Build(r *resolve.Resolver, root *schema.Entity, loads []string, opts Options) (*Plan, error) {
	g := r.Graph()
	if !g.Contains(root) {
		name := "<nil>"
		if root != nil {
			name = root.Name
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	if root.Abstract {
		return nil, fmt.Errorf("%w: %s", ErrAbstractEntity, root.Name)
	}

	b := &builder{
		resolver:      r,
		graph:         g,
		root:          root,
		opts:          opts,
		log:           opts.logger(),
		seen:          map[string]bool{root.Name: true},
		loaded:        make(map[string]*Load),
		assocLaterals: make(map[lateralKey]string),
		zip:           make(map[int]*zipLevel),
		firstLoad:     make(map[string]*Load),
		claimed:       make(map[string]bool),
		manyLoad:      opts.ManyLoad,
	}
	b.initMain()

	paths, err := b.resolveAll(loads)
	if err != nil {
		return nil, err
	}
	paths = reorder(paths, g)
	b.planZip(paths)

	for _, p := range paths {
		if err := b.fold(p); err != nil {
			return nil, err
		}
	}

	if opts.Distinct {
		b.main = b.main.SetDistinct(true)
	}
	return &Plan{
		Root:      root,
		RootAlias: b.rootAlias,
		Stmt:      b.main,
		Loads:     b.top,
		Eager:     b.mainEager,
		Warnings:  b.warnings,
	}, nil
}

func (b *builder) initMain() {
	if b.opts.Base == nil {
		b.rootAlias = b.root.Table
		b.main = sqldsl.Select(b.root.Cols(b.rootAlias)...).From(sqldsl.TableRef{Name: b.root.Table})
		return
	}
	stmt := *b.opts.Base
	if stmt.FromExpr == nil {
		stmt = stmt.From(sqldsl.TableRef{Name: b.root.Table})
	}
	b.rootAlias = stmt.FromAlias()
	b.baseJoins = len(stmt.Joins)
	b.main = stmt.Columns(b.root.Cols(b.rootAlias)...)
}

// resolveAll resolves dotted paths (deepest first) and then plain keys, dropping
// keys that match nothing.
func (b *builder) resolveAll(loads []string) ([]*resolve.Path, error) {
	var dotted, simple []string
	for _, l := range loads {
		if strings.Contains(l, ".") {
			dotted = append(dotted, l)
		} else {
			simple = append(simple, l)
		}
	}
	sort.SliceStable(dotted, func(i, j int) bool {
		return strings.Count(dotted[i], ".") > strings.Count(dotted[j], ".")
	})

	var paths []*resolve.Path
	for _, key := range append(dotted, simple...) {
		p, err := b.resolver.Resolve(b.root.Name, key)
		if err != nil {
			return nil, err
		}
		if !p.Empty() {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// reorder moves a top-level direct edge ahead of a top-level many-to-many edge
// whose association table is that edge's target table.
func reorder(paths []*resolve.Path, g *schema.Graph) []*resolve.Path {
	type pair struct{ direct, assoc int }
	idx := make(map[string]*pair)
	var tables []string
	entry := func(table string) *pair {
		p, ok := idx[table]
		if !ok {
			p = &pair{direct: -1, assoc: -1}
			idx[table] = p
			tables = append(tables, table)
		}
		return p
	}

	for i, p := range paths {
		rel := p.Edges[0]
		if rel.Association != nil {
			entry(rel.Association.Table).assoc = i
			continue
		}
		entry(g.Target(rel).Table).direct = i
	}

	out := append([]*resolve.Path(nil), paths...)
	for _, t := range tables {
		p := idx[t]
		if p.direct >= 0 && p.assoc >= 0 && p.direct > p.assoc {
			out[p.direct], out[p.assoc] = out[p.assoc], out[p.direct]
		}
	}
	return out
}

// fold walks one path, reusing loads planned for shared prefixes.
func (b *builder) fold(p *resolve.Path) error {
	var parent *Load
	for depth, rel := range p.Edges {
		path := p.Cumulative(depth)
		target := b.graph.Target(rel)

		if l, ok := b.loaded[path]; ok {
			b.seen[target.Name] = true
			parent = l
			continue
		}

		e := edge{
			rel:     rel,
			target:  target,
			parent:  parent,
			depth:   depth,
			path:    path,
			isAlias: b.seen[target.Name],
		}
		l, err := b.loadEdge(e)
		if err != nil {
			return err
		}
		b.loaded[path] = l
		b.attach(parent, l)

		if e.isAlias && !rel.Many {
			b.extraSelectIn(e)
		}
		if _, ok := b.firstLoad[target.Name]; !ok {
			b.firstLoad[target.Name] = l
		}
		b.seen[target.Name] = true
		parent = l
	}
	return nil
}

func (b *builder) attach(parent, l *Load) {
	l.Parent = parent
	if parent == nil {
		b.top = append(b.top, l)
		return
	}
	parent.Children = append(parent.Children, l)
}

// loadEdge picks the strategy for a new edge.
func (b *builder) loadEdge(e edge) (*Load, error) {
	switch {
	case e.rel.SelfReferential() && e.rel.Target == b.root.Name:
		return b.loadSelf(e)
	case e.rel.Many && b.opts.Limit == nil:
		return b.separate(e, b.manyLoadStrategy(), b.criteria(e.rel, e.target)), nil
	case e.rel.Many:
		return b.loadLateral(e)
	default:
		return b.loadToOne(e), nil
	}
}

func (b *builder) manyLoadStrategy() Strategy {
	if b.opts.ManyLoadName == "" {
		return b.manyLoad.Strategy()
	}
	m, ok := ParseManyLoad(b.opts.ManyLoadName)
	if !ok && !b.manyLoadWarned {
		msg := fmt.Sprintf("Unknown many_load strategy: %s. Using subqueryload.", b.opts.ManyLoadName)
		b.warnings = append(b.warnings, msg)
		b.log.Warn("Unknown many_load strategy, using subqueryload", "many_load", b.opts.ManyLoadName)
		b.manyLoadWarned = true
	}
	return m.Strategy()
}

// criteria returns the WHERE a condition registered for rel produces against
// the target table.
func (b *builder) criteria(rel *schema.Relationship, target *schema.Entity) sqldsl.Expr {
	cond, ok := b.opts.Conditions.Get(rel.Key)
	if !ok {
		return nil
	}
	return whereOf(cond, target.Table)
}

// parentRef returns the alias the parent's columns are qualified with and the
// home of the statement they live in.
func (b *builder) parentRef(parent *Load) (string, *Load) {
	if parent == nil {
		return b.rootAlias, nil
	}
	return parent.Alias, parent.Home
}

func (b *builder) stmt(home *Load) sqldsl.SelectStmt {
	if home == nil {
		return b.main
	}
	return home.Stmt
}

func (b *builder) setStmt(home *Load, s sqldsl.SelectStmt) {
	if home == nil {
		b.main = s
		return
	}
	home.Stmt = s
}

// addEager appends the load's target columns to its home statement.
func (b *builder) addEager(home *Load, l *Load) {
	s := b.stmt(home)
	l.Home = home
	l.Offset = len(s.ColumnExprs)
	b.setStmt(home, s.AddColumns(l.Target.Cols(l.Alias)...))
	if home == nil {
		b.mainEager = append(b.mainEager, l)
	} else {
		home.Eager = append(home.Eager, l)
	}
}

func eagerStrategy(home *Load) Strategy {
	if home == nil {
		return ContainsEager
	}
	return Joined
}

// separate plans a load that runs its own statement.
func (b *builder) separate(e edge, strategy Strategy, criteria sqldsl.Expr) *Load {
	alias := e.target.Table
	stmt := sqldsl.Select(e.target.Cols(alias)...).From(sqldsl.TableRef{Name: e.target.Table})

	var link []sqldsl.Col
	if assoc := e.rel.Association; assoc != nil {
		stmt = stmt.Join(sqldsl.TableRef{Name: assoc.Table}, e.rel.SecondaryJoin(assoc.Table, alias))
		for _, c := range e.rel.RemoteColumns() {
			link = append(link, sqldsl.Col{Table: assoc.Table, Column: c})
		}
	} else {
		for _, c := range e.rel.RemoteColumns() {
			link = append(link, sqldsl.Col{Table: alias, Column: c})
		}
		if f := e.rel.TargetFilter(alias); f != nil {
			stmt = stmt.AndWhere(f)
		}
	}
	if criteria != nil {
		stmt = stmt.AndWhere(criteria)
	}

	l := &Load{
		Rel:      e.rel,
		Target:   e.target,
		Path:     e.path,
		Strategy: strategy,
		Alias:    alias,
		Criteria: criteria,
		Stmt:     stmt,
		LinkCols: link,
	}
	l.Home = l
	return l
}

// extraSelectIn registers the same to-one edge under the first load of the
// parent entity, so records reached first through that load get it populated.
func (b *builder) extraSelectIn(e edge) {
	first, ok := b.firstLoad[e.rel.Source]
	if !ok || first == e.parent {
		return
	}
	for _, c := range first.Children {
		if c.Rel == e.rel {
			return
		}
	}
	extra := b.separate(edge{
		rel:    e.rel,
		target: e.target,
		parent: first,
		depth:  first.Depth(),
		path:   first.Path + "." + e.rel.Key,
	}, SelectIn, b.criteria(e.rel, e.target))
	extra.Extra = true
	b.attach(first, extra)
}

// orderTerms returns the ORDER BY of a capped sub-select over target.
func (b *builder) orderTerms(target *schema.Entity, alias string) ([]sqldsl.OrderTerm, error) {
	cols := b.opts.OrderBy
	if len(cols) == 0 {
		cols = target.PrimaryKey()
	}
	terms := make([]sqldsl.OrderTerm, 0, len(cols))
	for _, c := range cols {
		if !target.HasColumn(c) {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownColumn, c, target.Name)
		}
		terms = append(terms, sqldsl.Desc(sqldsl.Col{Table: alias, Column: c}))
	}
	return terms, nil
}

// uniqueAlias returns base, or base with a numeric suffix, such that the name is
// not yet visible in stmt.
func uniqueAlias(stmt sqldsl.SelectStmt, base string) string {
	name := base
	for i := 1; sqldsl.HasTableName(stmt, name); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}
