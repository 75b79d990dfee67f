package hydrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pthm/autoload/internal/sqlgen"
	"github.com/pthm/autoload/pkg/sqldsl"
	"github.com/pthm/autoload/schema"
)

// DefaultBatchSize is the number of parent keys per SelectIn statement.
const DefaultBatchSize = 500

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Options configure a Fetch.
type Options struct {
	Logger    *slog.Logger
	BatchSize int
}

// Result holds the root records of a fetch, one per returned row.
type Result struct {
	rows []*Record
}

// Rows returns one root record per row of the main statement. A root joined to
// several capped children appears once per row.
func (r *Result) Rows() []*Record {
	return r.rows
}

// UniqueScalars returns the distinct root records in first-seen order.
func UniqueScalars(r *Result) []*Record {
	seen := make(map[*Record]bool, len(r.rows))
	out := make([]*Record, 0, len(r.rows))
	for _, rec := range r.rows {
		if !seen[rec] {
			seen[rec] = true
			out = append(out, rec)
		}
	}
	return out
}

// reached is the ordered, duplicate-free set of records one load produced.
type reached struct {
	recs []*Record
	set  map[*Record]bool
}

func (s *reached) add(r *Record) {
	if s.set == nil {
		s.set = make(map[*Record]bool)
	}
	if !s.set[r] {
		s.set[r] = true
		s.recs = append(s.recs, r)
	}
}

type fetcher struct {
	db    Querier
	plan  *sqlgen.Plan
	args  []any
	log   *slog.Logger
	batch int

	ident     map[string]*Record
	roots     reached
	byLoad    map[*sqlgen.Load]*reached
	effective map[*sqlgen.Load]embedded
}

// embedded is the statement and arguments a separate load ran with, across all
// of its batches. Subquery children re-embed it.
type embedded struct {
	stmt sqldsl.SelectStmt
	args []any
}

// Fetch runs the main statement of plan with args, then every separate-query
// load in planning order, and stitches the rows into records.
func Fetch(ctx context.Context, db Querier, plan *sqlgen.Plan, args []any, opts Options) (*Result, error) {
	f := &fetcher{
		db:        db,
		plan:      plan,
		args:      args,
		log:       opts.Logger,
		batch:     opts.BatchSize,
		ident:     make(map[string]*Record),
		byLoad:    make(map[*sqlgen.Load]*reached),
		effective: make(map[*sqlgen.Load]embedded),
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	if f.batch <= 0 {
		f.batch = DefaultBatchSize
	}

	res, err := f.main(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range plan.Separate() {
		if err := f.separate(ctx, l); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (f *fetcher) main(ctx context.Context) (*Result, error) {
	root := f.plan.Root
	res := &Result{}
	err := f.query(ctx, f.plan.Stmt.SQL(), f.args, func(vals []any) {
		rec := f.record(root, vals)
		if rec == nil {
			return
		}
		f.roots.add(rec)
		res.rows = append(res.rows, rec)
		f.eager(f.plan.Eager, 0, nil, rec, vals)
	})
	if err != nil {
		return nil, fmt.Errorf("autoload: main query: %w", err)
	}
	return res, nil
}

// eager reads the columns of loads joined into one statement row. home is the
// separate load owning the statement (nil for the main statement) and homeRec
// the record read for it on this row.
func (f *fetcher) eager(loads []*sqlgen.Load, shift int, home *sqlgen.Load, homeRec *Record, vals []any) {
	row := map[*sqlgen.Load]*Record{home: homeRec}
	for _, l := range loads {
		parent := row[l.Parent]
		if parent == nil {
			continue
		}
		parent.markLoaded(l.Rel.Key)
		start := shift + l.Offset
		child := f.record(l.Target, vals[start:start+len(l.Target.Columns)])
		if child == nil {
			continue
		}
		parent.attach(l.Rel.Key, child)
		f.reach(l).add(child)
		row[l] = child
	}
}

func (f *fetcher) reach(l *sqlgen.Load) *reached {
	s, ok := f.byLoad[l]
	if !ok {
		s = &reached{}
		f.byLoad[l] = s
	}
	return s
}

// parents returns the records the load hangs off.
func (f *fetcher) parents(l *sqlgen.Load) []*Record {
	if l.Parent == nil {
		return f.roots.recs
	}
	if s, ok := f.byLoad[l.Parent]; ok {
		return s.recs
	}
	return nil
}

func (f *fetcher) separate(ctx context.Context, l *sqlgen.Load) error {
	parents := f.parents(l)
	local := l.Rel.LocalColumns()

	index := make(map[string][]*Record)
	var keys [][]any
	for _, p := range parents {
		p.markLoaded(l.Rel.Key)
		kv := make([]any, len(local))
		for i, c := range local {
			kv[i] = p.Values[c]
		}
		k, ok := valuesKey("", kv)
		if !ok {
			continue
		}
		if _, dup := index[k]; !dup {
			keys = append(keys, kv)
		}
		index[k] = append(index[k], p)
	}
	if len(keys) == 0 {
		return nil
	}

	link := make([]sqldsl.Expr, len(l.LinkCols))
	for i, c := range l.LinkCols {
		link[i] = c
	}
	base := l.Stmt.Columns(append(link, l.Stmt.ColumnExprs...)...)

	if l.Strategy == sqlgen.SelectIn {
		all, allArgs := f.selectIn(base, link, keys)
		f.effective[l] = embedded{stmt: all, args: allArgs}
		for start := 0; start < len(keys); start += f.batch {
			end := min(start+f.batch, len(keys))
			stmt, args := f.selectIn(base, link, keys[start:end])
			if err := f.run(ctx, l, stmt, args, index); err != nil {
				return err
			}
		}
		return nil
	}

	parent, args := f.parentKeys(l)
	stmt := base.AndWhere(sqldsl.InQuery{Left: link, Query: parent})
	f.effective[l] = embedded{stmt: stmt, args: args}
	return f.run(ctx, l, stmt, args, index)
}

// selectIn adds a parameterized IN over keys. Placeholders are numbered from
// $1 and the key values are the only arguments.
func (f *fetcher) selectIn(base sqldsl.SelectStmt, link []sqldsl.Expr, keys [][]any) (sqldsl.SelectStmt, []any) {
	args := make([]any, 0, len(keys)*len(link))
	values := make([]sqldsl.Expr, len(keys))
	for i, kv := range keys {
		tuple := make(sqldsl.Tuple, len(kv))
		for j, v := range kv {
			args = append(args, v)
			tuple[j] = sqldsl.Param(len(args))
		}
		values[i] = tuple
	}
	return base.AndWhere(sqldsl.In{Expr: sqldsl.Tuple(link), Values: values}), args
}

// parentKeys re-embeds the statement the parent rows came from, selecting only
// the parent's local key columns.
func (f *fetcher) parentKeys(l *sqlgen.Load) (sqldsl.SelectStmt, []any) {
	alias := f.plan.RootAlias
	src := embedded{stmt: f.plan.Stmt, args: f.args}
	if p := l.Parent; p != nil {
		alias = p.Alias
		if p.Home != nil {
			src = f.effective[p.Home]
		}
	}
	cols := make([]sqldsl.Expr, 0, len(l.Rel.On))
	for _, c := range l.Rel.LocalColumns() {
		cols = append(cols, sqldsl.Col{Table: alias, Column: c})
	}
	return src.stmt.Columns(cols...), src.args
}

func (f *fetcher) run(ctx context.Context, l *sqlgen.Load, stmt sqldsl.SelectStmt, args []any, index map[string][]*Record) error {
	nlink := len(l.LinkCols)
	n := 0
	err := f.query(ctx, stmt.SQL(), args, func(vals []any) {
		n++
		k, ok := valuesKey("", vals[:nlink])
		if !ok {
			return
		}
		child := f.record(l.Target, vals[nlink:nlink+len(l.Target.Columns)])
		if child == nil {
			return
		}
		for _, p := range index[k] {
			p.attach(l.Rel.Key, child)
		}
		f.reach(l).add(child)
		f.eager(l.Eager, nlink, l, child, vals)
	})
	if err != nil {
		return fmt.Errorf("autoload: load %s: %w", l.Path, err)
	}
	f.log.Debug("separate load", "load", l.Path, "strategy", l.Strategy.String(), "rows", n)
	return nil
}

// record returns the identity-mapped record for the leading columns of vals,
// or nil when the primary key is NULL.
func (f *fetcher) record(e *schema.Entity, vals []any) *Record {
	pk := make([]any, 0, 1)
	for i, c := range e.Columns {
		if c.PrimaryKey {
			pk = append(pk, vals[i])
		}
	}
	k, ok := identityKey(e, pk)
	if !ok {
		return nil
	}
	if r, hit := f.ident[k]; hit {
		return r
	}
	r := newRecord(e, vals)
	f.ident[k] = r
	return r
}

func (f *fetcher) query(ctx context.Context, query string, args []any, fn func([]any)) error {
	rows, err := f.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		fn(vals)
	}
	return rows.Err()
}
