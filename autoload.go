// Package autoload builds PostgreSQL SELECT statements that eager-load
// relationships of a root entity.
//
// # Overview
//
// Given a schema graph, a root entity and a list of relationship keys, Select
// returns one composed statement plus a loader tree describing where the rows
// of every relationship come from. Each edge gets one of four strategies:
//
//   - ContainsEager: the target is LEFT JOINed (or LEFT JOIN LATERAL'd) into the
//     main statement and its columns are read from the same rows.
//   - Joined: like ContainsEager, inside the statement of a separate query.
//   - Subquery: a separate query keyed by an IN sub-select that re-embeds the
//     parent statement.
//   - SelectIn: a separate query keyed by the collected parent key values.
//
// # Keys
//
// A plain key ("comments") is found by breadth-first search from the root, so it
// loads the shortest path to the first edge with that key. A dotted key
// ("posts.comments") is walked edge by edge and fails with an
// *UnknownRelationshipError when a segment does not exist. Plain keys that match
// nothing are ignored.
//
// # Capping
//
// By default every to-many relationship is capped to DefaultLimit rows per
// parent through a LATERAL sub-select ordered by primary key descending. When
// two or more capped relationships hang off the same depth, their rows are
// aligned by row number against a shared series so that N rows of one and M of
// another yield max(N, M) rows per parent instead of N*M.
//
// # Basic Usage
//
//	g, _ := schema.Load("schema.yaml")
//	al := autoload.New(g)
//	user, _ := g.Entity("User")
//
//	q, err := al.Select(user, []string{"posts", "roles"}, autoload.WithLimit(5))
//	res, err := autoload.Fetch(ctx, db, q)
//	for _, u := range autoload.UniqueScalars(res) {
//	    fmt.Println(u.String("name"), len(u.Many("posts")))
//	}
//
// Queries are cached by value. Select with the same arguments returns the same
// *Query; all *Query methods return copies.
package autoload

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pthm/autoload/internal/memo"
	"github.com/pthm/autoload/internal/resolve"
	"github.com/pthm/autoload/internal/sqlgen"
	"github.com/pthm/autoload/schema"
)

// Autoloader builds queries over one schema graph. It is safe for concurrent
// use.
type Autoloader struct {
	graph     *schema.Graph
	resolver  *resolve.Resolver
	queries   *memo.Cache[*Query]
	log       *slog.Logger
	cacheSize int
}

// New creates an Autoloader for g.
func New(g *schema.Graph, opts ...Option) *Autoloader {
	a := &Autoloader{graph: g}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	a.resolver = resolve.New(g, a.cacheSize)
	a.queries = memo.New[*Query](a.cacheSize)
	return a
}

// Graph returns the schema graph queries are built over.
func (a *Autoloader) Graph() *schema.Graph {
	return a.graph
}

// Select builds the query for entity with the given relationship keys.
func (a *Autoloader) Select(entity *schema.Entity, loads []string, opts ...SelectOption) (*Query, error) {
	cfg := defaultSelectConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: <nil>", ErrUnknownEntity)
	}
	if cfg.selfKey == "" {
		cfg.selfKey = schema.FindSelfKey(entity)
	}

	return a.queries.Do(cacheKey(entity, loads, cfg), func() (*Query, error) {
		plan, err := sqlgen.Build(a.resolver, entity, loads, sqlgen.Options{
			Limit:        cfg.limit,
			Conditions:   cfg.conditions,
			SelfKey:      cfg.selfKey,
			OrderBy:      cfg.orderBy,
			Base:         cfg.base,
			Distinct:     cfg.distinct,
			ManyLoad:     cfg.manyLoad,
			ManyLoadName: cfg.manyLoadName,
			CheckTables:  cfg.checkTables,
			Alignment:    cfg.alignment,
			Logger:       a.log,
		})
		if err != nil {
			return nil, err
		}
		return &Query{graph: a.graph, plan: plan, log: a.log}, nil
	})
}

// cacheKey is the value identity of a Select call.
func cacheKey(entity *schema.Entity, loads []string, cfg selectConfig) string {
	var sb strings.Builder
	sb.WriteString(entity.Name)
	sb.WriteString("\x01")
	sb.WriteString(strings.Join(loads, "\x00"))
	sb.WriteString("\x01")
	if cfg.limit != nil {
		fmt.Fprintf(&sb, "%d", *cfg.limit)
	} else {
		sb.WriteString("nil")
	}
	fmt.Fprintf(&sb, "\x01%s\x01%s\x01%s\x01", cfg.conditions.Key(), cfg.selfKey, strings.Join(cfg.orderBy, ","))
	if cfg.base != nil {
		sb.WriteString(cfg.base.SQL())
	}
	fmt.Fprintf(&sb, "\x01%t\x01%d\x01%s\x01%t\x01%t",
		cfg.distinct, cfg.manyLoad, cfg.manyLoadName, cfg.alignment, cfg.checkTables)
	return sb.String()
}

var (
	defaultsMu sync.Mutex
	defaults   = make(map[*schema.Graph]*Autoloader)
)

// Default returns the shared Autoloader for g, creating it on first use.
func Default(g *schema.Graph) *Autoloader {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	a, ok := defaults[g]
	if !ok {
		a = New(g)
		defaults[g] = a
	}
	return a
}

// Select is Default(g).Select.
func Select(g *schema.Graph, entity *schema.Entity, loads []string, opts ...SelectOption) (*Query, error) {
	return Default(g).Select(entity, loads, opts...)
}
