package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pthm/autoload"
	"github.com/pthm/autoload/internal/cli"
	"github.com/pthm/autoload/schema"
)

// queryFlags are shared by the commands that build a query.
type queryFlags struct {
	schema      string
	limit       int
	noLimit     bool
	selfKey     string
	orderBy     []string
	manyLoad    string
	distinct    bool
	checkTables bool
	noAlign     bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.schema, "schema", "", "path to the schema YAML file")
	fs.IntVar(&f.limit, "limit", 0, "cap per parent for to-many relationships")
	fs.BoolVar(&f.noLimit, "no-limit", false, "load to-many relationships in full")
	fs.StringVar(&f.selfKey, "self-key", "", "foreign key column of self-referential relationships")
	fs.StringSliceVar(&f.orderBy, "order-by", nil, "columns capped relationships are ordered by (descending)")
	fs.StringVar(&f.manyLoad, "many-load", "", "prefetch strategy for uncapped relationships (subqueryload, selectinload)")
	fs.BoolVar(&f.distinct, "distinct", false, "render SELECT DISTINCT")
	fs.BoolVar(&f.checkTables, "check-tables", false, "rename laterals that collide with existing tables")
	fs.BoolVar(&f.noAlign, "no-align", false, "disable row-number alignment of sibling laterals")
}

// options layers flags over the config file's select section.
func (f *queryFlags) options(cmd *cobra.Command) []autoload.SelectOption {
	opts := cfg.SelectOptions()
	fs := cmd.Flags()
	if fs.Changed("limit") {
		opts = append(opts, autoload.WithLimit(f.limit))
	}
	if f.noLimit {
		opts = append(opts, autoload.WithoutLimit())
	}
	if f.selfKey != "" {
		opts = append(opts, autoload.WithSelfKey(f.selfKey))
	}
	if len(f.orderBy) > 0 {
		opts = append(opts, autoload.WithOrderBy(f.orderBy...))
	}
	if f.manyLoad != "" {
		opts = append(opts, autoload.WithManyLoadName(f.manyLoad))
	}
	if f.distinct {
		opts = append(opts, autoload.WithDistinct())
	}
	if f.checkTables {
		opts = append(opts, autoload.WithCheckTables())
	}
	if f.noAlign {
		opts = append(opts, autoload.WithoutAlignment())
	}
	return opts
}

// build loads the schema and builds the query for args[0] with the remaining
// args as relationship keys.
func (f *queryFlags) build(cmd *cobra.Command, args []string) (*autoload.Query, error) {
	path := resolveString(f.schema, cfg.Schema)
	g, err := schema.Load(path)
	if err != nil {
		return nil, cli.SchemaParseError(fmt.Sprintf("loading schema %s", path), err)
	}

	entity, ok := g.Entity(args[0])
	if !ok {
		return nil, cli.QueryError(fmt.Sprintf("unknown entity %q", args[0]), autoload.ErrUnknownEntity)
	}

	al := autoload.New(g, autoload.WithLogger(logger), autoload.WithCacheSize(cfg.Cache.Size))
	q, err := al.Select(entity, args[1:], f.options(cmd)...)
	if err != nil {
		return nil, cli.QueryError("building query", err)
	}
	for _, w := range q.Warnings() {
		logger.Warn(w)
	}
	return q, nil
}

// openDB opens and pings the configured database. flagDSN overrides config.
func openDB(ctx context.Context, flagDSN string) (*sql.DB, error) {
	dsn := flagDSN
	if dsn == "" {
		var err error
		dsn, err = cfg.DSN()
		if err != nil {
			return nil, cli.ConfigError("database configuration", err)
		}
	}
	driver, err := cfg.DriverName()
	if err != nil {
		return nil, cli.ConfigError("database configuration", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, cli.DBConnectError("connecting to database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, cli.DBConnectError("connecting to database", err)
	}
	return db, nil
}
