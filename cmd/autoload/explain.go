package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pthm/autoload"
	"github.com/pthm/autoload/internal/cli"
)

var (
	explainFlags   queryFlags
	explainDB      string
	explainAnalyze bool
)

var explainCmd = &cobra.Command{
	Use:   "explain ENTITY [KEY...]",
	Short: "Show the loader tree and, with a database, the query plan",
	Example: `  # Loader tree only
  autoload explain User posts roles

  # Include the PostgreSQL plan
  autoload explain User posts --db postgres://localhost/blog`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := explainFlags.build(cmd, args)
		if err != nil {
			return err
		}

		fmt.Print(autoload.Describe(q))
		lats := autoload.Laterals(q)
		if len(lats) > 0 {
			names := make([]string, 0, len(lats))
			for n := range lats {
				names = append(names, n)
			}
			sort.Strings(names)
			fmt.Println()
			fmt.Println("Laterals:")
			for _, n := range names {
				fmt.Printf("  %s\n", n)
			}
		}

		if explainDB == "" && (cfg.Database.URL == "" && cfg.Database.Host == "") {
			return nil
		}

		ctx := context.Background()
		db, err := openDB(ctx, explainDB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		prefix := "EXPLAIN "
		if explainAnalyze {
			prefix = "EXPLAIN ANALYZE "
		}
		rows, err := db.QueryContext(ctx, prefix+q.SQL(), q.Args()...)
		if err != nil {
			return cli.FetchError("explaining query", err)
		}
		defer func() { _ = rows.Close() }()

		fmt.Println()
		for rows.Next() {
			var line string
			if err := rows.Scan(&line); err != nil {
				return cli.FetchError("reading plan", err)
			}
			fmt.Println(line)
		}
		return rows.Err()
	},
}

func init() {
	explainFlags.register(explainCmd)
	explainCmd.Flags().StringVar(&explainDB, "db", "", "database URL")
	explainCmd.Flags().BoolVar(&explainAnalyze, "analyze", false, "run EXPLAIN ANALYZE")
}
