package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/autoload"
)

var sqlFlags queryFlags

var sqlCmd = &cobra.Command{
	Use:   "sql ENTITY [KEY...]",
	Short: "Print the SQL built for an entity and relationship keys",
	Example: `  # Capped posts and roles for every user
  autoload sql User posts roles --limit 5

  # Uncapped, prefetched through separate queries
  autoload sql User posts.comments --no-limit --many-load selectinload`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := sqlFlags.build(cmd, args)
		if err != nil {
			return err
		}

		fmt.Println(q.SQL() + ";")
		var visit func([]*autoload.Load)
		visit = func(ls []*autoload.Load) {
			for _, l := range ls {
				if l.Strategy.Separate() {
					fmt.Printf("\n-- %s (%s), keyed by parent rows\n%s;\n", l.Path, l.Strategy, l.Stmt.SQL())
				}
				visit(l.Children)
			}
		}
		visit(q.Loads())
		return nil
	},
}

func init() {
	sqlFlags.register(sqlCmd)
}
