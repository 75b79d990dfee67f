package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/autoload/internal/cli"
	"github.com/pthm/autoload/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [SCHEMA...]",
	Short: "Validate entity schema files",
	Long: `Validate one or more entity schema files: column references, relationship
targets, join columns and association tables are all checked.`,
	Example: `  # Validate the configured schema
  autoload validate

  # Validate several files at once
  autoload validate schemas/blog.yaml schemas/shop.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.Schema}
		}

		graphs := make([]*schema.Graph, len(paths))
		var g errgroup.Group
		for i, p := range paths {
			i, p := i, p
			g.Go(func() error {
				graph, err := schema.Load(p)
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				graphs[i] = graph
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return cli.SchemaParseError("validating schema", err)
		}

		if quiet {
			return nil
		}
		for i, p := range paths {
			ents := graphs[i].Entities()
			fmt.Printf("%s is valid. Found %d entities:\n", p, len(ents))
			for _, e := range ents {
				kind := ""
				if e.Abstract {
					kind = ", abstract"
				}
				fmt.Printf("  - %s (%s, %d relationships%s)\n", e.Name, e.Table, len(e.Relationships), kind)
			}
		}
		return nil
	},
}
