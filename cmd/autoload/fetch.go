package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/autoload"
	"github.com/pthm/autoload/internal/cli"
)

var (
	fetchFlags  queryFlags
	fetchDB     string
	fetchFormat string
	fetchRows  int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch ENTITY [KEY...]",
	Short: "Run a query and print the loaded records",
	Example: `  # Users with their three newest posts, as YAML
  autoload fetch User posts --limit 3 --format yaml

  # First ten rows of the main statement
  autoload fetch User posts roles --rows 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := fetchFlags.build(cmd, args)
		if err != nil {
			return err
		}
		if fetchRows > 0 {
			// Counts joined rows, so the last parent may come back partly loaded.
			q = q.Limit(fetchRows)
		}

		ctx := context.Background()
		db, err := openDB(ctx, fetchDB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		res, err := autoload.Fetch(ctx, db, q)
		if err != nil {
			return cli.FetchError("fetching", err)
		}

		out, err := json.MarshalIndent(autoload.UniqueScalars(res), "", "  ")
		if err != nil {
			return cli.GeneralError("encoding records", err)
		}
		switch fetchFormat {
		case "json":
		case "yaml":
			if out, err = yaml.JSONToYAML(out); err != nil {
				return cli.GeneralError("encoding records", err)
			}
		default:
			return cli.ConfigError(fmt.Sprintf("unknown format %q (want json or yaml)", fetchFormat), nil)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	fetchFlags.register(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchDB, "db", "", "database URL")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "json", "output format: json or yaml")
	fetchCmd.Flags().IntVar(&fetchRows, "rows", 0, "LIMIT on the main statement (0 = none)")
}
