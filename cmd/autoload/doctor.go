package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/autoload/internal/cli"
	"github.com/pthm/autoload/internal/doctor"
)

var (
	doctorSchema  string
	doctorDB      string
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the schema against a live database",
	Long: `Check that every entity table, column and association table in the schema
exists in the database, and warn about to-many join columns without an index.`,
	Example: `  # Check the configured schema and database
  autoload doctor

  # Show details for every check
  autoload doctor --details --db postgres://localhost/blog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := openDB(ctx, doctorDB)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		report, err := doctor.New(db, resolveString(doctorSchema, cfg.Schema)).Run(ctx)
		if err != nil {
			return cli.GeneralError("running checks", err)
		}
		report.Print(os.Stdout, doctorVerbose)
		if report.HasErrors() {
			return cli.GeneralError("doctor found errors", nil)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().StringVar(&doctorSchema, "schema", "", "path to the schema YAML file")
	doctorCmd.Flags().StringVar(&doctorDB, "db", "", "database URL")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "details", false, "show details for each check")
}
