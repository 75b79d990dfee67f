package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/autoload/internal/cli"
)

var (
	configShowFormat string
	configShowDSN    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration queries are built with",
	Long: `Print the configuration after defaults, autoload.yaml and AUTOLOAD_*
environment variables are merged. Database passwords are masked.`,
	Example: `  # Show the merged configuration
  autoload config show

  # Show the connection string sql and fetch would use
  autoload config show --dsn`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configShowDSN {
			dsn, err := cfg.DSN()
			if err != nil {
				return cli.ConfigError("database configuration", err)
			}
			driver, err := cfg.DriverName()
			if err != nil {
				return cli.ConfigError("database configuration", err)
			}
			fmt.Printf("%s %s\n", driver, cli.RedactDSN(dsn))
			return nil
		}

		out, err := json.MarshalIndent(cfg.Redacted(), "", "  ")
		if err != nil {
			return cli.GeneralError("encoding configuration", err)
		}
		switch configShowFormat {
		case "yaml":
			if out, err = yaml.JSONToYAML(out); err != nil {
				return cli.GeneralError("encoding configuration", err)
			}
			fmt.Print(string(out))
		case "json":
			fmt.Println(string(out))
		default:
			return cli.ConfigError(fmt.Sprintf("unknown format %q (want json or yaml)", configShowFormat), nil)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Long: `Print the autoload.yaml found by walking up from the working directory,
or the file given with --config. Prints nothing when defaults are in effect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			fmt.Println(configPath)
		}
		return nil
	},
}

func init() {
	configShowCmd.Flags().StringVarP(&configShowFormat, "format", "f", "yaml", "output format (yaml, json)")
	configShowCmd.Flags().BoolVar(&configShowDSN, "dsn", false, "print the driver and masked connection string instead")
	configCmd.AddCommand(configShowCmd, configPathCmd)
}
