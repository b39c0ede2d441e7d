package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"labeltree/infrastructure/config"
	"labeltree/infrastructure/di"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configFile string
	driver     string
	dbPath     string
	jsonOut    bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "treectl",
		Short: "Inspect and extend a label tree",
		Long: `treectl reads and appends nodes of a label tree stored in SQLite,
DynamoDB or memory, using the same configuration as the API server.

Example:
  treectl list --db ./tree.db
  treectl add "Fruit"
  treectl add "Apple" --parent 0b7e...`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	flags.StringVar(&opts.driver, "driver", "", "Store driver: sqlite, memory or dynamodb")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path")
	flags.BoolVar(&opts.jsonOut, "json", false, "Output in JSON format")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newListCmd(opts), newAddCmd(opts))
	return cmd
}

// openContainer loads configuration, applies flag overrides and wires the
// application. The caller must run the returned cleanup.
func openContainer(cmd *cobra.Command, opts *globalOptions) (*di.Container, func(), error) {
	path := opts.configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.driver != "" {
		cfg.StoreDriver = opts.driver
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	// one-shot runs never hot reload or export
	cfg.ConfigFile = ""
	cfg.EnableTracing = false
	if !opts.verbose {
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return di.InitializeContainer(cmd.Context(), cfg)
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
