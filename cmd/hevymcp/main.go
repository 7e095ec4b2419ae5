package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gymkit/hevymcp/cmd/hevymcp/commands"
	"github.com/gymkit/hevymcp/config"
	"github.com/gymkit/hevymcp/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hevymcp",
	Short: "hevymcp - Hevy exercise tools for MCP clients",
	Long: `hevymcp - Hevy exercise tools for MCP clients.

hevymcp serves the Hevy exercise template catalog to MCP clients and lets
them find exercises by name in English or Spanish, even with typos.

Available commands:
  serve    - Start the MCP server (stdio or streamable HTTP)
  search   - Search the local catalog from the terminal
  catalog  - Update the local catalog from the Hevy API or show statistics
  config   - Show, validate and initialise configuration
  version  - Show version information

Examples:
  hevymcp serve                        # Serve MCP over stdio
  hevymcp serve --transport http       # Serve MCP over HTTP on :3000
  hevymcp search "press de banca"      # Try a query
  hevymcp catalog update               # Refresh the catalog (needs HEVY_API_KEY)
  hevymcp config show --format json    # Show effective configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			config.SetConfigFile(path)
		}

		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")

		// Config errors surface in the command itself; logging still starts
		if cfg, err := config.Load(); err == nil {
			verbosity = max(verbosity, cfg.Log.Verbosity)
			jsonLogs = jsonLogs || cfg.Log.JSON
		}

		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	// Early logger so config loading can report problems
	if err := logger.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logger: %v\n", err)
	}

	// Global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().String("config", "", "Config file (highest precedence after environment)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.CatalogCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
