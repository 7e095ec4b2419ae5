package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gymkit/hevymcp/config"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hevymcp configuration",
	Long: `Display and manage hevymcp configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (HEVYMCP_* prefix, plus HEVY_API_KEY)
3. --config file
4. Project config (./hevymcp.toml, searched upwards)
5. User config (~/.hevymcp/config.toml)
6. System config (/etc/hevymcp/config.toml)
7. Default values

Examples:
  hevymcp config show                    # Show current configuration
  hevymcp config show --format json      # Show configuration in JSON format
  hevymcp config get catalog.path        # Get specific config value
  hevymcp config validate                # Validate current configuration
  hevymcp config init                    # Write ./hevymcp.toml with defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration from all sources. The API key is masked.",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., catalog.path, server.port)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which files were checked.

Lists all configuration files in order of precedence (lowest first),
showing which exist and which are missing.`,
	RunE: runConfigWhere,
}

var (
	configFormat string
	configForce  bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file (a backup is kept)")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return writeConfig(cmd.OutOrStdout(), cfg.Redacted(), configFormat)
}

// writeConfig marshals cfg in the requested format
func writeConfig(out io.Writer, cfg config.Config, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Fprintf(out, "# hevymcp configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Fprintf(out, "# hevymcp configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if key == "hevy.api_key" {
		cfg := config.Config{Hevy: config.HevyConfig{APIKey: fmt.Sprint(value)}}
		value = cfg.Redacted().Hevy.APIKey
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, src := range config.Sources() {
		if !src.Exists {
			continue
		}
		keys, err := config.UnknownKeys(src.Path)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintf(out, "⚠ %s: unknown key %q is ignored\n", src.Path, key)
		}
	}
	fmt.Fprintln(out, "✓ Configuration is valid")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ProjectConfigName
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.InitFile(path, configForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote default configuration to %s\n", path)
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  [DEFAULT]  Built-in defaults")
	for _, src := range config.Sources() {
		status := "missing"
		if src.Exists {
			status = "loaded"
		}
		fmt.Fprintf(out, "  [%-7s]  %s (%s)\n", strings.ToUpper(src.Level), src.Path, status)
	}
	fmt.Fprintln(out, "  [ENV]      HEVYMCP_* environment variables, HEVY_API_KEY")
	return nil
}
