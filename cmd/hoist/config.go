package main

import (
	"encoding/json"
	"fmt"

	"github.com/panbanda/hoist/internal/output"
	"github.com/panbanda/hoist/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validates a hoist configuration file against the config schema and checks
its values.

Examples:
  hoist config validate                   # Validates default config locations
  hoist config validate -c hoist.toml     # Validates specific file
  hoist config validate -c .hoist/hoist.yaml`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Shows the merged configuration from defaults and config file.

Examples:
  hoist config show                # Show effective config as TOML
  hoist config show --format yaml  # Show effective config as YAML
  hoist config show -c hoist.toml  # Show config from specific file`,
	RunE: runConfigShow,
}

func init() {
	configShowCmd.Flags().StringP("format", "f", "toml", "Output format: toml, yaml, json")

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.Find(".")
	}
	if path == "" {
		output.NewStatus(cmd.OutOrStdout()).Warning("No config file found. Default configuration is valid.")
		return nil
	}

	if err := config.ValidateFile(path); err != nil {
		return reportInvalid(cmd, err)
	}
	if _, err := config.Load(path); err != nil {
		return reportInvalid(cmd, err)
	}
	output.NewStatus(cmd.OutOrStdout()).Success("Configuration valid: %s", path)
	return nil
}

func reportInvalid(cmd *cobra.Command, err error) error {
	output.NewStatus(cmd.OutOrStdout()).Error("Configuration validation failed:")
	fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", err)
	return err
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	result, err := loadConfig()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	content, err := marshalConfig(result.Config, format)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	// JSON has no comments.
	if format != "json" {
		if result.Source != "" {
			fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
		} else {
			fmt.Fprintln(w, "# Default configuration (no config file found)")
			fmt.Fprintln(w)
		}
	}
	fmt.Fprint(w, content)
	return nil
}

// marshalConfig renders cfg with the same keys in every format. YAML and JSON
// go through the TOML document so they pick up the toml field names.
func marshalConfig(cfg *config.Config, format string) (string, error) {
	content, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if format == "toml" {
		return string(content), nil
	}

	tree, err := toml.LoadBytes(content)
	if err != nil {
		return "", fmt.Errorf("failed to convert config: %w", err)
	}
	doc := tree.ToMap()

	switch format {
	case "yaml", "yml":
		out, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("failed to marshal config: %w", err)
		}
		return string(out), nil
	case "json":
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal config: %w", err)
		}
		return string(out) + "\n", nil
	default:
		return "", fmt.Errorf("unknown config format %q (want toml, yaml or json)", format)
	}
}
