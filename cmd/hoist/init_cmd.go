package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/panbanda/hoist/internal/output"
	"github.com/panbanda/hoist/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hoist configuration file",
	Long: `Creates a new hoist.toml configuration file in the current directory
with the default settings. Use --output to specify a different location.

Examples:
  hoist init                      # Creates hoist.toml in current directory
  hoist init -o .hoist/hoist.toml # Creates config in .hoist directory
  hoist init --force              # Overwrite existing config file`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("output", "o", "hoist.toml", "Output file path")
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	output.NewStatus(cmd.OutOrStdout()).Success("Created %s", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to tune similarity thresholds and exclusions.")
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# hoist configuration\n")
	buf.WriteString("# similarity.threshold seeds name_threshold and body_threshold.\n")
	buf.WriteString("# similarity.body_window is \"auto\" or a shingle size.\n")
	buf.WriteString("# clustering.mode is \"first_seen\" or \"connected\".\n\n")
	buf.Write(content)

	return buf.String(), nil
}
