package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skilltree/skilltheme/internal/config"
)

const redactedValue = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing skilltheme configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the effective configuration",
	Long: `Dump the effective configuration in YAML format.

This shows every configuration option with the value in effect after
defaults, the config file and environment variables are applied. You can
redirect the output to create a configuration template:

  skilltheme config dump > config.yaml

Environment variables use the SKILLTHEME_ prefix and underscores for nesting.
Example: server.port -> SKILLTHEME_SERVER_PORT`,
	Args: cobra.NoArgs,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
	configDumpCmd.Flags().Bool("show-secrets", false, "print the database DSN unmasked")
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	showSecrets, _ := cmd.Flags().GetBool("show-secrets")
	return dumpConfig(cmd.OutOrStdout(), cfg, showSecrets)
}

func dumpConfig(w io.Writer, cfg *config.Config, showSecrets bool) error {
	out := *cfg
	if !showSecrets && out.Database.DSN != "" {
		out.Database.DSN = redactedValue
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Fprintln(w, "# skilltheme configuration")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# Duration format: 250ms, 30s, 5m, 1h")
	fmt.Fprintln(w, "# Size format: 256KB, 1MB")
	fmt.Fprintln(w, "#")
	_, err = w.Write(data)
	return err
}
