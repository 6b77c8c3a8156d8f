package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skilltree/skilltheme/internal/theme"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List supported theme keys",
	Long: `List every theme key path the compiler accepts.

Keys marked as module values are handed to display components; the rule
count shows how many CSS rules a value is written to.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asYAML, _ := cmd.Flags().GetBool("yaml")
		paths := theme.DefaultSchema().Paths()
		if asYAML {
			return writeSchemaYAML(cmd.OutOrStdout(), paths)
		}
		return writeSchemaTable(cmd.OutOrStdout(), paths)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().Bool("yaml", false, "print paths with their CSS rules as YAML")
}

func writeSchemaTable(w io.Writer, paths []theme.PathInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tLABEL\tMODULE\tRULES")
	for _, p := range paths {
		module := ""
		if p.ThemeModule {
			module = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.Path, p.Label, module, len(p.Rules))
	}
	return tw.Flush()
}

func writeSchemaYAML(w io.Writer, paths []theme.PathInfo) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(paths); err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	return enc.Close()
}
