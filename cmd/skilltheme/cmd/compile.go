package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltheme/internal/service"
	"github.com/skilltree/skilltheme/internal/theme"
)

// Output formats of the compile command.
const (
	outputCSS    = "css"
	outputModule = "module"
	outputJSON   = "json"
)

var compileCmd = &cobra.Command{
	Use:   "compile [theme-file]",
	Short: "Compile a theme to CSS",
	Long: `Compile a theme configuration into CSS and the theme module.

The theme is read from a .json, .yaml or .yml file, from stdin when the
file is "-", and/or from --param values in themeParam form:

  skilltheme compile movies.yaml
  skilltheme compile --param 'textPrimaryColor|white' --param 'tiles|{"backgroundColor":"black"}'

Parameters are applied after the file; object values merge into the
file's objects.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringArrayP("param", "p", nil, "theme entry as key|value (repeatable)")
	compileCmd.Flags().StringP("output", "o", outputCSS, "output format (css, module, json)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	params, _ := cmd.Flags().GetStringArray("param")
	output, _ := cmd.Flags().GetString("output")

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" && len(params) == 0 {
		return fmt.Errorf("nothing to compile: pass a theme file or --param values")
	}

	cfg, err := loadThemeInput(path, cmd.InOrStdin(), params)
	if err != nil {
		return err
	}

	res, err := theme.Build(cfg)
	if err != nil {
		return fmt.Errorf("compiling theme: %w", err)
	}
	return writeCompileOutput(cmd.OutOrStdout(), output, res)
}

// loadThemeInput reads the theme file, if any, and applies params on top.
func loadThemeInput(path string, stdin io.Reader, params []string) (*theme.Config, error) {
	cfg := theme.NewConfig()

	switch path {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if cfg, err = theme.ParseJSON(data); err != nil {
			return nil, err
		}
	default:
		var err error
		if cfg, err = service.ParseThemeFile(path); err != nil {
			return nil, err
		}
	}

	for _, p := range params {
		key, value, err := theme.ParseParam(p)
		if err != nil {
			return nil, fmt.Errorf("--param %q: %w", p, err)
		}
		cfg.Merge(key, value)
	}
	return cfg, nil
}

func writeCompileOutput(w io.Writer, format string, res *theme.Result) error {
	switch format {
	case outputCSS:
		_, err := fmt.Fprintln(w, res.CSS)
		return err
	case outputModule:
		return writeJSON(w, res.Module)
	case outputJSON:
		return writeJSON(w, struct {
			CSS         string        `json:"css"`
			ThemeModule *theme.Config `json:"themeModule"`
		}{CSS: res.CSS, ThemeModule: res.Module})
	default:
		return fmt.Errorf("unknown output format %q: want css, module or json", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
