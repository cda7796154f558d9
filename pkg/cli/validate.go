package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/getmockd/intercept/pkg/cli/internal/output"
	"github.com/getmockd/intercept/pkg/config"
)

// ValidateOutput is the JSON result of "intercept validate".
type ValidateOutput struct {
	Valid   bool           `json:"valid"`
	Path    string         `json:"path,omitempty"`
	Routes  int            `json:"routes"`
	Sources map[string]int `json:"sources,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

var validateVerbose bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate an intercept configuration file without serving anything.

This command checks:
  - YAML syntax and unknown fields
  - Include patterns and OpenAPI imports
  - Route fields (method, url, status, body, timing)
  - Route patterns, by registering every route on a throwaway engine`,
	Example: `  # Validate config in current directory
  intercept validate

  # Validate a specific file and list where routes come from
  intercept validate -f fixtures/api.yaml --verbose`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := runValidate()

		if jsonOutput {
			if err := output.JSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
		} else {
			printValidation(cmd.OutOrStdout(), out, validateVerbose)
		}
		if !out.Valid {
			return errSilent
		}
		return nil
	},
}

func runValidate() ValidateOutput {
	path, err := resolveConfigPath()
	if err != nil {
		return ValidateOutput{Errors: []string{err.Error()}}
	}
	out := ValidateOutput{Path: path}

	cfg, err := config.LoadFromFile(path)
	if err == nil {
		err = checkRoutes(cfg)
	}
	if err != nil {
		out.Errors = splitErrors(err)
		return out
	}

	out.Valid = true
	out.Routes = len(cfg.Routes)
	out.Sources = make(map[string]int)
	for _, r := range cfg.Routes {
		out.Sources[r.Source]++
	}
	return out
}

// checkRoutes registers cfg's routes on a throwaway engine.
func checkRoutes(cfg *config.Config) error {
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	return e.Shutdown()
}

// splitErrors flattens errors.Join trees into one message per leaf.
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, splitErrors(e)...)
		}
		return msgs
	}
	return []string{err.Error()}
}

func printValidation(w io.Writer, out ValidateOutput, verbose bool) {
	if !out.Valid {
		fmt.Fprintln(w, "Validation failed:")
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		return
	}

	fmt.Fprintf(w, "Configuration is valid: %d routes.\n", out.Routes)
	if !verbose {
		return
	}
	sources := make([]string, 0, len(out.Sources))
	for s := range out.Sources {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Fprintf(w, "  %s: %d\n", s, out.Sources[s])
	}
}

func init() {
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Show how many routes each file contributes")
	rootCmd.AddCommand(validateCmd)
}
