package cli

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/getmockd/intercept/pkg/cli/internal/output"
)

// MatchOutput is the result of "intercept match".
type MatchOutput struct {
	Matched     bool              `json:"matched"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Route       *RouteOutput      `json:"route,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	QueryParams url.Values        `json:"queryParams,omitempty"`
	Manual      bool              `json:"requiresManualResolution"`
}

var matchCmd = &cobra.Command{
	Use:   "match METHOD URL",
	Short: "Show which route a request would hit",
	Long: `Match a request against the configured routes without sending it. Nothing
is counted or recorded. The command fails when no route matches.`,
	Example: `  intercept match GET https://api.example.com/users/42?expand=true
  intercept match -f api.yaml --json POST /orders`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, target := args[0], args[1]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		e, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = e.Shutdown() }()

		m, found, err := e.Lookup(method, target)
		if err != nil {
			return fmt.Errorf("parsing url %q: %w", target, err)
		}

		out := MatchOutput{Matched: found, Method: method, URL: target}
		if found {
			route := newRouteOutput(m.Route)
			out.Method = m.Route.Method
			out.Route = &route
			out.Params = m.Params
			out.QueryParams = m.QueryParams
			if out.Manual, err = e.RequiresManualResolution(method, target); err != nil {
				return err
			}
		}

		if jsonOutput {
			if err := output.JSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
		} else {
			printMatch(cmd, out)
		}
		if !found {
			return errSilent
		}
		return nil
	},
}

func printMatch(cmd *cobra.Command, out MatchOutput) {
	w := cmd.OutOrStdout()
	if !out.Matched {
		fmt.Fprintf(w, "No route matches %s %s\n", out.Method, out.URL)
		return
	}

	fmt.Fprintf(w, "Route:  %s %s%s (%s)\n", out.Route.Method, out.Route.Host, out.Route.Pattern, out.Route.Kind)
	if out.Route.Kind == "passthrough" {
		return
	}
	fmt.Fprintf(w, "Timing: %s\n", out.Route.Timing)
	fmt.Fprintf(w, "Manual: %t\n", out.Manual)

	for _, k := range sortedKeys(out.Params) {
		fmt.Fprintf(w, "Param:  %s=%s\n", k, out.Params[k])
	}
	for _, k := range sortedKeys(out.QueryParams) {
		for _, v := range out.QueryParams[k] {
			fmt.Fprintf(w, "Query:  %s=%s\n", k, v)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
