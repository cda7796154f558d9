package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/intercept/pkg/cli/internal/output"
	"github.com/getmockd/intercept/pkg/engine"
)

// RouteOutput is one row of "intercept routes".
type RouteOutput struct {
	Method  string `json:"method"`
	Host    string `json:"host"`
	Pattern string `json:"pattern"`
	Kind    string `json:"kind"`
	Timing  string `json:"timing"`
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes a configuration registers",
	Long: `List every route registered by the configuration file, grouped by host and
method in the order the engine ranks them against each other.`,
	Example: `  # List routes from ./intercept.yaml
  intercept routes

  # List routes from a specific file as JSON
  intercept routes -f fixtures/api.yaml --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		e, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = e.Shutdown() }()

		routes := e.Routes()
		rows := make([]RouteOutput, len(routes))
		for i, r := range routes {
			rows[i] = newRouteOutput(r)
		}

		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), rows)
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No routes configured.")
			return nil
		}

		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(w, "METHOD\tHOST\tPATTERN\tKIND\tTIMING")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Method, r.Host, r.Pattern, r.Kind, r.Timing)
		}
		return w.Flush()
	},
}

func newRouteOutput(r engine.Route) RouteOutput {
	out := RouteOutput{
		Method:  r.Method,
		Host:    r.HostKey,
		Pattern: r.Pattern,
		Kind:    "intercept",
		Timing:  "-",
	}
	if r.Passthrough {
		out.Kind = "passthrough"
		return out
	}
	out.Timing = timingOf(r.Handler)
	return out
}

func timingOf(h *engine.Handler) string {
	if h == nil {
		return "-"
	}
	if p := h.Policy(); p != nil {
		return p.Timing().String()
	}
	return engine.Sync.String()
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
