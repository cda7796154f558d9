package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/getmockd/intercept/pkg/config"
	"github.com/getmockd/intercept/pkg/engine"
)

var (
	// Persistent flags available to all subcommands
	configFile string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// EnvConfig names the configuration file used when -f is not given.
const EnvConfig = "INTERCEPT_CONFIG"

// defaultConfigNames are looked up in the working directory, in order.
var defaultConfigNames = []string{"intercept.yaml", "intercept.yml"}

// errSilent fails a command whose output already explains the failure.
var errSilent = errors.New("")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "intercept",
	Short: "intercept serves and inspects HTTP request fixtures",
	Long: `intercept loads route fixtures from a YAML configuration file and runs them
through the same interception engine Go tests use.

Use it to check which route a request would hit, to list what a fixture set
registers, or to serve the fixtures to real HTTP clients.`,
	// No Run function here means 'intercept' with no args will print help text by default.
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Main runs the command line in os.Args and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// Execute runs the command line and exits the process on failure.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if code := Main(); code != 0 {
		os.Exit(code)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "Configuration file (default: $"+EnvConfig+", then ./intercept.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}

// resolveConfigPath picks the configuration file for a command.
func resolveConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}
	for _, name := range defaultConfigNames {
		if _, err := os.Stat(name); err == nil {
			return filepath.Clean(name), nil
		}
	}
	return "", fmt.Errorf("no configuration file: pass -f, set %s or create %s", EnvConfig, defaultConfigNames[0])
}

// loadConfig loads the configuration file for a command.
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.LoadFromFile(path)
}

// newEngine builds an engine from cfg with its routes registered. extra
// options are applied last.
func newEngine(cfg *config.Config, extra ...engine.Option) (*engine.Engine, error) {
	opts := append(cfg.Options(), engine.WithLogger(cfg.Logger()), engine.WithRoutes(cfg.Apply))
	return engine.New(append(opts, extra...)...)
}
