// Package cli provides the command-line interface for intercept.
//
// The commands work on a fixture configuration file (see package config):
//   - routes: list the routes a configuration registers
//   - match: dry-run a request against the routes
//   - serve: answer real HTTP traffic from the fixtures
//   - validate: load and validate a configuration without running anything
//   - version: show version information
//
// Without -f, commands read the file named by INTERCEPT_CONFIG, then look
// for intercept.yaml or intercept.yml in the working directory.
package cli
