// Package confloader layers configuration from defaults, a YAML file,
// GCPORTAL_ environment variables and explicit overrides using koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables
//  3. Configuration file
//  4. Defaults
//
// Watcher reports edits to the configuration file so long-running
// commands can pick up changes such as the log level.
package confloader
