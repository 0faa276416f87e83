// Package config holds the gcportal-cli configuration (~/.gcportal/cli.yaml).
//
// Values are layered with confloader: defaults, then the YAML file, then
// GCPORTAL_* environment variables, then command-line flags.
package config
