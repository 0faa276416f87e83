// Package output renders command results for gcportal-cli.
//
// Results are written as aligned tables, JSON or YAML. Values that know
// how to lay themselves out implement Tabler; everything else falls back
// to YAML in table mode.
package output
