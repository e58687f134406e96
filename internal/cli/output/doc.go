// Package output renders command results for the busstate CLI.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables
//   - json.go: indented JSON
//   - yaml.go: YAML
package output
