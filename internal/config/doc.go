// Package config defines the busstate configuration.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and BUSSTATE_* environment variables.
package config
