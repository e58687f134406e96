// Package confloader loads busstate configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Values already present in the target struct (the defaults)
//  2. A YAML file
//  3. Environment variables (BUSSTATE_ prefix)
//  4. Overrides from command-line flags (WithOverrides)
//
// A Watcher reports writes to the configuration file so that the caller
// can reload it and apply the settings that may change at runtime.
package confloader
