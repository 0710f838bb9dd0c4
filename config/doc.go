// Package config provides unified configuration loading for reverie.
// Precedence: defaults, then YAML file, then REVERIE_* environment
// variable overrides.
package config
