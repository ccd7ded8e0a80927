// Package config loads, validates and saves the YAML settings shared by
// house-server and house-ctl.
//
// Validate fills defaults in place, so a loaded Config is always ready to use.
package config
