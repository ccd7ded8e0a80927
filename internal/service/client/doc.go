// Package client implements the house-ctl commands.
//
// Each command connects to the house server, performs one call and prints
// the response as YAML.
package client
