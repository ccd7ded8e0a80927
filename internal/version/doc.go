// Package version reports which build of the smart-home binaries is running.
//
// Version, Commit and BuildTime are set through -ldflags -X at release time.
// Local builds fall back to a development version.
package version
