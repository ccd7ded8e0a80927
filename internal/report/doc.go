// Package report writes the daily light usage report of every house.
//
// The report is a two-line CSV built from the latest history record. Houses in
// experiment group "2" also see the estimated cost of the light usage.
package report
