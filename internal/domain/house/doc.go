// Package house defines the House State exchanged with the evaluator, the hub,
// the history recorder and the API.
//
// The state is a struct of Optional values over a closed set of fields. Decode and
// Map translate it to and from the flat field-code keyed map used on every boundary.
package house
