// Package evaluator computes the corrected next state of a house from a proposed one.
//
// Evaluation runs an ordered pipeline of sixteen rules over a working copy of the
// state. Every rule reads the result of the rules before it, so the order is the
// conflict resolution policy: the away timer beats arrival convenience, the humidifier
// restriction beats the climate rules, and the intruder lockdown beats every lock
// decision. Each decision is explained in the returned audit log.
package evaluator
