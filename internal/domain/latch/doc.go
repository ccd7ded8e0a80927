// Package latch implements the passcode latch: a locked/unlocked flag that only
// changes when a request carries the exact passcode.
//
// Match is the shared comparison used by the state evaluator for alarm and lock codes.
package latch
