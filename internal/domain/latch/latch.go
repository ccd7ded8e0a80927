package latch

import (
	"crypto/subtle"
	"sync"

	"github.com/oshokin/smart-home/internal/audit"
)

// Match reports whether candidate equals truth exactly.
// Comparison is case and length sensitive, runs in constant time for equal lengths,
// and an empty candidate never matches.
func Match(truth, candidate string) bool {
	if candidate == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(truth), []byte(candidate)) == 1
}

// Latch is a passcode-protected lock. It starts unlocked.
type Latch struct {
	// passcode is the ground truth compared against every request.
	passcode string
	// locked is the current latch position.
	locked bool
	// log records every lock and unlock attempt.
	log *audit.Log
	// mu guards locked and log.
	mu sync.Mutex
}

// New creates an unlocked latch guarded by passcode.
func New(passcode string, clock audit.Clock) *Latch {
	return &Latch{
		passcode: passcode,
		log:      audit.NewLog(clock),
	}
}

// Lock locks the latch if candidate matches and returns the resulting position.
func (l *Latch) Lock(candidate string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !Match(l.passcode, candidate) {
		l.log.Add("Invalid passcode. Lock request denied.")
		return l.locked
	}

	l.locked = true
	l.log.Add("Door LOCKED successfully.")

	return l.locked
}

// Unlock unlocks the latch if candidate matches and returns the resulting position.
func (l *Latch) Unlock(candidate string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !Match(l.passcode, candidate) {
		l.log.Add("Invalid passcode. Unlock request denied.")
		return l.locked
	}

	l.locked = false
	l.log.Add("Door UNLOCKED successfully.")

	return l.locked
}

// IsLocked reports the current position.
func (l *Latch) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.locked
}

// Log returns the recorded attempts in order.
func (l *Latch) Log() []audit.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.log.Entries()
}
