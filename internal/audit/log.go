// Package audit provides the ordered, timestamped log that explains every decision
// taken by the passcode latch and the state evaluator.
package audit

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout of the timestamp prefix of formatted entries.
const TimestampLayout = "Jan 02,2006 15:04"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
//
//nolint:gochecknoglobals // Stateless default.
var SystemClock Clock = ClockFunc(time.Now)

// Entry is a single audit line.
type Entry struct {
	// Time is when the entry was recorded.
	Time time.Time
	// Message is the human-readable decision.
	Message string
}

// String renders the entry as "[Jan 02,2006 15:04]: message".
func (e Entry) String() string {
	return "[" + e.Time.Format(TimestampLayout) + "]: " + e.Message
}

// Log accumulates entries in order. The zero value is ready to use with the system clock.
type Log struct {
	clock   Clock
	entries []Entry
}

// NewLog creates a log stamped by the provided clock.
func NewLog(clock Clock) *Log {
	if clock == nil {
		clock = SystemClock
	}

	return &Log{clock: clock}
}

// Add appends a message.
func (l *Log) Add(message string) {
	if l.clock == nil {
		l.clock = SystemClock
	}

	l.entries = append(l.entries, Entry{
		Time:    l.clock.Now(),
		Message: message,
	})
}

// Addf appends a formatted message.
func (l *Log) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out
}

// Messages returns the bare messages in order.
func (l *Log) Messages() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Message)
	}

	return out
}

// Lines returns the formatted entries in order.
func (l *Log) Lines() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.String())
	}

	return out
}

// Contains reports whether any message contains substr.
func (l *Log) Contains(substr string) bool {
	for _, e := range l.entries {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}

	return false
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// String joins the formatted entries with newlines.
func (l *Log) String() string {
	return strings.Join(l.Lines(), "\n")
}
