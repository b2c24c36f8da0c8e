// Package batch buffers encoded records between flush points.
package batch

import "github.com/SmitUplenchwar2687/Pacer/internal/record"

// Accumulator is an ordered, append-only buffer of encoded records.
// It is owned by a single driver and is not safe for concurrent use.
type Accumulator struct {
	items []record.Encoded
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Append adds rec to the tail of the buffer.
func (a *Accumulator) Append(rec record.Encoded) {
	a.items = append(a.items, rec)
}

// Len returns the number of buffered records.
func (a *Accumulator) Len() int {
	return len(a.items)
}

// Items returns the buffered records in insertion order without removing
// them. The result is empty and non-nil when nothing is buffered. Callers
// must not modify it; appending to it never affects the Accumulator.
func (a *Accumulator) Items() []record.Encoded {
	if len(a.items) == 0 {
		return []record.Encoded{}
	}
	return a.items[:len(a.items):len(a.items)]
}

// Reset empties the buffer. Slices previously returned by Items are left intact.
func (a *Accumulator) Reset() {
	a.items = nil
}

// Drain returns every buffered record in insertion order and empties the
// buffer. Draining an empty Accumulator returns an empty, non-nil slice.
func (a *Accumulator) Drain() []record.Encoded {
	out := a.Items()
	a.Reset()
	return out
}
