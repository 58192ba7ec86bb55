// Package intern assigns dense integer ids to strings.
//
// Ids start at 1; id 0 is reserved so that it can pair with the zero
// sentinel row of a vector table.
package intern

import (
	"errors"
	"fmt"
	"iter"
)

// ErrUnknownID is returned when an id has not been assigned.
var ErrUnknownID = errors.New("intern: unknown id")

// Table maps strings to ids and back. It is not safe for concurrent
// mutation.
type Table struct {
	ids  map[string]uint32
	keys []string // keys[0] is reserved
}

// New returns an empty table.
func New() *Table {
	return &Table{
		ids:  make(map[string]uint32),
		keys: []string{""},
	}
}

// Intern returns the id of s, assigning the next id if s is new.
func (t *Table) Intern(s string) (id uint32, added bool) {
	if id, ok := t.ids[s]; ok {
		return id, false
	}
	id = uint32(len(t.keys)) //nolint:gosec // ids are bounded by table capacity
	t.ids[s] = id
	t.keys = append(t.keys, s)
	return id, true
}

// Lookup returns the id of s without assigning one.
func (t *Table) Lookup(s string) (uint32, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// String returns the string for id.
func (t *Table) String(id uint32) (string, error) {
	if id == 0 || int(id) >= len(t.keys) {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return t.keys[id], nil
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	return len(t.keys) - 1
}

// NextID returns the id the next new string will receive.
func (t *Table) NextID() uint32 {
	return uint32(len(t.keys)) //nolint:gosec // ids are bounded by table capacity
}

// Strings returns the interned strings in id order, starting with id 1.
// The returned slice must not be modified.
func (t *Table) Strings() []string {
	return t.keys[1:]
}

// All iterates over (id, string) pairs in id order.
func (t *Table) All() iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		for i := 1; i < len(t.keys); i++ {
			if !yield(uint32(i), t.keys[i]) { //nolint:gosec // bounded by len
				return
			}
		}
	}
}

// Reset removes all strings.
func (t *Table) Reset() {
	clear(t.ids)
	t.keys = t.keys[:1]
}
