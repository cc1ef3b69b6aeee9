package match

import "github.com/ernie/bedtrack/internal/domain"

// TrapCapacity is the maximum number of queued traps per team
const TrapCapacity = 3

// CountedTrap is one queue entry: a trap kind and its remaining set-offs
type CountedTrap struct {
	Kind      domain.TrapKind `json:"kind"`
	Remaining int             `json:"remaining"`
}

// TrapQueue is the ordered record of purchased traps, front is oldest.
// Set-off events missed while disconnected are reconciled on the next
// purchase or set-off.
type TrapQueue struct {
	entries []CountedTrap
}

func newTrapQueue(initial []domain.TrapKind, uses int) TrapQueue {
	q := TrapQueue{entries: make([]CountedTrap, 0, TrapCapacity)}
	for _, kind := range initial {
		q.Purchase(kind, uses)
	}
	return q
}

// Purchase appends a trap with the given uses, evicting the oldest entries
// while the queue is full
func (q *TrapQueue) Purchase(kind domain.TrapKind, uses int) {
	for len(q.entries) >= TrapCapacity {
		q.evictFront()
	}
	q.entries = append(q.entries, CountedTrap{Kind: kind, Remaining: uses})
}

// SetOff consumes one use of the first entry of the given kind. Entries in
// front of it are evicted. Returns false if no entry of that kind was found,
// in which case the queue ends up empty.
func (q *TrapQueue) SetOff(kind domain.TrapKind) bool {
	for len(q.entries) > 0 {
		front := &q.entries[0]
		if front.Kind != kind {
			q.evictFront()
			continue
		}
		front.Remaining--
		if front.Remaining <= 0 {
			q.evictFront()
		}
		return true
	}
	return false
}

// Len returns the number of queued traps
func (q *TrapQueue) Len() int {
	return len(q.entries)
}

// Entries returns a copy of the queue, front to back
func (q *TrapQueue) Entries() []CountedTrap {
	out := make([]CountedTrap, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *TrapQueue) evictFront() {
	q.entries = append(q.entries[:0], q.entries[1:]...)
}
