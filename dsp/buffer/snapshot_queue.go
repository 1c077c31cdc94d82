package buffer

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInvalidCapacity is returned when a SnapshotQueue is created with a
// non-positive capacity or slot size.
var ErrInvalidCapacity = errors.New("buffer: invalid snapshot queue capacity")

// SnapshotQueue is a bounded single-producer/single-consumer ring of
// fixed-size sample slots.
//
// Push and Pop never block, never allocate and never retry: a full queue
// drops the new snapshot and an empty queue leaves the destination untouched.
// Exactly one goroutine may call Push and exactly one goroutine may call Pop.
//
// The cursors grow monotonically and are reduced modulo the capacity, so all
// capacity slots are usable.
type SnapshotQueue struct {
	slots    []float64
	capacity uint64
	slotSize int

	// write is only stored by the producer, read only by the consumer.
	write atomic.Uint64
	_     [56]byte
	read  atomic.Uint64
}

// NewSnapshotQueue allocates a queue holding up to capacity snapshots of
// slotSize samples each.
func NewSnapshotQueue(capacity, slotSize int) (*SnapshotQueue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0: %d", ErrInvalidCapacity, capacity)
	}
	if slotSize <= 0 {
		return nil, fmt.Errorf("%w: slot size must be > 0: %d", ErrInvalidCapacity, slotSize)
	}

	return &SnapshotQueue{
		slots:    make([]float64, capacity*slotSize),
		capacity: uint64(capacity),
		slotSize: slotSize,
	}, nil
}

// Push copies samples into the next free slot and publishes it. At most
// SlotSize samples are copied; a shorter input leaves the tail of the slot
// zeroed. Push reports false and does nothing when the queue is full.
func (q *SnapshotQueue) Push(samples []float64) bool {
	w := q.write.Load()
	if w-q.read.Load() >= q.capacity {
		return false
	}

	slot := q.slot(w)
	n := copy(slot, samples)
	clear(slot[n:])

	q.write.Store(w + 1)

	return true
}

// Pop copies the oldest snapshot into dst and releases its slot. At most
// len(dst) samples are copied. Pop reports false and leaves dst untouched
// when the queue is empty.
func (q *SnapshotQueue) Pop(dst []float64) bool {
	r := q.read.Load()
	if r == q.write.Load() {
		return false
	}

	copy(dst, q.slot(r))

	q.read.Store(r + 1)

	return true
}

// Len returns the number of snapshots ready to pop. The value is exact only
// when called from the producer or consumer goroutine.
func (q *SnapshotQueue) Len() int {
	r := q.read.Load()
	return int(q.write.Load() - r)
}

// Cap returns the maximum number of queued snapshots.
func (q *SnapshotQueue) Cap() int {
	return int(q.capacity)
}

// SlotSize returns the number of samples stored per snapshot.
func (q *SnapshotQueue) SlotSize() int {
	return q.slotSize
}

func (q *SnapshotQueue) slot(cursor uint64) []float64 {
	start := int(cursor%q.capacity) * q.slotSize
	return q.slots[start : start+q.slotSize : start+q.slotSize]
}
