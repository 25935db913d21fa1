// Package queue provides bounded multi-producer multi-consumer free-list queues.
//
// A queue is a power-of-two ring of atomic slots with independent head and tail
// spinlocks, so producers and consumers only contend with their own kind. Each
// slot either holds the empty sentinel or one caller value:
//
//   - Queue stores uint64 values; the sentinel is 0, so callers typically store index+1
//     or a non-nil address.
//   - Queue32 stores uint32 values; the sentinel is 0xFFFFFFFF, so index 0 is valid.
//
// Enqueue reports false when the target slot is still occupied (the queue is
// full); Dequeue reports false when the head slot is empty. Values are not
// strictly FIFO across racing producers, but no value is ever duplicated or lost.
//
// The ring buffer lives in an anonymous memory mapping outside the Go heap.
// Close releases it; a closed queue must not be used again.
package queue
