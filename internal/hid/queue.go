package hid

import "sync"

// Queue is the FIFO shared between HID command producers (the pipeline
// controller routing remote input, and the local event translator) and the
// single HID consumer. Producers never block: Push always succeeds. The
// consumer drains the whole queue on each tick rather than popping one
// command at a time, matching the 100 Hz consumer cadence described in the
// spec.
//
// Grounded on the teacher corpus's safe_queue.h pattern (a mutex-guarded
// std::queue with a singleton accessor); Go's channels don't fit here
// because the consumer wants "give me everything that's pending right now",
// not "block until one item arrives".
type Queue struct {
	mu    sync.Mutex
	items []Command
}

// NewQueue returns an empty queue. The HID command queue has process
// lifetime and a single instance is shared by all producers and the one
// consumer; callers typically construct one Queue and pass it around by
// reference rather than relying on a package-level singleton.
func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues a command. Safe for concurrent use by multiple producers.
func (q *Queue) Push(cmd Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()
}

// DrainAll removes and returns every command currently queued, in FIFO
// order. Only the consumer should call this.
func (q *Queue) DrainAll() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Clear discards all pending commands without processing them. Nothing in
// this package calls it: a mode switch (Controller.SetMode) leaves queued
// commands in place.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Len reports the number of commands currently queued. Intended for tests
// and diagnostics, not for control flow.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
