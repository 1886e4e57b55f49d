package bridge

import "sync"

// Queue buffers commands submitted before the document is ready.
// Safe for concurrent use from multiple host goroutines.
type Queue struct {
	mu   sync.Mutex
	cmds []Command
}

// NewQueue creates an empty command queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Submit appends cmd to the tail. Never blocks beyond the internal lock.
func (q *Queue) Submit(cmd Command) {
	q.mu.Lock()
	q.cmds = append(q.cmds, cmd)
	q.mu.Unlock()
}

// DrainAll atomically removes and returns the full contents in FIFO order.
// Commands are never dequeued one at a time — a partial drain could
// interleave with concurrent submissions mid-flush.
func (q *Queue) DrainAll() []Command {
	q.mu.Lock()
	cmds := q.cmds
	q.cmds = nil
	q.mu.Unlock()
	return cmds
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	n := len(q.cmds)
	q.mu.Unlock()
	return n
}
