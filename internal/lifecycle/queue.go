package lifecycle

import "sync"

// serialQueue is the task's private serial execution context. Work
// submitted with async runs in submission order on a single goroutine,
// so lifecycle notifications never interleave. Submission never blocks;
// the backlog is unbounded.
type serialQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	backlog []func()
	started bool
	closed  bool
}

func newSerialQueue() *serialQueue {
	q := &serialQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// async appends fn to the backlog. Work submitted after close is dropped.
func (q *serialQueue) async(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.backlog = append(q.backlog, fn)
	if !q.started {
		q.started = true
		go q.run()
	}
	q.cond.Signal()
}

// run drains the backlog until the queue is closed and empty. The worker
// goroutine is started lazily on first submission.
func (q *serialQueue) run() {
	for {
		q.mu.Lock()
		for len(q.backlog) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.backlog) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.backlog[0]
		q.backlog = q.backlog[1:]
		q.mu.Unlock()

		fn()
	}
}

// close stops accepting work. Already-submitted work still drains, so a
// queue item may safely close the queue from within its own execution.
func (q *serialQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Signal()
}
