package worker

import "context"

// Queue is a bounded FIFO of placement jobs. Unlike the mailbox nothing is
// coalesced: every dump that lands in the inbox must be placed.
type Queue struct {
	ch chan Job
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Job, max(size, 1))}
}

// Push blocks while the queue is full.
func (q *Queue) Push(ctx context.Context, j Job) error {
	select {
	case q.ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Pop(ctx context.Context) (Job, bool) {
	select {
	case j := <-q.ch:
		return j, true
	case <-ctx.Done():
		return Job{}, false
	}
}

// Jobs exposes the receive side for select loops.
func (q *Queue) Jobs() <-chan Job { return q.ch }

func (q *Queue) Len() int { return len(q.ch) }
