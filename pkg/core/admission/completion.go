// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package admission

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// completionQueue is the single-consumer serialisation point for worker
// results. At most one pipeline run is ever in flight, process-wide: this
// is what makes wallet-apply and mempool-insert safe to call without their
// own locking.
//
// The queue itself has no bounded capacity: push never blocks the broker's
// worker goroutines, no matter how far the consumer falls behind. It is
// backed by a mutex-guarded slice rather than a buffered channel for
// exactly that reason.
type completionQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*PendingJobResult
	closed bool

	yield time.Duration
	run   func(context.Context, *PendingJobResult)
	log   *logrus.Entry

	done chan struct{}
}

func newCompletionQueue(yield time.Duration, run func(context.Context, *PendingJobResult)) *completionQueue {
	q := &completionQueue{
		yield: yield,
		run:   run,
		log:   logrus.WithField("prefix", "admission.completion"),
		done:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push is the broker's only legal entry point into the queue. It never
// blocks: the backing slice grows to fit whatever the broker hands off.
func (q *completionQueue) push(job *PendingJobResult) {
	q.mu.Lock()
	q.items = append(q.items, job)
	q.mu.Unlock()
	q.cond.Signal()
}

// start runs the single consumer goroutine until ctx is cancelled. Items
// are processed strictly in arrival order; a brief yield between items
// keeps a burst of completions from starving the submit path. Once ctx is
// cancelled the consumer drains whatever is already queued before exiting,
// so tickets submitted just before shutdown still reach a processed state.
func (q *completionQueue) start(ctx context.Context) {
	go func() {
		defer close(q.done)

		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.closed = true
			q.mu.Unlock()
			q.cond.Broadcast()
		})
		defer stop()

		for {
			job, ok := q.next()
			if !ok {
				return
			}
			q.runSafely(ctx, job)
			time.Sleep(q.yield)
		}
	}()
}

// next blocks until an item is available or the queue has been closed and
// drained.
func (q *completionQueue) next() (*PendingJobResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			return nil, false
		}
		q.cond.Wait()
	}

	job := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return job, true
}

// runSafely isolates a pipeline fault to the faulting ticket. Matching the
// source, a fault abandons the ticket without a processed entry rather than
// crashing the consumer; see the design notes on pipeline exceptions.
func (q *completionQueue) runSafely(ctx context.Context, job *PendingJobResult) {
	defer func() {
		if r := recover(); r != nil {
			q.log.WithFields(logrus.Fields{
				"ticket": job.TicketID,
				"panic":  r,
			}).Error("post-worker pipeline faulted; ticket abandoned")
		}
	}()

	q.run(ctx, job)
}

func (q *completionQueue) wait() {
	<-q.done
}
