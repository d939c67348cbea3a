package admission

import (
	"context"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
)

// jobInput is what the submit path hands to the broker: the eligible batch
// for one ticket plus the wallet snapshot taken at submission time.
type jobInput struct {
	ticketID      string
	transactions  []Transaction
	senderWallets map[string]Wallet
}

// SignatureVerifier performs the expensive cryptographic check the worker
// pool exists to parallelise. It is the one piece of the broker this
// package does not implement: production nodes supply their own.
type SignatureVerifier interface {
	Verify(tx Transaction) error
}

// SenderLimiter enforces the worker's per-sender count/weight limits,
// classifying the ids it rejects as excess. A nil limiter admits everything.
type SenderLimiter interface {
	Apply(txs []Transaction) (accepted []Transaction, excess map[string]ErrorRecord)
}

// completionSink is the capability the broker uses to hand a finished job to
// the completion queue. Passing it in at construction (rather than a
// back-reference to the Processor) avoids a broker<->processor ownership
// cycle; see the design notes on cyclic ownership.
type completionSink func(*PendingJobResult)

// workerBroker submits verification batches to a bounded goroutine pool and
// reports results, exactly once per ticket, to its completion sink.
type workerBroker struct {
	pool     *workerpool.WorkerPool
	verifier SignatureVerifier
	limiter  SenderLimiter
	deliver  completionSink
	log      *logrus.Entry
}

func newWorkerBroker(size int, verifier SignatureVerifier, limiter SenderLimiter, deliver completionSink) *workerBroker {
	return &workerBroker{
		pool:     workerpool.New(size),
		verifier: verifier,
		limiter:  limiter,
		deliver:  deliver,
		log:      logrus.WithField("prefix", "admission.broker"),
	}
}

// submit dispatches one ticket's batch to the pool. The job it produces
// preserves ticket identity and is handed to the completion sink exactly
// once, from the pool goroutine.
func (b *workerBroker) submit(ctx context.Context, in jobInput) {
	b.pool.Submit(func() {
		job := newPendingJobResult(in.ticketID)
		job.senderWallets = in.senderWallets

		txs := in.transactions
		if b.limiter != nil {
			var excess map[string]ErrorRecord
			txs, excess = b.limiter.Apply(txs)
			for id, rec := range excess {
				job.excess[id] = rec
			}
		}

		seen := make(map[string]struct{}, len(txs))
		for _, tx := range txs {
			if _, dup := seen[tx.ID()]; dup {
				continue
			}
			seen[tx.ID()] = struct{}{}

			if err := b.verifier.Verify(tx); err != nil {
				job.invalid[tx.ID()] = ErrorRecord{Kind: ErrUnknown, Message: err.Error()}
				continue
			}

			job.validTransactions = append(job.validTransactions, validEntry{
				raw: tx.Bytes(),
				id:  tx.ID(),
			})
		}

		b.log.WithFields(logrus.Fields{
			"ticket": in.ticketID,
			"valid":  len(job.validTransactions),
		}).Debug("verification batch complete")

		b.deliver(job)
	})
}

func (b *workerBroker) stop() {
	b.pool.StopWait()
}
