package admission

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Collaborators bundles every external dependency the processor consumes.
// Apart from the optional Limiter (NewSenderCountLimiter), none of them are
// implemented by this package; see
// github.com/relaychain/txadmission/pkg/core/{mempool,wallet,feepolicy,
// handlers,broadcast,chain} for reference implementations.
type Collaborators struct {
	Mempool  MempoolStore
	Wallets  WalletManager
	Chain    ChainDatabase
	Handlers HandlerRegistry
	Fees     FeeMatcher
	Peers    PeerMonitor
	Decoder  Decoder
	Verifier SignatureVerifier

	// Limiter is optional; a nil value admits every transaction regardless
	// of per-sender count.
	Limiter SenderLimiter

	// Registerer receives the processor's prometheus metrics. A nil value
	// disables registration (useful in tests that construct multiple
	// processors against the default registry).
	Registerer prometheus.Registerer
}

// Processor is the transaction admission processor: the concurrency and
// correctness core described in the package doc. CreateJob returns
// immediately with a ticket id; every other state transition is driven by
// worker completion callbacks running on the single-consumer completion
// queue.
type Processor struct {
	cfg Config

	filter  *preFilter
	wallets WalletManager
	broker  *workerBroker
	queue   *completionQueue
	tickets *ticketStore
	dedup   *dedupCache
	metrics *metrics

	cancel context.CancelFunc
	log    *logrus.Entry
}

// New wires a Processor from its collaborators and configuration. The
// completion queue's consumer goroutine is started immediately; call
// Shutdown to stop it.
func New(ctx context.Context, cfg Config, c Collaborators) *Processor {
	cfg = cfg.withDefaults()

	log := logrus.WithField("prefix", "admission")

	ctx, cancel := context.WithCancel(ctx)

	p := &Processor{
		cfg:     cfg,
		tickets: newTicketStore(),
		dedup:   newDedupCache(cfg.DedupCacheCapacity),
		wallets: c.Wallets,
		cancel:  cancel,
		log:     log,
		filter: &preFilter{
			mempool:  c.Mempool,
			handlers: c.Handlers,
		},
	}

	p.metrics = newMetrics(c.Registerer, func() float64 { return float64(p.dedup.size()) })

	pl := &pipeline{
		decoder: c.Decoder,
		wallets: c.Wallets,
		fees:    c.Fees,
		chain:   c.Chain,
		mempool: c.Mempool,
		peers:   c.Peers,
		tickets: p.tickets,
		dedup:   p.dedup,
		metrics: p.metrics,
		log:     log,
	}

	p.queue = newCompletionQueue(cfg.CompletionYield, pl.run)
	p.queue.start(ctx)

	p.broker = newWorkerBroker(cfg.WorkerPoolSize, c.Verifier, c.Limiter, p.queue.push)

	return p
}

// Shutdown drains the worker pool, letting every already-submitted ticket
// reach the completion queue, then stops the single-consumer goroutine and
// waits for it to exit. Any ticket still pending when Shutdown is called is
// given the chance to finish; nothing submitted after Shutdown returns will.
func (p *Processor) Shutdown() {
	p.broker.stop()
	p.cancel()
	p.queue.wait()
}

// CreateJob implements §4.7's submission flow. It never fails: every call
// returns a well-formed ticket id, even for an empty or all-duplicate
// input.
func (p *Processor) CreateJob(ctx context.Context, txs []Transaction) string {
	ticketID := uuid.NewString()
	job := newPendingJobResult(ticketID)
	p.metrics.observeSubmitted()

	eligible := make([]Transaction, 0, len(txs))

	for _, tx := range txs {
		if !p.dedup.insert(tx.ID()) {
			p.log.WithField("tx", tx.ID()).Debug("skipping: already in flight")
			continue
		}

		if !p.filter.check(ctx, tx, job) {
			continue
		}

		eligible = append(eligible, tx)

		if wallet, err := p.wallets.FindByPublicKey(ctx, tx.SenderPublicKey()); err == nil {
			job.senderWallets[tx.SenderPublicKey()] = wallet
		}
	}

	if len(eligible) == 0 {
		result := job.finish(nil)
		p.tickets.storeProcessed(result)
		for _, id := range result.bucketedIDs() {
			p.dedup.remove(id)
		}
		emitStats(p.log, 0, result)
		p.metrics.observeFinished(result)
		return ticketID
	}

	p.tickets.markPending(ticketID)
	if len(job.errors) > 0 || len(job.excess) > 0 {
		p.tickets.storePartial(job)
	}

	p.broker.submit(ctx, jobInput{
		ticketID:      ticketID,
		transactions:  eligible,
		senderWallets: job.senderWallets,
	})

	return ticketID
}

// HasPending reports whether ticketID is still awaiting its worker result.
func (p *Processor) HasPending(ticketID string) bool {
	return p.tickets.HasPending(ticketID)
}

// PendingTickets returns a snapshot of every ticket id still awaiting its
// worker result.
func (p *Processor) PendingTickets() []string {
	return p.tickets.PendingTickets()
}

// ProcessedTicket returns the finished result for ticketID, if any.
func (p *Processor) ProcessedTicket(ticketID string) (FinishedJobResult, bool) {
	return p.tickets.ProcessedTicket(ticketID)
}

// ProcessedTickets returns a snapshot of every finished result.
func (p *Processor) ProcessedTickets() []FinishedJobResult {
	return p.tickets.ProcessedTickets()
}
