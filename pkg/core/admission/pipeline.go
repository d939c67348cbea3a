package admission

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// pipeline is the post-worker pipeline: wallet application, dynamic-fee
// classification, forged-id rejection, mempool insertion, and broadcast
// handoff. It runs once per ticket, always from the completion queue's
// single consumer, so it is the only code in the package allowed to touch
// the wallet manager, mempool, database, and peer monitor.
type pipeline struct {
	decoder Decoder
	wallets WalletManager
	fees    FeeMatcher
	chain   ChainDatabase
	mempool MempoolStore
	peers   PeerMonitor

	tickets *ticketStore
	dedup   *dedupCache
	metrics *metrics
	log     *logrus.Entry
}

func (p *pipeline) run(ctx context.Context, job *PendingJobResult) {
	// (a) Reset: only this pipeline decides the final accept/broadcast
	// sets, discarding any worker-side speculation.
	job.accept = make(map[string]Transaction)
	job.broadcast = make(map[string]Transaction)

	var accepted []Transaction

	// (b) Wallet checks, per tx, in arrival order.
	for _, entry := range job.validTransactions {
		tx, err := p.decoder.DecodeUnchecked(entry.raw)
		if err != nil {
			pushError(job, entry.id, ErrorRecord{Kind: ErrUnknown, Message: err.Error()})
			continue
		}

		if err := p.wallets.ThrowIfCannotBeApplied(ctx, tx); err != nil {
			pushError(job, tx.ID(), ErrorRecord{Kind: ErrApply, Message: err.Error()})
			continue
		}

		fee, err := p.fees.Match(ctx, tx)
		if err != nil {
			pushError(job, tx.ID(), ErrorRecord{Kind: ErrUnknown, Message: err.Error()})
			continue
		}

		if !fee.EnterPool && !fee.Broadcast {
			pushError(job, tx.ID(), ErrorRecord{
				Kind:    ErrLowFee,
				Message: "The fee is too low to broadcast and accept the transaction",
			})
			continue
		}

		if fee.EnterPool {
			job.accept[tx.ID()] = tx
		}
		if fee.Broadcast {
			job.broadcast[tx.ID()] = tx
		}
		accepted = append(accepted, tx)
	}

	// (c) Forged removal.
	p.removeForged(ctx, job)

	// (d) Mempool insertion.
	p.insertIntoMempool(ctx, job, accepted)

	// (e) Broadcast: fire-and-forget, never recorded against the ticket.
	if len(job.broadcast) > 0 {
		values := make([]Transaction, 0, len(job.broadcast))
		for _, tx := range job.broadcast {
			values = append(values, tx)
		}
		p.peers.BroadcastTransactions(values)
	}

	// (f) Finalise.
	p.finalise(job)
}

func (p *pipeline) removeForged(ctx context.Context, job *PendingJobResult) {
	candidates := make([]string, 0, len(job.accept)+len(job.broadcast))
	for id := range job.accept {
		candidates = append(candidates, id)
	}
	for id := range job.broadcast {
		if _, already := job.accept[id]; already {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return
	}

	forged, err := p.chain.GetForgedTransactionIDs(ctx, candidates)
	if err != nil {
		p.log.WithError(err).Error("forged-id lookup failed; skipping forged removal for this ticket")
		return
	}

	for _, id := range forged {
		pushError(job, id, ErrorRecord{Kind: ErrForged, Message: "Already forged."})
		delete(job.accept, id)
		delete(job.broadcast, id)

		idx := -1
		for i, entry := range job.validTransactions {
			if entry.id == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			panic(fmt.Sprintf("admission: forged id %s not found in valid transactions", id))
		}
		job.validTransactions = append(job.validTransactions[:idx], job.validTransactions[idx+1:]...)
	}
}

func (p *pipeline) insertIntoMempool(ctx context.Context, job *PendingJobResult, accepted []Transaction) {
	var toInsert []Transaction
	for _, tx := range accepted {
		if _, ok := job.accept[tx.ID()]; ok {
			toInsert = append(toInsert, tx)
		}
	}
	if len(toInsert) == 0 {
		return
	}

	rejected, err := p.mempool.AddTransactions(ctx, toInsert)
	if err != nil {
		p.log.WithError(err).Error("mempool insertion failed for this ticket")
		return
	}

	for _, r := range rejected {
		delete(job.accept, r.TxID)
		// A full pool is transient: the transaction should still be
		// gossiped. Any other pool error is terminal for it.
		if r.Kind != ErrPoolFull {
			delete(job.broadcast, r.TxID)
		}
		pushError(job, r.TxID, ErrorRecord{Kind: r.Kind, Message: r.Message})
	}
}

func (p *pipeline) finalise(job *PendingJobResult) {
	validCount := len(job.validTransactions)

	partial := p.tickets.takePartial(job.TicketID)
	result := job.finish(partial)
	p.tickets.storeProcessed(result)

	for _, id := range result.bucketedIDs() {
		p.dedup.remove(id)
	}

	emitStats(p.log, validCount, result)
	p.metrics.observeFinished(result)
}
