package admission

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// preFilter runs the synchronous checks performed before a payload crosses
// into the worker. It returns true iff the transaction should be handed to
// the worker.
type preFilter struct {
	mempool  MempoolStore
	handlers HandlerRegistry
}

// check implements the ordered, short-circuiting contract of §4.3: mempool
// duplicate, then handler admissibility. Any collaborator failure is caught
// and classified as UNKNOWN.
func (f *preFilter) check(ctx context.Context, tx Transaction, job *PendingJobResult) bool {
	dup, err := f.mempool.Has(ctx, tx.ID())
	if err != nil {
		pushError(job, tx.ID(), ErrorRecord{Kind: ErrUnknown, Message: err.Error()})
		return false
	}
	if dup {
		pushError(job, tx.ID(), ErrorRecord{
			Kind:    ErrDuplicate,
			Message: fmt.Sprintf("Duplicate transaction %s", tx.ID()),
		})
		return false
	}

	handler, err := f.handlers.Get(tx.Type(), tx.TypeGroup())
	if err != nil {
		pushError(job, tx.ID(), ErrorRecord{
			Kind:    ErrUnknown,
			Message: errors.Wrap(err, "resolving handler").Error(),
		})
		return false
	}

	ok, err := handler.CanEnterPool(ctx, tx, f.mempool)
	if err != nil {
		pushError(job, tx.ID(), ErrorRecord{
			Kind:    ErrUnknown,
			Message: errors.Wrap(err, "handler admissibility check").Error(),
		})
		return false
	}

	// A false verdict here is silent by design: the handler is responsible
	// for its own classification. See the design notes on this policy.
	return ok
}
