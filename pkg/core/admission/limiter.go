package admission

import "fmt"

// senderCountLimiter caps how many transactions from a single sender may
// pass the worker in one batch. Transactions beyond the cap are classified
// as excess, in submission order.
type senderCountLimiter struct {
	maxPerSender int
}

// NewSenderCountLimiter returns a SenderLimiter enforcing maxPerSender
// transactions per sender within a single worker batch.
func NewSenderCountLimiter(maxPerSender int) SenderLimiter {
	return &senderCountLimiter{maxPerSender: maxPerSender}
}

func (l *senderCountLimiter) Apply(txs []Transaction) ([]Transaction, map[string]ErrorRecord) {
	if l.maxPerSender <= 0 {
		return txs, nil
	}

	counts := make(map[string]int, len(txs))
	accepted := make([]Transaction, 0, len(txs))
	excess := make(map[string]ErrorRecord)

	for _, tx := range txs {
		sender := tx.SenderPublicKey()
		counts[sender]++
		if counts[sender] > l.maxPerSender {
			excess[tx.ID()] = ErrorRecord{
				Kind:    ErrPoolOther,
				Message: fmt.Sprintf("Sender %s exceeded the per-batch transaction limit", sender),
			}
			continue
		}
		accepted = append(accepted, tx)
	}

	return accepted, excess
}
