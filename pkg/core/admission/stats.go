package admission

import (
	"github.com/sirupsen/logrus"
)

// emitStats writes the one info line required per finished ticket. N counts
// the worker's valid transactions still listed after forged removal, plus
// every id in the finished excess and invalid buckets; it is not the same as
// the accept count, since a valid transaction may still fail wallet, fee, or
// pool checks without becoming invalid.
func emitStats(log *logrus.Entry, validCount int, result FinishedJobResult) {
	n := validCount + len(result.Excess) + len(result.Invalid)

	noun := "transaction"
	if n != 1 {
		noun = "transactions"
	}

	log.Infof("Received %d %s (accept: %d broadcast: %d excess: %d invalid: %d)",
		n, noun, len(result.Accept), len(result.Broadcast), len(result.Excess), len(result.Invalid))
}
