// Package mempool is a reference implementation of the admission
// processor's MempoolStore collaborator: insertion, capacity, and
// duplicate lookup over the verified transactions waiting for the next
// block.
package mempool

import (
	"context"
	"fmt"
	"sync"

	"github.com/relaychain/txadmission/pkg/core/admission"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "mempool")

// Mempool is a storage for the chain transactions that are valid according
// to the current chain state and can be included in the next block.
type Mempool struct {
	mu sync.Mutex

	verified Pool

	perSenderCapacity int
	senderCounts      map[string]int
}

// New instantiates an empty mempool. capacity bounds the total number of
// transactions held; perSenderCapacity bounds how many of those may share a
// single sender (0 disables the per-sender check).
func New(capacity, perSenderCapacity int) *Mempool {
	log.Infof("create new instance (capacity=%d, per-sender=%d)", capacity, perSenderCapacity)

	return &Mempool{
		verified:          newHashMap(capacity),
		perSenderCapacity: perSenderCapacity,
		senderCounts:      make(map[string]int),
	}
}

// Has reports whether id is already held in the pool.
func (m *Mempool) Has(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verified.Contains(id), nil
}

// AddTransactions admits each transaction in order, reporting the ones it
// could not admit without failing the whole batch.
func (m *Mempool) AddTransactions(_ context.Context, txs []admission.Transaction) ([]admission.PoolRejection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rejected []admission.PoolRejection

	for _, tx := range txs {
		sender := tx.SenderPublicKey()

		if m.perSenderCapacity > 0 && m.senderCounts[sender] >= m.perSenderCapacity {
			rejected = append(rejected, admission.PoolRejection{
				TxID:    tx.ID(),
				Kind:    admission.ErrPoolOther,
				Message: fmt.Sprintf("Sender %s has reached the pool's per-sender capacity", sender),
			})
			continue
		}

		if !m.verified.Put(entry{tx: tx, sender: sender}) {
			rejected = append(rejected, admission.PoolRejection{
				TxID:    tx.ID(),
				Kind:    admission.ErrPoolFull,
				Message: "Pool is full",
			})
			continue
		}

		m.senderCounts[sender]++
	}

	return rejected, nil
}

// Remove drops id from the pool, e.g. once it has been included in a block.
func (m *Mempool) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verified.Range(func(e entry) error {
		if e.tx.ID() == id {
			m.senderCounts[e.sender]--
			if m.senderCounts[e.sender] <= 0 {
				delete(m.senderCounts, e.sender)
			}
		}
		return nil
	})
	m.verified.Delete(id)
}

// Len reports the number of transactions currently held.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verified.Len()
}
