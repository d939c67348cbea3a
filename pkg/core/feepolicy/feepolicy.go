// Package feepolicy is a reference implementation of the admission
// processor's FeeMatcher collaborator: the dynamic-fee policy engine that
// decides, independently, whether a transaction may enter the pool and
// whether it should be broadcast.
package feepolicy

import (
	"context"

	"github.com/relaychain/txadmission/pkg/core/admission"
)

// FeeBearer is the subset of admission.Transaction the policy needs to see
// the fee and the byte size it is paying for.
type FeeBearer interface {
	admission.Transaction
	Fee() uint64
}

// Matcher applies a minimum-fee-per-byte floor for entering the pool, and a
// lower floor (broadcast-but-not-accept) for gossiping a transaction the
// local node will not itself hold.
type Matcher struct {
	MinFeePerByte       uint64
	MinBroadcastPerByte uint64
}

// New returns a Matcher with sane defaults for a node that broadcasts
// everything above dust but only pools transactions that clear its own
// fee floor.
func New(minFeePerByte, minBroadcastPerByte uint64) *Matcher {
	return &Matcher{MinFeePerByte: minFeePerByte, MinBroadcastPerByte: minBroadcastPerByte}
}

// Match implements the FeeMatcher contract.
func (m *Matcher) Match(_ context.Context, tx admission.Transaction) (admission.DynamicFeeMatch, error) {
	bearer, ok := tx.(FeeBearer)
	if !ok {
		return admission.DynamicFeeMatch{}, nil
	}

	size := uint64(len(tx.Bytes()))
	if size == 0 {
		size = 1
	}
	perByte := bearer.Fee() / size

	return admission.DynamicFeeMatch{
		EnterPool: perByte >= m.MinFeePerByte,
		Broadcast: perByte >= m.MinBroadcastPerByte,
	}, nil
}
