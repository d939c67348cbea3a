package transactions

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/relaychain/txadmission/pkg/core/admission"
)

// SignatureVerifier implements admission.SignatureVerifier for
// *Transaction. This is the one piece of cryptography the worker broker
// dispatches to a pool of goroutines; everything else in the package is
// cheap enough to run inline.
type SignatureVerifier struct{}

// Verify re-derives the signing payload from tx and checks it against the
// embedded signature. It rejects anything that is not a *Transaction from
// this package, since the signing payload layout is package-private.
func (SignatureVerifier) Verify(tx admission.Transaction) error {
	t, ok := tx.(*Transaction)
	if !ok {
		return errors.Errorf("transactions: cannot verify signature for %T", tx)
	}

	if !ed25519.Verify(t.SenderKey, t.signingPayload(), t.Signature) {
		return errors.Errorf("transactions: invalid signature for %s", t.ID())
	}

	return nil
}
