package transactions

import "crypto/ed25519"

// New builds and signs a Transaction from its fields. It is a test/tooling
// helper, not part of the wire codec.
func New(priv ed25519.PrivateKey, nonce, amount, fee uint64, txType uint16, group uint32) *Transaction {
	tx := &Transaction{
		SenderKey: priv.Public().(ed25519.PublicKey),
		TxNonce:   nonce,
		TxAmount:  amount,
		TxFee:     fee,
		TxType:    txType,
		TxGroup:   group,
	}

	tx.Signature = ed25519.Sign(priv, tx.signingPayload())
	tx.raw = tx.Encode()
	tx.id = idFor(tx.raw)

	return tx
}
