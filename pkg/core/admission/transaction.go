package admission

// Transaction is an opaque, already-deserialised transaction. The processor
// never constructs one; it only routes raw payloads to collaborators that do.
type Transaction interface {
	// ID is the content-derived, stable identifier of the transaction.
	ID() string

	// SenderPublicKey identifies the wallet that must cover fees and nonce
	// ordering for this transaction.
	SenderPublicKey() string

	// Type and TypeGroup together select the handler that governs whether
	// this transaction may enter the pool.
	Type() uint16
	TypeGroup() uint32

	// Bytes returns the serialised wire form, recoverable by Decode.
	Bytes() []byte
}

// RawTransaction pairs a serialised payload with the id its submitter claims
// for it. CreateJob does not take RawTransaction values: it takes decoded
// Transactions, and no code in this package consumes this type.
type RawTransaction struct {
	ID   string
	Data []byte
}

// Decoder turns serialised bytes into a typed Transaction. Two variants are
// used: the checked path (full grammar and structural validation) runs
// before the worker; the unchecked path (step (b.i) of the pipeline) trusts
// that the worker has already verified the signature and skips redundant
// structural checks.
type Decoder interface {
	Decode(raw []byte) (Transaction, error)
	DecodeUnchecked(raw []byte) (Transaction, error)
}
