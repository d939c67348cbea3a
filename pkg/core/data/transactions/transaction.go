// Package transactions is the concrete Transaction implementation and
// wire codec the rest of this module routes. The admission processor only
// depends on the admission.Transaction interface; this package is what
// satisfies it end to end, the way pkg/core/data/transactions/output.go
// satisfied the node's UTXO output shape.
package transactions

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
	"github.com/relaychain/txadmission/pkg/core/admission"
)

// Transaction is a standard account-model transfer: a sender, a nonce, an
// amount, a fee, and an ed25519 signature over everything else.
type Transaction struct {
	SenderKey ed25519.PublicKey
	TxNonce   uint64
	TxAmount  uint64
	TxFee     uint64
	TxType    uint16
	TxGroup   uint32
	Signature []byte

	id  string
	raw []byte
}

func (t *Transaction) ID() string              { return t.id }
func (t *Transaction) SenderPublicKey() string { return hex.EncodeToString(t.SenderKey) }
func (t *Transaction) Type() uint16            { return t.TxType }
func (t *Transaction) TypeGroup() uint32       { return t.TxGroup }
func (t *Transaction) Bytes() []byte           { return t.raw }
func (t *Transaction) Nonce() uint64           { return t.TxNonce }
func (t *Transaction) Amount() uint64          { return t.TxAmount }
func (t *Transaction) Fee() uint64             { return t.TxFee }

// signingPayload is everything the signature covers: every field except
// the signature itself.
func (t *Transaction) signingPayload() []byte {
	buf := new(bytes.Buffer)
	buf.Write(t.SenderKey)
	_ = binary.Write(buf, binary.BigEndian, t.TxNonce)
	_ = binary.Write(buf, binary.BigEndian, t.TxAmount)
	_ = binary.Write(buf, binary.BigEndian, t.TxFee)
	_ = binary.Write(buf, binary.BigEndian, t.TxType)
	_ = binary.Write(buf, binary.BigEndian, t.TxGroup)
	return buf.Bytes()
}

// Encode serialises the transaction to its wire form: signing payload
// followed by the signature.
func (t *Transaction) Encode() []byte {
	payload := t.signingPayload()
	out := make([]byte, 0, len(payload)+len(t.Signature))
	out = append(out, payload...)
	out = append(out, t.Signature...)
	return out
}

const signingPayloadLen = ed25519.PublicKeySize + 8 + 8 + 8 + 2 + 4

// codec implements admission.Decoder over the wire format above.
type codec struct{}

// NewCodec returns the Decoder reference implementation, satisfying
// admission.Decoder.
func NewCodec() *codec { return &codec{} }

func (c codec) decode(raw []byte, checked bool) (*Transaction, error) {
	if len(raw) < signingPayloadLen {
		return nil, errors.New("transactions: payload too short")
	}

	tx := &Transaction{raw: append([]byte{}, raw...)}
	r := bytes.NewReader(raw)

	tx.SenderKey = make([]byte, ed25519.PublicKeySize)
	if _, err := io.ReadFull(r, tx.SenderKey); err != nil {
		return nil, errors.Wrap(err, "transactions: reading sender key")
	}
	if err := binary.Read(r, binary.BigEndian, &tx.TxNonce); err != nil {
		return nil, errors.Wrap(err, "transactions: reading nonce")
	}
	if err := binary.Read(r, binary.BigEndian, &tx.TxAmount); err != nil {
		return nil, errors.Wrap(err, "transactions: reading amount")
	}
	if err := binary.Read(r, binary.BigEndian, &tx.TxFee); err != nil {
		return nil, errors.Wrap(err, "transactions: reading fee")
	}
	if err := binary.Read(r, binary.BigEndian, &tx.TxType); err != nil {
		return nil, errors.Wrap(err, "transactions: reading type")
	}
	if err := binary.Read(r, binary.BigEndian, &tx.TxGroup); err != nil {
		return nil, errors.Wrap(err, "transactions: reading type group")
	}

	tx.Signature = append([]byte{}, raw[signingPayloadLen:]...)
	if checked && len(tx.Signature) != ed25519.SignatureSize {
		return nil, errors.New("transactions: malformed signature")
	}

	tx.id = idFor(raw)

	return tx, nil
}

func idFor(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Decode is the checked path: full structural validation, used by callers
// before a transaction ever reaches CreateJob. It implements
// admission.Decoder.
func (c codec) Decode(raw []byte) (admission.Transaction, error) {
	return c.decode(raw, true)
}

// DecodeUnchecked is the post-worker fast path: the worker has already
// signature-verified raw, so this only reconstructs the struct, skipping
// the signature-length assertion Decode performs. It implements
// admission.Decoder.
func (c codec) DecodeUnchecked(raw []byte) (admission.Transaction, error) {
	return c.decode(raw, false)
}
