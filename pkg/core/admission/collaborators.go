package admission

import "context"

// PoolRejection is one entry of the mempool's "not added" response.
type PoolRejection struct {
	TxID    string
	Kind    ErrorKind
	Message string
}

// MempoolStore is the out-of-scope transaction pool collaborator: insertion,
// capacity, duplicate lookup. A reference implementation lives in
// github.com/relaychain/txadmission/pkg/core/mempool.
type MempoolStore interface {
	Has(ctx context.Context, id string) (bool, error)
	AddTransactions(ctx context.Context, txs []Transaction) (notAdded []PoolRejection, err error)
}

// Wallet is the minimal per-sender state the fee and nonce checks need.
type Wallet struct {
	PublicKey string
	Balance   uint64
	Nonce     uint64
}

// WalletManager is the out-of-scope wallet collaborator: nonce/balance
// application against live wallet state.
type WalletManager interface {
	FindByPublicKey(ctx context.Context, pk string) (Wallet, error)
	ThrowIfCannotBeApplied(ctx context.Context, tx Transaction) error
}

// ChainDatabase is the out-of-scope chain database collaborator: forged-id
// lookup only.
type ChainDatabase interface {
	GetForgedTransactionIDs(ctx context.Context, ids []string) ([]string, error)
}

// Handler is a per-type admission predicate. Handlers classify silently:
// a false return drops the transaction without an error record, matching
// the source's preserved behavior (see §4.3 of the spec).
type Handler interface {
	CanEnterPool(ctx context.Context, tx Transaction, pool MempoolStore) (bool, error)
}

// HandlerRegistry resolves the handler for a (type, type group) pair.
type HandlerRegistry interface {
	Get(txType uint16, typeGroup uint32) (Handler, error)
}

// DynamicFeeMatch is the independent enter_pool/broadcast verdict of the fee
// policy engine.
type DynamicFeeMatch struct {
	EnterPool bool
	Broadcast bool
}

// FeeMatcher is the out-of-scope dynamic-fee policy engine.
type FeeMatcher interface {
	Match(ctx context.Context, tx Transaction) (DynamicFeeMatch, error)
}

// PeerMonitor is the out-of-scope peer broadcast collaborator. Broadcast is
// fire-and-forget: the processor never inspects or retries its outcome.
type PeerMonitor interface {
	BroadcastTransactions(txs []Transaction)
}
