package admission

import (
	"context"
	"errors"
	"sync"
)

var (
	errUnknownRaw       = errors.New("fakeDecoder: unregistered raw payload")
	errInvalidSignature = errors.New("fakeVerifier: invalid signature")
)

// fakeTx is the in-memory stand-in for admission.Transaction used across
// this package's tests.
type fakeTx struct {
	id     string
	sender string
}

func (f fakeTx) ID() string              { return f.id }
func (f fakeTx) SenderPublicKey() string { return f.sender }
func (f fakeTx) Type() uint16            { return 0 }
func (f fakeTx) TypeGroup() uint32       { return 0 }
func (f fakeTx) Bytes() []byte           { return []byte(f.id) }

// fakeMempool is a configurable MempoolStore.
type fakeMempool struct {
	mu       sync.Mutex
	dupes    map[string]bool
	rejected map[string]PoolRejection
	added    []string
}

func newFakeMempool() *fakeMempool {
	return &fakeMempool{dupes: map[string]bool{}, rejected: map[string]PoolRejection{}}
}

func (m *fakeMempool) Has(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dupes[id], nil
}

func (m *fakeMempool) AddTransactions(_ context.Context, txs []Transaction) ([]PoolRejection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PoolRejection
	for _, tx := range txs {
		if rej, ok := m.rejected[tx.ID()]; ok {
			out = append(out, rej)
			continue
		}
		m.added = append(m.added, tx.ID())
	}
	return out, nil
}

// fakeWallets is a configurable WalletManager.
type fakeWallets struct {
	mu       sync.Mutex
	failWith map[string]error
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{failWith: map[string]error{}}
}

func (w *fakeWallets) FindByPublicKey(_ context.Context, pk string) (Wallet, error) {
	return Wallet{PublicKey: pk}, nil
}

func (w *fakeWallets) ThrowIfCannotBeApplied(_ context.Context, tx Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failWith[tx.ID()]
}

// fakeChain is a configurable ChainDatabase.
type fakeChain struct {
	mu     sync.Mutex
	forged map[string]bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{forged: map[string]bool{}}
}

func (c *fakeChain) GetForgedTransactionIDs(_ context.Context, ids []string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, id := range ids {
		if c.forged[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// fakeHandler always returns a fixed verdict, optionally erroring.
type fakeHandler struct {
	admit bool
	err   error
}

func (h fakeHandler) CanEnterPool(context.Context, Transaction, MempoolStore) (bool, error) {
	return h.admit, h.err
}

// fakeHandlers is a HandlerRegistry with a single default verdict, unless
// overridden per id.
type fakeHandlers struct {
	mu       sync.Mutex
	byID     map[string]fakeHandler
	fallback fakeHandler
}

func newFakeHandlers() *fakeHandlers {
	return &fakeHandlers{byID: map[string]fakeHandler{}, fallback: fakeHandler{admit: true}}
}

// Get lets tests resolve a per-id verdict without wiring type/type-group
// combinations: it ignores its arguments and returns an idAwareHandler,
// which looks the transaction up in byID at call time.
func (r *fakeHandlers) Get(uint16, uint32) (Handler, error) {
	return idAwareHandler{r}, nil
}

type idAwareHandler struct{ r *fakeHandlers }

func (h idAwareHandler) CanEnterPool(ctx context.Context, tx Transaction, pool MempoolStore) (bool, error) {
	h.r.mu.Lock()
	verdict, ok := h.r.byID[tx.ID()]
	fallback := h.r.fallback
	h.r.mu.Unlock()
	if ok {
		return verdict.CanEnterPool(ctx, tx, pool)
	}
	return fallback.CanEnterPool(ctx, tx, pool)
}

// fakeFees is a configurable FeeMatcher.
type fakeFees struct {
	mu           sync.Mutex
	byID         map[string]DynamicFeeMatch
	defaultMatch DynamicFeeMatch
}

func newFakeFees() *fakeFees {
	return &fakeFees{byID: map[string]DynamicFeeMatch{}, defaultMatch: DynamicFeeMatch{EnterPool: true, Broadcast: true}}
}

func (f *fakeFees) Match(_ context.Context, tx Transaction) (DynamicFeeMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.byID[tx.ID()]; ok {
		return m, nil
	}
	return f.defaultMatch, nil
}

// fakePeers records every broadcast it receives.
type fakePeers struct {
	mu        sync.Mutex
	broadcast []string
}

func newFakePeers() *fakePeers {
	return &fakePeers{}
}

func (p *fakePeers) BroadcastTransactions(txs []Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		p.broadcast = append(p.broadcast, tx.ID())
	}
}

func (p *fakePeers) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.broadcast...)
}

// fakeDecoder recovers a registered fakeTx from its raw bytes. Tests
// register every transaction they intend to submit so the post-worker
// pipeline's unchecked decode can "reconstruct" it.
type fakeDecoder struct {
	mu   sync.Mutex
	byID map[string]Transaction
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{byID: map[string]Transaction{}}
}

func (d *fakeDecoder) register(tx Transaction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[tx.ID()] = tx
}

func (d *fakeDecoder) Decode(raw []byte) (Transaction, error) {
	return d.DecodeUnchecked(raw)
}

func (d *fakeDecoder) DecodeUnchecked(raw []byte) (Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tx, ok := d.byID[string(raw)]
	if !ok {
		return nil, errUnknownRaw
	}
	return tx, nil
}

// fakeVerifier fails signature verification for registered ids.
type fakeVerifier struct {
	mu      sync.Mutex
	failing map[string]bool
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{failing: map[string]bool{}}
}

func (v *fakeVerifier) Verify(tx Transaction) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failing[tx.ID()] {
		return errInvalidSignature
	}
	return nil
}
