// Package wallet is a reference implementation of the admission
// processor's WalletManager collaborator: nonce ordering and balance
// sufficiency against live account state.
package wallet

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/relaychain/txadmission/pkg/core/admission"
)

// AccountTransaction is the subset of admission.Transaction the wallet
// manager needs to know about to apply it: the fields that actually move
// balance and nonce.
type AccountTransaction interface {
	admission.Transaction
	Nonce() uint64
	Amount() uint64
	Fee() uint64
}

// Manager tracks balance and nonce per public key. It is consulted only
// from the admission processor's completion path, so its internal mutex
// exists for safety against callers outside that discipline (tests, CLI
// inspection) rather than against the processor itself.
type Manager struct {
	mu       sync.RWMutex
	accounts map[string]admission.Wallet
}

// New creates an empty Manager. Use Credit to seed starting balances.
func New() *Manager {
	return &Manager{accounts: make(map[string]admission.Wallet)}
}

// Credit sets up or tops up an account, for use by genesis/test setup.
func (m *Manager) Credit(pk string, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.accounts[pk]
	w.PublicKey = pk
	w.Balance += amount
	m.accounts[pk] = w
}

// FindByPublicKey returns a snapshot of the account's current state. An
// unknown key is a zero-balance, zero-nonce account rather than an error:
// the submit path takes this snapshot defensively and the real rejection
// (if any) happens in ThrowIfCannotBeApplied against live state.
func (m *Manager) FindByPublicKey(_ context.Context, pk string) (admission.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if w, ok := m.accounts[pk]; ok {
		return w, nil
	}
	return admission.Wallet{PublicKey: pk}, nil
}

// ThrowIfCannotBeApplied enforces nonce ordering and balance sufficiency,
// then applies the transaction: this is the only place account state
// mutates.
func (m *Manager) ThrowIfCannotBeApplied(_ context.Context, tx admission.Transaction) error {
	acctTx, ok := tx.(AccountTransaction)
	if !ok {
		return errors.Errorf("wallet: transaction %s does not carry account fields", tx.ID())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pk := tx.SenderPublicKey()
	w := m.accounts[pk]

	if acctTx.Nonce() != w.Nonce {
		return errors.Errorf("wallet: expected nonce %d for %s, got %d", w.Nonce, pk, acctTx.Nonce())
	}

	total := acctTx.Amount() + acctTx.Fee()
	if total > w.Balance {
		return errors.Errorf("wallet: insufficient balance for %s: have %d, need %d", pk, w.Balance, total)
	}

	w.Balance -= total
	w.Nonce++
	w.PublicKey = pk
	m.accounts[pk] = w

	return nil
}
