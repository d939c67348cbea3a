// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

// Package handlers is a reference implementation of the admission
// processor's HandlerRegistry collaborator: per-(type, type group)
// admission predicates.
package handlers

import (
	"context"
	"fmt"

	"github.com/relaychain/txadmission/pkg/core/admission"
)

type key struct {
	txType    uint16
	typeGroup uint32
}

// Registry resolves a Handler for a (type, type group) pair. It is built
// once at startup and is safe for concurrent reads thereafter; Register is
// not safe to call concurrently with Get.
type Registry struct {
	handlers map[key]admission.Handler
	fallback admission.Handler
}

// NewRegistry creates an empty registry. WithFallback installs a handler
// used for any (type, type group) with no explicit registration; without
// one, Get fails for unknown pairs.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[key]admission.Handler)}
}

// Register installs handler for the given (type, type group) pair.
func (r *Registry) Register(txType uint16, typeGroup uint32, handler admission.Handler) {
	r.handlers[key{txType, typeGroup}] = handler
}

// WithFallback installs the handler returned for any unregistered pair.
func (r *Registry) WithFallback(handler admission.Handler) *Registry {
	r.fallback = handler
	return r
}

// Get implements the HandlerRegistry contract.
func (r *Registry) Get(txType uint16, typeGroup uint32) (admission.Handler, error) {
	if h, ok := r.handlers[key{txType, typeGroup}]; ok {
		return h, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("handlers: no handler registered for type %d group %d", txType, typeGroup)
}

// AlwaysAdmit is a trivial Handler that admits every transaction. It is
// useful as a fallback or in tests; real handlers inspect mempool state to
// decide, e.g., whether a sender already has a pending transaction of a
// type that must be unique per block.
type AlwaysAdmit struct{}

func (AlwaysAdmit) CanEnterPool(context.Context, admission.Transaction, admission.MempoolStore) (bool, error) {
	return true, nil
}

// NeverAdmit rejects every transaction silently, matching the handler's
// right to classify (or not classify) its own rejections.
type NeverAdmit struct{}

func (NeverAdmit) CanEnterPool(context.Context, admission.Transaction, admission.MempoolStore) (bool, error) {
	return false, nil
}
