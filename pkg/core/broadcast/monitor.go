// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

// Package broadcast is a reference implementation of the admission
// processor's PeerMonitor collaborator. It follows the same
// publish-to-subscribed-listeners idiom as
// pkg/util/nativeutils/eventbus: broadcasting is fire-and-forget, and a
// slow or absent subscriber never blocks the publisher.
package broadcast

import (
	"github.com/relaychain/txadmission/pkg/core/admission"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "broadcast")

// Listener receives a gossip-ready batch of transactions. Implementations
// are expected to return quickly; Monitor does not wait for them.
type Listener func(txs []admission.Transaction)

// Monitor fans a broadcast out to every subscribed listener without
// waiting on any of them.
type Monitor struct {
	listeners []Listener
}

// NewMonitor creates a Monitor with no listeners subscribed.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Subscribe registers a listener. Not safe to call concurrently with
// BroadcastTransactions.
func (m *Monitor) Subscribe(l Listener) {
	m.listeners = append(m.listeners, l)
}

// BroadcastTransactions implements the PeerMonitor contract: it hands txs
// to every subscribed listener on its own goroutine and returns
// immediately. Failures in a listener are not observable here, matching
// the processor's "broadcast failures are silent" rule.
func (m *Monitor) BroadcastTransactions(txs []admission.Transaction) {
	if len(txs) == 0 {
		return
	}

	log.Debugf("broadcasting %d transaction(s)", len(txs))

	for _, l := range m.listeners {
		listener := l
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithField("panic", r).Error("broadcast listener panicked")
				}
			}()
			listener(txs)
		}()
	}
}
