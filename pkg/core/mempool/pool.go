package mempool

import "github.com/relaychain/txadmission/pkg/core/admission"

// Pool is the storage strategy backing a Mempool. HashMap is the only
// implementation shipped here; production nodes with heavier throughput
// needs can swap in a different Pool without touching Mempool itself.
type Pool interface {
	Contains(id string) bool
	Put(entry entry) bool
	Delete(id string)
	Len() int
	Range(func(entry entry) error) error
}

// entry is one transaction held in the pool, along with the sender it was
// admitted for (senders are tracked to enforce PerSenderCapacity).
type entry struct {
	tx     admission.Transaction
	sender string
}

// HashMap is a bare map-backed Pool. It is not safe for concurrent use on
// its own; Mempool is the one that serialises access to it.
type HashMap struct {
	Capacity int
	entries  map[string]entry
}

func newHashMap(capacity int) *HashMap {
	return &HashMap{Capacity: capacity, entries: make(map[string]entry, capacity)}
}

func (h *HashMap) Contains(id string) bool {
	_, ok := h.entries[id]
	return ok
}

func (h *HashMap) Put(e entry) bool {
	if h.Capacity > 0 && len(h.entries) >= h.Capacity {
		return false
	}
	h.entries[e.tx.ID()] = e
	return true
}

func (h *HashMap) Delete(id string) {
	delete(h.entries, id)
}

func (h *HashMap) Len() int {
	return len(h.entries)
}

func (h *HashMap) Range(f func(entry entry) error) error {
	for _, e := range h.entries {
		if err := f(e); err != nil {
			return err
		}
	}
	return nil
}
