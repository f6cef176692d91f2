// Package mempool holds transactions that have passed validation but are
// not yet part of a block (spec C9, §4.9). It is internally synchronized so
// that multiple submitters may call Add concurrently while the chain engine
// drains it for block assembly.
package mempool

import (
	"sort"
	"sync"

	"zhtp.dev/ledger/consensus"
)

// ErrTxExists is returned by Add when a transaction with the same hash is
// already pending.
var ErrTxExists = consensus.NewError(consensus.ErrConflict, "transaction already pending")

// entry is one admitted, not-yet-mined transaction plus the bookkeeping the
// priority ordering and dedup checks need.
type entry struct {
	tx          consensus.Transaction
	hash        consensus.Hash
	size        int
	mandatory   bool
	nullifiers  []consensus.Hash
	outputRefs  []consensus.OutputRef
}

// priorityNumerator returns the descending sort key: fee/size ratio, expressed as a
// fixed-point numerator so two entries can be compared without floats.
func (e entry) priorityNumerator() uint64 {
	if e.size == 0 {
		return 0
	}
	return uint64(e.tx.Fee) * priorityScale / uint64(e.size)
}

// priorityScale keeps the fee/size ratio comparison exact for realistic fee
// and size magnitudes without needing floating point.
const priorityScale = 1_000_000

// Pool is the mempool. The zero value is not usable; construct with New.
type Pool struct {
	mu       sync.RWMutex
	capacity int
	byHash   map[consensus.Hash]entry

	// nullifierOwners and outputOwners index which pending tx currently
	// claims a given nullifier or outpoint, enforcing spec §4.9's dedup
	// rule: no two pending transactions may share either.
	nullifierOwners map[consensus.Hash]consensus.Hash
	outputOwners    map[consensus.OutputRef]consensus.Hash
}

// New returns an empty pool bounded at capacity entries (spec MEMPOOL_CAPACITY).
func New(capacity int) *Pool {
	return &Pool{
		capacity:        capacity,
		byHash:          make(map[consensus.Hash]entry),
		nullifierOwners: make(map[consensus.Hash]consensus.Hash),
		outputOwners:    make(map[consensus.OutputRef]consensus.Hash),
	}
}

// Add validates tx against view/adapter/sysKeys (spec §4.8.1) and, on
// success, admits it into the pool. mandatory marks a transaction (e.g. a
// UbiDistribution) that assembly must include ahead of priority ordering.
func (p *Pool) Add(tx consensus.Transaction, view consensus.UTXOView, adapter consensus.ProofAdapter, sysKeys consensus.SystemKeyProvider, mandatory bool) error {
	if err := consensus.ValidateTransaction(&tx, view, adapter, sysKeys); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	h := consensus.TxHash(&tx)
	if _, exists := p.byHash[h]; exists {
		return ErrTxExists
	}

	nullifiers := make([]consensus.Hash, 0, len(tx.Inputs))
	outputRefs := make([]consensus.OutputRef, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if owner, ok := p.nullifierOwners[in.Nullifier]; ok && owner != h {
			return consensus.NewError(consensus.ErrConflict, "nullifier already claimed by a pending transaction")
		}
		if owner, ok := p.outputOwners[in.PreviousOutput]; ok && owner != h {
			return consensus.NewError(consensus.ErrConflict, "output already claimed by a pending transaction")
		}
		nullifiers = append(nullifiers, in.Nullifier)
		outputRefs = append(outputRefs, in.PreviousOutput)
	}

	e := entry{
		tx:         tx,
		hash:       h,
		size:       consensus.TransactionEncodedSize(&tx),
		mandatory:  mandatory,
		nullifiers: nullifiers,
		outputRefs: outputRefs,
	}

	p.byHash[h] = e
	for _, n := range nullifiers {
		p.nullifierOwners[n] = h
	}
	for _, o := range outputRefs {
		p.outputOwners[o] = h
	}

	p.evictIfOverCapacityLocked()
	return nil
}

// evictIfOverCapacityLocked drops the lowest-priority, non-mandatory entries
// until the pool is back at capacity (spec §4.9 eviction). Must be called
// with mu held.
func (p *Pool) evictIfOverCapacityLocked() {
	if p.capacity <= 0 || len(p.byHash) <= p.capacity {
		return
	}
	ordered := p.orderedLocked()
	// ordered is highest-priority first; evict from the tail, skipping
	// mandatory entries, until we're back at capacity or nothing evictable
	// remains.
	for i := len(ordered) - 1; i >= 0 && len(p.byHash) > p.capacity; i-- {
		if ordered[i].mandatory {
			continue
		}
		p.removeLocked(ordered[i].hash)
	}
}

// Remove drops a transaction from the pool unconditionally (used when a
// submitter withdraws it, independent of block application).
func (p *Pool) Remove(hash consensus.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(hash)
}

func (p *Pool) removeLocked(hash consensus.Hash) {
	e, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	for _, n := range e.nullifiers {
		if p.nullifierOwners[n] == hash {
			delete(p.nullifierOwners, n)
		}
	}
	for _, o := range e.outputRefs {
		if p.outputOwners[o] == hash {
			delete(p.outputOwners, o)
		}
	}
}

// Count returns the number of pending transactions.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byHash)
}

// Get returns the pending transaction with the given hash, if present.
func (p *Pool) Get(hash consensus.Hash) (consensus.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.byHash[hash]
	return e.tx, ok
}

// orderedLocked returns pending entries ordered per spec §4.9: mandatory
// entries first (in hash order for determinism), then descending
// fee/serialized_size, ties broken by ascending tx hash. Must be called
// with mu held (for reading).
func (p *Pool) orderedLocked() []entry {
	out := make([]entry, 0, len(p.byHash))
	for _, e := range p.byHash {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].mandatory != out[j].mandatory {
			return out[i].mandatory
		}
		pi, pj := out[i].priorityNumerator(), out[j].priorityNumerator()
		if pi != pj {
			return pi > pj
		}
		return lessHash(out[i].hash, out[j].hash)
	})
	return out
}

func lessHash(a, b consensus.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// SelectForBlock returns pending transactions in assembly priority order,
// greedily filling up to maxCount transactions and maxBytes of serialized
// body size (spec §4.10.1 step 2). Mandatory entries are always included
// first, even if later entries would have fit in less space.
func (p *Pool) SelectForBlock(maxCount int, maxBytes int) []consensus.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ordered := p.orderedLocked()
	out := make([]consensus.Transaction, 0, maxCount)
	size := 0
	for _, e := range ordered {
		if len(out) >= maxCount {
			break
		}
		if !e.mandatory && size+e.size > maxBytes {
			continue
		}
		out = append(out, e.tx)
		size += e.size
	}
	return out
}

// Prune drops every pending transaction whose nullifier is now in view's
// nullifier set or whose spent output no longer exists there, after a block
// has been applied (spec §4.9 "Consistency on tip advance").
func (p *Pool) Prune(view consensus.UTXOView) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for hash, e := range p.byHash {
		stale := false
		for _, in := range e.tx.Inputs {
			if view.NullifierSeen(in.Nullifier) {
				stale = true
				break
			}
			if _, ok := view.UTXOGet(consensus.OutputKey(in.PreviousOutput.PreviousTxHash, in.PreviousOutput.OutputIndex)); !ok {
				stale = true
				break
			}
		}
		if stale {
			p.removeLocked(hash)
		}
	}
}
