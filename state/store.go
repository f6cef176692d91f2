package state

import (
	"zhtp.dev/ledger/consensus"
)

// Store is the in-memory state machine described in spec §3.4/§4.7: UTXO
// set, nullifier set, identity registry, and a handle to the externally
// owned contract state. The chain engine holds the unique mutating
// reference; everything else (mempool admission, read queries) gets a
// read-only view through the consensus.UTXOView interface this type
// satisfies.
type Store struct {
	utxos       map[consensus.Hash]consensus.TxOutput
	nullifiers  map[consensus.Hash]struct{}
	identities  map[string]consensus.IdentityData
	contractRoot consensus.Hash
}

var _ consensus.UTXOView = (*Store)(nil)

// New returns an empty state store.
func New() *Store {
	return &Store{
		utxos:      make(map[consensus.Hash]consensus.TxOutput),
		nullifiers: make(map[consensus.Hash]struct{}),
		identities: make(map[string]consensus.IdentityData),
	}
}

func (s *Store) UTXOGet(key consensus.Hash) (consensus.TxOutput, bool) {
	out, ok := s.utxos[key]
	return out, ok
}

func (s *Store) UTXOInsert(key consensus.Hash, out consensus.TxOutput) {
	s.utxos[key] = out
}

func (s *Store) UTXORemove(key consensus.Hash) {
	delete(s.utxos, key)
}

func (s *Store) NullifierSeen(h consensus.Hash) bool {
	_, ok := s.nullifiers[h]
	return ok
}

func (s *Store) NullifierInsert(h consensus.Hash) {
	s.nullifiers[h] = struct{}{}
}

func (s *Store) IdentityGet(did string) (consensus.IdentityData, bool) {
	d, ok := s.identities[did]
	return d, ok
}

func (s *Store) IdentityUpsert(did string, d consensus.IdentityData) {
	s.identities[did] = d
}

func (s *Store) IdentityRemove(did string) {
	delete(s.identities, did)
}

// ContractRoot returns the last root hash reported by the contract engine
// for the transactions applied so far; it is part of the state fingerprint
// (spec §3.4) even though the state itself lives with the external engine.
func (s *Store) ContractRoot() consensus.Hash {
	return s.contractRoot
}

func (s *Store) SetContractRoot(root consensus.Hash) {
	s.contractRoot = root
}

// UTXOCount, NullifierCount and IdentityCount support diagnostics and tests
// without exposing the underlying maps.
func (s *Store) UTXOCount() int      { return len(s.utxos) }
func (s *Store) NullifierCount() int { return len(s.nullifiers) }
func (s *Store) IdentityCount() int  { return len(s.identities) }

// Fingerprint hashes the entire state (spec §3.4's state fingerprint),
// independent of map iteration order.
func (s *Store) Fingerprint() consensus.Hash {
	e := newFingerprintEncoder()
	e.hash(consensus.UTXOSetFingerprint(s.utxos))
	e.hash(consensus.NullifierSetFingerprint(s.nullifiers))
	e.hash(consensus.IdentityRegistryFingerprint(s.identities))
	e.hash(s.contractRoot)
	return consensus.Hash(blake3Sum(e.bytes()))
}

// Snapshot is an opaque point-in-time copy of the store, used to implement
// atomic block application: apply to a shadow copy, commit on success,
// discard (restore the original) on failure (spec P7).
type Snapshot struct {
	utxos        map[consensus.Hash]consensus.TxOutput
	nullifiers   map[consensus.Hash]struct{}
	identities   map[string]consensus.IdentityData
	contractRoot consensus.Hash
}

// Snapshot captures the current state. The returned value is independent of
// further mutation of s.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		utxos:        cloneOutputMap(s.utxos),
		nullifiers:   cloneNullifierSet(s.nullifiers),
		identities:   cloneIdentityMap(s.identities),
		contractRoot: s.contractRoot,
	}
}

// Restore replaces the store's contents with snap, undoing any mutation
// made since it was captured.
func (s *Store) Restore(snap Snapshot) {
	s.utxos = cloneOutputMap(snap.utxos)
	s.nullifiers = cloneNullifierSet(snap.nullifiers)
	s.identities = cloneIdentityMap(snap.identities)
	s.contractRoot = snap.contractRoot
}

func cloneOutputMap(m map[consensus.Hash]consensus.TxOutput) map[consensus.Hash]consensus.TxOutput {
	out := make(map[consensus.Hash]consensus.TxOutput, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneNullifierSet(m map[consensus.Hash]struct{}) map[consensus.Hash]struct{} {
	out := make(map[consensus.Hash]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func cloneIdentityMap(m map[string]consensus.IdentityData) map[string]consensus.IdentityData {
	out := make(map[string]consensus.IdentityData, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
