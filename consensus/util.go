package consensus

import (
	"bytes"
	"sort"
)

// ZeroHash is the reserved zero value, used for genesis' predecessor and for
// "absent" references.
var ZeroHash = Hash{}

// UTXOSetFingerprint hashes a UTXO set into a single digest, independent of
// map iteration order, so two independently-built state stores can be
// compared for equality (used via state.Store.Fingerprint by tests asserting
// spec P7 atomicity). Grounded on the teacher's sort-then-hash
// chainstate hashing approach.
func UTXOSetFingerprint(utxos map[Hash]TxOutput) Hash {
	keys := make([]Hash, 0, len(utxos))
	for k := range utxos {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	e := newEncoder(32 + len(keys)*96)
	e.fixed([]byte("zhtp.utxoset.v1"))
	e.u32(uint32(len(keys)))
	for _, k := range keys {
		out := utxos[k]
		e.hash(k)
		encodeTxOutput(e, out)
	}
	return domainHash(e.bytes())
}

// NullifierSetFingerprint hashes a nullifier set into a single digest,
// independent of map iteration order.
func NullifierSetFingerprint(nullifiers map[Hash]struct{}) Hash {
	keys := make([]Hash, 0, len(nullifiers))
	for k := range nullifiers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	e := newEncoder(32 + len(keys)*32)
	e.fixed([]byte("zhtp.nullifierset.v1"))
	e.u32(uint32(len(keys)))
	for _, k := range keys {
		e.hash(k)
	}
	return domainHash(e.bytes())
}

// IdentityRegistryFingerprint hashes the identity registry into a single
// digest, independent of map iteration order.
func IdentityRegistryFingerprint(identities map[string]IdentityData) Hash {
	dids := make([]string, 0, len(identities))
	for did := range identities {
		dids = append(dids, did)
	}
	sort.Strings(dids)

	e := newEncoder(32 + len(dids)*128)
	e.fixed([]byte("zhtp.identityregistry.v1"))
	e.u32(uint32(len(dids)))
	for _, did := range dids {
		d := identities[did]
		e.str(did)
		encodeIdentityData(e, &d)
	}
	return domainHash(e.bytes())
}
