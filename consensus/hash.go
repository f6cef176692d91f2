package consensus

import "lukechampine.com/blake3"

// domainHash is the canonical 256-bit hash function (spec §4.1). BLAKE3 is
// named explicitly in the spec; domain separation is carried entirely by the
// tag bytes each caller prepends to its preimage, not by this function.
func domainHash(b []byte) Hash {
	return Hash(blake3.Sum256(b))
}

// TxHash is the transaction hash: canonical encoding of every hashable field
// (signature excluded), hashed with BLAKE3 under the tx domain tag baked
// into TxHashPreimageBytes.
func TxHash(tx *Transaction) Hash {
	return domainHash(TxHashPreimageBytes(tx))
}

// BlockHash is the hash of the canonical header encoding only (spec §3.3).
func BlockHash(h BlockHeader) Hash {
	return domainHash(BlockHeaderBytes(h))
}

const domainContractState = "zhtp.contractstate.v1"

// ContractStateHash roots an opaque contract-engine state blob into a Hash
// so it can sit alongside the rest of the state fingerprint (spec §4.11):
// the core treats contract state as an opaque byte string owned by the
// external engine and only ever stores/compares its root.
func ContractStateHash(newState []byte) Hash {
	e := newEncoder(len(domainContractState) + len(newState))
	e.fixed([]byte(domainContractState))
	e.byteSeq(newState)
	return domainHash(e.bytes())
}

// OutputKey is the UTXO set key for the output at index in the transaction
// with hash txHash (spec §3.4): hash(tx_hash ‖ output_index).
func OutputKey(txHash Hash, outputIndex uint32) Hash {
	e := newEncoder(32 + 4 + len(domainOutputKey))
	e.fixed([]byte(domainOutputKey))
	e.hash(txHash)
	e.u32(outputIndex)
	return domainHash(e.bytes())
}
