package crypto

import (
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
	"zhtp.dev/ledger/consensus"
)

// DeriveNullifier is the reference implementation of the off-chain
// nullifier-derivation capability (spec §4.5): given a note secret and the
// note hash it protects, it derives the nullifier the spender later submits
// on-chain. The core never calls this; it is exercised only by tests.
func DeriveNullifier(noteSecret []byte, note consensus.Hash) consensus.Hash {
	kdf := hkdf.New(sha3.New256, noteSecret, note[:], []byte("zhtp.nullifier.v1"))
	seed := make([]byte, 32)
	if _, err := io.ReadFull(kdf, seed); err != nil {
		panic("crypto: hkdf stream exhausted deriving nullifier, which should be unreachable for a 32-byte read")
	}
	return consensus.Hash(blake3.Sum256(seed))
}
