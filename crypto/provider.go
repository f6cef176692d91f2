package crypto

import (
	"bytes"

	bls12381mimc "github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
	"lukechampine.com/blake3"
	"zhtp.dev/ledger/consensus"
)

// DevCryptoProvider is a development/test-only implementation of
// consensus.ProofAdapter. It does not claim to implement real post-quantum
// signatures or zero-knowledge proofs: "signatures" and "proofs" here are
// deterministic hash commitments a test harness can construct and the
// adapter can check, so the rest of the module can be exercised end to end
// without a production prover/verifier wired in. A production deployment
// swaps this adapter for one backed by a real PQ signature scheme and ZK
// proving system behind the same interface.
type DevCryptoProvider struct{}

var _ consensus.ProofAdapter = DevCryptoProvider{}

func (DevCryptoProvider) VerifySignature(publicKey consensus.PublicKey, message []byte, sig consensus.Signature) bool {
	want := devMAC(publicKey, message)
	return bytes.Equal(sig, want[:])
}

// devMAC is the dev signing scheme: blake3(public_key || message). A real
// adapter never does this; it is only used so tests and local tooling can
// produce signatures this provider will accept.
func devMAC(publicKey consensus.PublicKey, message []byte) [32]byte {
	h := blake3.New(32, nil)
	_, _ = h.Write(publicKey)
	_, _ = h.Write(message)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DevSign produces a signature devMAC accepts, for use by tests and the
// local wallet/miner harness.
func DevSign(publicKey consensus.PublicKey, message []byte) consensus.Signature {
	mac := devMAC(publicKey, message)
	return consensus.Signature(mac[:])
}

func (DevCryptoProvider) VerifySpendProof(proof consensus.Proof, nullifier, commitmentUnderSpend, anchorRoot consensus.Hash) bool {
	want := mimcCommit(nullifier[:], commitmentUnderSpend[:], anchorRoot[:])
	return bytes.Equal(proof, want)
}

// DevSpendProof produces a spend proof VerifySpendProof accepts.
func DevSpendProof(nullifier, commitmentUnderSpend, anchorRoot consensus.Hash) consensus.Proof {
	return mimcCommit(nullifier[:], commitmentUnderSpend[:], anchorRoot[:])
}

func (DevCryptoProvider) VerifyBalanceProof(proof consensus.Proof, inputs []consensus.TxInput, outputs []consensus.TxOutput, fee consensus.Amount) bool {
	want := balanceCommitment(inputs, outputs, fee)
	return bytes.Equal(proof, want)
}

// DevBalanceProof produces a balance proof VerifyBalanceProof accepts.
func DevBalanceProof(inputs []consensus.TxInput, outputs []consensus.TxOutput, fee consensus.Amount) consensus.Proof {
	return balanceCommitment(inputs, outputs, fee)
}

func balanceCommitment(inputs []consensus.TxInput, outputs []consensus.TxOutput, fee consensus.Amount) []byte {
	m := bls12381mimc.NewMiMC()
	for _, in := range inputs {
		_, _ = m.Write(in.Nullifier[:])
	}
	for _, out := range outputs {
		_, _ = m.Write(out.Commitment[:])
	}
	var feeBytes [8]byte
	for i := 0; i < 8; i++ {
		feeBytes[i] = byte(fee >> (8 * i))
	}
	_, _ = m.Write(feeBytes[:])
	return m.Sum(nil)
}

func mimcCommit(parts ...[]byte) []byte {
	m := bls12381mimc.NewMiMC()
	for _, p := range parts {
		_, _ = m.Write(p)
	}
	return m.Sum(nil)
}

func (DevCryptoProvider) VerifyIdentityOwnership(did string, publicKey consensus.PublicKey, ownershipProof consensus.Proof) bool {
	want := devMAC(publicKey, []byte(did))
	return bytes.Equal(ownershipProof, want[:])
}

// DevOwnershipProof produces an ownership proof VerifyIdentityOwnership
// accepts.
func DevOwnershipProof(did string, publicKey consensus.PublicKey) consensus.Proof {
	mac := devMAC(publicKey, []byte(did))
	return consensus.Proof(mac[:])
}
