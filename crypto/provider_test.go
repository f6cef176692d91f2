package crypto

import (
	"testing"

	"zhtp.dev/ledger/consensus"
)

func TestDevCryptoProvider_SignatureRoundTrip(t *testing.T) {
	p := DevCryptoProvider{}
	pubKey := consensus.PublicKey("alice-key")
	msg := []byte("message bytes")

	sig := DevSign(pubKey, msg)
	if !p.VerifySignature(pubKey, msg, sig) {
		t.Fatalf("expected a freshly produced signature to verify")
	}
	if p.VerifySignature(pubKey, []byte("different message"), sig) {
		t.Fatalf("signature must not verify against a different message")
	}
	if p.VerifySignature(consensus.PublicKey("bob-key"), msg, sig) {
		t.Fatalf("signature must not verify under a different public key")
	}
}

func TestDevCryptoProvider_SpendProofRoundTrip(t *testing.T) {
	p := DevCryptoProvider{}
	nullifier := consensus.Hash{1}
	commitment := consensus.Hash{2}
	anchor := consensus.Hash{3}

	proof := DevSpendProof(nullifier, commitment, anchor)
	if !p.VerifySpendProof(proof, nullifier, commitment, anchor) {
		t.Fatalf("expected a freshly produced spend proof to verify")
	}
	if p.VerifySpendProof(proof, consensus.Hash{9}, commitment, anchor) {
		t.Fatalf("spend proof must not verify against a different nullifier")
	}
}

func TestDevCryptoProvider_BalanceProofRoundTrip(t *testing.T) {
	p := DevCryptoProvider{}
	inputs := []consensus.TxInput{{Nullifier: consensus.Hash{1}}}
	outputs := []consensus.TxOutput{{Commitment: consensus.Hash{2}}}

	proof := DevBalanceProof(inputs, outputs, 5)
	if !p.VerifyBalanceProof(proof, inputs, outputs, 5) {
		t.Fatalf("expected a freshly produced balance proof to verify")
	}
	if p.VerifyBalanceProof(proof, inputs, outputs, 6) {
		t.Fatalf("balance proof must not verify against a different fee")
	}
}

func TestDevCryptoProvider_IdentityOwnershipRoundTrip(t *testing.T) {
	p := DevCryptoProvider{}
	pubKey := consensus.PublicKey("alice-key")
	did := "did:zhtp:alice"

	proof := DevOwnershipProof(did, pubKey)
	if !p.VerifyIdentityOwnership(did, pubKey, proof) {
		t.Fatalf("expected a freshly produced ownership proof to verify")
	}
	if p.VerifyIdentityOwnership("did:zhtp:bob", pubKey, proof) {
		t.Fatalf("ownership proof must not verify against a different did")
	}
}

func TestDeriveNullifier_DeterministicAndSensitive(t *testing.T) {
	note := consensus.Hash{4, 5, 6}
	secret := []byte("note-secret")

	a := DeriveNullifier(secret, note)
	b := DeriveNullifier(secret, note)
	if a != b {
		t.Fatalf("DeriveNullifier must be deterministic")
	}

	c := DeriveNullifier([]byte("other-secret"), note)
	if a == c {
		t.Fatalf("DeriveNullifier must depend on the note secret")
	}
}
