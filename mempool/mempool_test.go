package mempool

import (
	"testing"

	"zhtp.dev/ledger/consensus"
)

type alwaysValidAdapter struct{}

func (alwaysValidAdapter) VerifySignature(consensus.PublicKey, []byte, consensus.Signature) bool {
	return true
}
func (alwaysValidAdapter) VerifySpendProof(consensus.Proof, consensus.Hash, consensus.Hash, consensus.Hash) bool {
	return true
}
func (alwaysValidAdapter) VerifyBalanceProof(consensus.Proof, []consensus.TxInput, []consensus.TxOutput, consensus.Amount) bool {
	return true
}
func (alwaysValidAdapter) VerifyIdentityOwnership(string, consensus.PublicKey, consensus.Proof) bool {
	return true
}

type noSystemKeys struct{}

func (noSystemKeys) IsSystemKey(consensus.PublicKey) bool { return false }

type fakeSystemKeys struct{}

func (fakeSystemKeys) IsSystemKey(pk consensus.PublicKey) bool { return string(pk) == "system" }

type memView struct {
	utxo       map[consensus.Hash]consensus.TxOutput
	nullifiers map[consensus.Hash]struct{}
	identities map[string]consensus.IdentityData
}

func newMemView() *memView {
	return &memView{
		utxo:       make(map[consensus.Hash]consensus.TxOutput),
		nullifiers: make(map[consensus.Hash]struct{}),
		identities: make(map[string]consensus.IdentityData),
	}
}

func (v *memView) UTXOGet(key consensus.Hash) (consensus.TxOutput, bool) {
	out, ok := v.utxo[key]
	return out, ok
}
func (v *memView) NullifierSeen(h consensus.Hash) bool { _, ok := v.nullifiers[h]; return ok }
func (v *memView) IdentityGet(did string) (consensus.IdentityData, bool) {
	d, ok := v.identities[did]
	return d, ok
}

func transferSpending(prevTxHash consensus.Hash, outIndex uint32, nullifier consensus.Hash, fee consensus.Amount) consensus.Transaction {
	return consensus.Transaction{
		Version: 1,
		Type:    consensus.TxTransfer,
		Inputs: []consensus.TxInput{
			{PreviousOutput: consensus.OutputRef{PreviousTxHash: prevTxHash, OutputIndex: outIndex}, Nullifier: nullifier, ZKProof: []byte("p")},
		},
		Outputs:      []consensus.TxOutput{{Commitment: consensus.Hash{9, 9}}},
		Fee:          fee,
		Signer:       consensus.PublicKey("payer"),
		BalanceProof: []byte("bp"),
	}
}

func TestPool_AddAndGet(t *testing.T) {
	view := newMemView()
	prevTxHash := consensus.Hash{1}
	view.utxo[consensus.OutputKey(prevTxHash, 0)] = consensus.TxOutput{Commitment: consensus.Hash{2}}

	p := New(10)
	tx := transferSpending(prevTxHash, 0, consensus.Hash{5}, 1)
	if err := p.Add(tx, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("expected admission to succeed: %v", err)
	}
	if p.Count() != 1 {
		t.Fatalf("expected 1 pending transaction, got %d", p.Count())
	}

	h := consensus.TxHash(&tx)
	got, ok := p.Get(h)
	if !ok {
		t.Fatalf("expected transaction to be retrievable by hash")
	}
	if consensus.TxHash(&got) != h {
		t.Fatalf("retrieved transaction hash mismatch")
	}
}

func TestPool_RejectsInvalidTransaction(t *testing.T) {
	view := newMemView()
	p := New(10)
	// Spends an output that does not exist.
	tx := transferSpending(consensus.Hash{1}, 0, consensus.Hash{5}, 1)
	err := p.Add(tx, view, alwaysValidAdapter{}, noSystemKeys{}, false)
	if consensus.CodeOf(err) != consensus.ErrUnknownUTXO {
		t.Fatalf("expected UnknownUtxo, got %v", err)
	}
	if p.Count() != 0 {
		t.Fatalf("rejected transaction must not be admitted")
	}
}

func TestPool_RejectsDuplicateHash(t *testing.T) {
	view := newMemView()
	prevTxHash := consensus.Hash{1}
	view.utxo[consensus.OutputKey(prevTxHash, 0)] = consensus.TxOutput{Commitment: consensus.Hash{2}}

	p := New(10)
	tx := transferSpending(prevTxHash, 0, consensus.Hash{5}, 1)
	if err := p.Add(tx, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("first admission should succeed: %v", err)
	}
	if err := p.Add(tx, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != ErrTxExists {
		t.Fatalf("expected ErrTxExists on duplicate, got %v", err)
	}
}

func TestPool_RejectsSharedNullifier(t *testing.T) {
	view := newMemView()
	view.utxo[consensus.OutputKey(consensus.Hash{1}, 0)] = consensus.TxOutput{Commitment: consensus.Hash{2}}
	view.utxo[consensus.OutputKey(consensus.Hash{2}, 0)] = consensus.TxOutput{Commitment: consensus.Hash{3}}

	p := New(10)
	first := transferSpending(consensus.Hash{1}, 0, consensus.Hash{9}, 1)
	second := transferSpending(consensus.Hash{2}, 0, consensus.Hash{9}, 2)

	if err := p.Add(first, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("first admission should succeed: %v", err)
	}
	err := p.Add(second, view, alwaysValidAdapter{}, noSystemKeys{}, false)
	if consensus.CodeOf(err) != consensus.ErrConflict {
		t.Fatalf("expected Conflict for shared nullifier, got %v", err)
	}
}

func TestPool_SelectForBlock_OrdersByFeeRatioDescending(t *testing.T) {
	view := newMemView()
	view.utxo[consensus.OutputKey(consensus.Hash{1}, 0)] = consensus.TxOutput{Commitment: consensus.Hash{2}}
	view.utxo[consensus.OutputKey(consensus.Hash{2}, 0)] = consensus.TxOutput{Commitment: consensus.Hash{3}}

	p := New(10)
	low := transferSpending(consensus.Hash{1}, 0, consensus.Hash{9}, 1)
	high := transferSpending(consensus.Hash{2}, 0, consensus.Hash{10}, 100)

	if err := p.Add(low, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("low-fee admission should succeed: %v", err)
	}
	if err := p.Add(high, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("high-fee admission should succeed: %v", err)
	}

	selected := p.SelectForBlock(10, 1_000_000)
	if len(selected) != 2 {
		t.Fatalf("expected both transactions selected, got %d", len(selected))
	}
	if consensus.TxHash(&selected[0]) != consensus.TxHash(&high) {
		t.Fatalf("expected the higher fee/size transaction first")
	}
}

func TestPool_SelectForBlock_MandatoryFirst(t *testing.T) {
	view := newMemView()
	view.utxo[consensus.OutputKey(consensus.Hash{1}, 0)] = consensus.TxOutput{Commitment: consensus.Hash{2}}

	p := New(10)
	ubi := consensus.Transaction{
		Version: 1, Type: consensus.TxUbiDistribution,
		Outputs: []consensus.TxOutput{{Commitment: consensus.Hash{1}}},
		Signer:  consensus.PublicKey("system"),
	}
	highFee := transferSpending(consensus.Hash{1}, 0, consensus.Hash{9}, 1000)

	if err := p.Add(highFee, view, alwaysValidAdapter{}, fakeSystemKeys{}, false); err != nil {
		t.Fatalf("admission should succeed: %v", err)
	}
	if err := p.Add(ubi, view, alwaysValidAdapter{}, fakeSystemKeys{}, true); err != nil {
		t.Fatalf("mandatory admission should succeed: %v", err)
	}

	selected := p.SelectForBlock(10, 1_000_000)
	if len(selected) != 2 {
		t.Fatalf("expected both transactions selected, got %d", len(selected))
	}
	if consensus.TxHash(&selected[0]) != consensus.TxHash(&ubi) {
		t.Fatalf("expected the mandatory transaction first regardless of fee ratio")
	}
}

func TestPool_Eviction_KeepsMandatoryAndHighestPriority(t *testing.T) {
	view := newMemView()
	p := New(1)

	low := transferSpending(consensus.Hash{1}, 0, consensus.Hash{9}, 1)
	view.utxo[consensus.OutputKey(consensus.Hash{1}, 0)] = consensus.TxOutput{Commitment: consensus.Hash{2}}
	if err := p.Add(low, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("admission should succeed: %v", err)
	}

	high := transferSpending(consensus.Hash{2}, 0, consensus.Hash{10}, 1000)
	view.utxo[consensus.OutputKey(consensus.Hash{2}, 0)] = consensus.TxOutput{Commitment: consensus.Hash{3}}
	if err := p.Add(high, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("admission should succeed: %v", err)
	}

	if p.Count() != 1 {
		t.Fatalf("expected eviction to enforce capacity, got %d entries", p.Count())
	}
	if _, ok := p.Get(consensus.TxHash(&high)); !ok {
		t.Fatalf("expected the higher-priority transaction to survive eviction")
	}
}

func TestPool_Prune_DropsSpentAndNullifiedEntries(t *testing.T) {
	view := newMemView()
	key := consensus.OutputKey(consensus.Hash{1}, 0)
	view.utxo[key] = consensus.TxOutput{Commitment: consensus.Hash{2}}

	p := New(10)
	tx := transferSpending(consensus.Hash{1}, 0, consensus.Hash{9}, 1)
	if err := p.Add(tx, view, alwaysValidAdapter{}, noSystemKeys{}, false); err != nil {
		t.Fatalf("admission should succeed: %v", err)
	}

	// Simulate the block that spent this output having been applied.
	delete(view.utxo, key)
	view.nullifiers[consensus.Hash{9}] = struct{}{}

	p.Prune(view)
	if p.Count() != 0 {
		t.Fatalf("expected stale transaction to be pruned, got %d remaining", p.Count())
	}
}
