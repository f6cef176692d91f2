package consensus

import "testing"

func sampleTransfer() Transaction {
	return Transaction{
		Version: 1,
		Type:    TxTransfer,
		Inputs: []TxInput{
			{PreviousOutput: OutputRef{PreviousTxHash: Hash{1, 2, 3}, OutputIndex: 0}, Nullifier: Hash{9}, ZKProof: []byte("proof")},
		},
		Outputs: []TxOutput{
			{Commitment: Hash{4, 5, 6}, Note: Hash{7, 8}, Recipient: PublicKey("recipient-key")},
		},
		Fee:          5,
		Memo:         []byte("hello"),
		Signer:       PublicKey("signer-key"),
		BalanceProof: []byte("balance-proof"),
	}
}

// TestTxHash_Deterministic covers P6/L1: re-encoding (and hashing) a logically
// identical transaction must reproduce the same hash.
func TestTxHash_Deterministic(t *testing.T) {
	a := sampleTransfer()
	b := sampleTransfer()
	if TxHash(&a) != TxHash(&b) {
		t.Fatalf("TxHash not deterministic across identical logical values")
	}
}

// TestTxHash_ExcludesSignature verifies the signature field is outside the
// hash domain (spec §3.2), so signing after hashing does not change the hash.
func TestTxHash_ExcludesSignature(t *testing.T) {
	a := sampleTransfer()
	b := sampleTransfer()
	b.Signature = Signature("a-signature-that-differs")
	if TxHash(&a) != TxHash(&b) {
		t.Fatalf("TxHash must be independent of the signature field")
	}
}

func TestTxHash_SensitiveToFields(t *testing.T) {
	base := sampleTransfer()
	baseHash := TxHash(&base)

	mutations := []func(*Transaction){
		func(tx *Transaction) { tx.Fee++ },
		func(tx *Transaction) { tx.Memo = append(append([]byte(nil), tx.Memo...), 'x') },
		func(tx *Transaction) { tx.Inputs[0].Nullifier[0] ^= 0xFF },
		func(tx *Transaction) { tx.Outputs[0].Commitment[0] ^= 0xFF },
	}
	for i, mutate := range mutations {
		tx := sampleTransfer()
		mutate(&tx)
		if TxHash(&tx) == baseHash {
			t.Fatalf("mutation %d did not change tx hash", i)
		}
	}
}

func TestBlockHash_DependsOnlyOnHeader(t *testing.T) {
	h := BlockHeader{Version: 1, Height: 3, Timestamp: 100}
	blockA := Block{Header: h, Transactions: []Transaction{sampleTransfer()}}
	blockB := Block{Header: h}
	if BlockHash(blockA.Header) != BlockHash(blockB.Header) {
		t.Fatalf("BlockHash must depend only on the header, not the body")
	}
}

func TestOutputKey_Deterministic(t *testing.T) {
	txHash := Hash{1, 2, 3}
	a := OutputKey(txHash, 0)
	b := OutputKey(txHash, 0)
	c := OutputKey(txHash, 1)
	if a != b {
		t.Fatalf("OutputKey not deterministic")
	}
	if a == c {
		t.Fatalf("OutputKey must depend on output_index")
	}
}
