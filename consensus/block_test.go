package consensus

import "testing"

func buildValidBlock(t *testing.T, prev *BlockHeader, txs []Transaction, nonce uint64) Block {
	t.Helper()
	return buildValidBlockAt(t, prev, txs, nonce, 1000)
}

func buildValidBlockAt(t *testing.T, prev *BlockHeader, txs []Transaction, nonce uint64, timestamp Timestamp) Block {
	t.Helper()
	txHashes := make([]Hash, len(txs))
	for i := range txs {
		txHashes[i] = TxHash(&txs[i])
	}
	h := BlockHeader{
		Version:          1,
		MerkleRoot:       MerkleRoot(txHashes),
		Timestamp:        timestamp,
		Difficulty:       InitialDifficulty,
		TransactionCount: uint32(len(txs)),
		Nonce:            nonce,
	}
	if prev != nil {
		h.PreviousHash = BlockHash(*prev)
		h.Height = prev.Height + 1
		h.CumulativeDifficulty = prev.CumulativeDifficulty + DifficultyToWork(h.Difficulty)
		if h.Timestamp < prev.Timestamp {
			h.Timestamp = prev.Timestamp
		}
	} else {
		h.CumulativeDifficulty = DifficultyToWork(h.Difficulty)
	}
	block := Block{Header: h, Transactions: txs}
	size := encodedBodySize(txs)
	block.Header.BlockSize = uint32(size)

	// grind the nonce so PoW passes against the easy genesis difficulty
	for n := uint64(0); ; n++ {
		block.Header.Nonce = n
		if MeetsTarget(BlockHash(block.Header), AsTarget(block.Header.Difficulty)) {
			break
		}
		if n > 1_000_000 {
			t.Fatalf("failed to grind a valid nonce within budget")
		}
	}
	return block
}

func TestVerifyStandalone_Genesis(t *testing.T) {
	block := buildValidBlock(t, nil, nil, 0)
	if err := VerifyStandalone(&block, nil, 1000); err != nil {
		t.Fatalf("genesis should verify: %v", err)
	}
}

func TestVerifyStandalone_RejectsMerkleMismatch(t *testing.T) {
	block := buildValidBlock(t, nil, nil, 0)
	block.Header.MerkleRoot[0] ^= 0xFF
	if err := VerifyStandalone(&block, nil, 1000); CodeOf(err) != ErrInvalidBlock {
		t.Fatalf("expected InvalidBlock for merkle mismatch, got %v", err)
	}
}

func TestVerifyStandalone_RejectsBadLinkage(t *testing.T) {
	genesis := buildValidBlock(t, nil, nil, 0)
	next := buildValidBlock(t, &genesis.Header, nil, 0)
	next.Header.PreviousHash[0] ^= 0xFF
	if err := VerifyStandalone(&next, &genesis.Header, 2000); CodeOf(err) != ErrChainOutOfOrder {
		t.Fatalf("expected ChainOutOfOrder for bad linkage, got %v", err)
	}
}

func TestVerifyStandalone_RejectsPoWFailure(t *testing.T) {
	// Scenario 5: hand-craft a block with a hash above its declared target.
	block := buildValidBlock(t, nil, nil, 0)
	var hardTarget [32]byte
	hardTarget[31] = 1
	block.Header.Difficulty = CompactFromTarget(hardTarget)
	if err := VerifyStandalone(&block, nil, 1000); CodeOf(err) != ErrInvalidBlock {
		t.Fatalf("expected InvalidBlock for PoW failure, got %v", err)
	}
}

func TestVerifyStandalone_RejectsTransactionCountMismatch(t *testing.T) {
	block := buildValidBlock(t, nil, nil, 0)
	block.Header.TransactionCount = uint32(len(block.Transactions) + 1)
	if err := VerifyStandalone(&block, nil, 1000); CodeOf(err) != ErrInvalidBlock {
		t.Fatalf("expected InvalidBlock for transaction_count mismatch, got %v", err)
	}
}

func TestVerifyStandalone_RejectsClockSkew(t *testing.T) {
	block := buildValidBlockAt(t, nil, nil, 0, 100_000)
	if err := VerifyStandalone(&block, nil, 0); err == nil {
		t.Fatalf("expected error when timestamp exceeds max clock skew")
	}
}
