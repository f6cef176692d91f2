package consensus

// VerifyStandalone performs the structural and relative checks a block must
// satisfy against an optional previous header (spec §4.6). previous is nil
// only for genesis. now is the validator's current clock reading, used for
// the MaxClockSkew bound.
func VerifyStandalone(block *Block, previous *BlockHeader, now Timestamp) error {
	h := block.Header

	if int(h.TransactionCount) != len(block.Transactions) {
		return cerr(ErrInvalidBlock, "transaction_count does not match body length")
	}

	encodedSize := encodedBodySize(block.Transactions)
	if int(h.BlockSize) != encodedSize {
		return cerr(ErrInvalidBlock, "block_size does not match encoded body size")
	}
	if encodedSize > MaxBlockSize {
		return cerrf(ErrInvalidBlock, "block_size %d exceeds max %d", encodedSize, MaxBlockSize)
	}
	if len(block.Transactions) > MaxTransactionsPerBlock {
		return cerrf(ErrInvalidBlock, "transaction count %d exceeds max %d", len(block.Transactions), MaxTransactionsPerBlock)
	}

	txHashes := make([]Hash, len(block.Transactions))
	for i := range block.Transactions {
		txHashes[i] = TxHash(&block.Transactions[i])
	}
	if MerkleRoot(txHashes) != h.MerkleRoot {
		return cerr(ErrInvalidBlock, "merkle_root mismatch")
	}

	if previous != nil {
		if h.PreviousHash != BlockHash(*previous) {
			return cerr(ErrChainOutOfOrder, "previous_hash does not match tip")
		}
		if h.Height != previous.Height+1 {
			return cerr(ErrChainOutOfOrder, "height does not extend tip by one")
		}
		if h.Timestamp < previous.Timestamp {
			return cerr(ErrInvalidBlock, "timestamp decreases relative to previous block")
		}
		if h.CumulativeDifficulty != previous.CumulativeDifficulty+DifficultyToWork(h.Difficulty) {
			return cerr(ErrInvalidBlock, "cumulative_difficulty does not extend predecessor correctly")
		}
	} else {
		if h.Height != 0 {
			return cerr(ErrInvalidBlock, "genesis must be height 0")
		}
		if !h.PreviousHash.IsZero() {
			return cerr(ErrInvalidBlock, "genesis previous_hash must be zero")
		}
	}

	if uint64(h.Timestamp) > uint64(now)+MaxClockSkew {
		return cerr(ErrInvalidBlock, "timestamp exceeds max clock skew")
	}

	target := AsTarget(h.Difficulty)
	if !MeetsTarget(BlockHash(h), target) {
		return cerr(ErrInvalidBlock, "block hash does not meet declared target")
	}

	return nil
}

func encodedBodySize(txs []Transaction) int {
	total := 0
	for i := range txs {
		total += TransactionEncodedSize(&txs[i])
	}
	return total
}
