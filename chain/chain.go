// Package chain is the chain engine (spec C10): genesis construction,
// mining, external block ingestion, and read queries over the tip. It is
// the single writer of the state store; every other component only reads
// through the consensus.UTXOView it exposes.
package chain

import (
	"context"
	"sync"

	"zhtp.dev/ledger/consensus"
	"zhtp.dev/ledger/mempool"
	"zhtp.dev/ledger/state"
)

// Engine owns the chain vector and the unique mutating reference to the
// state store (spec §5's single-writer scheduling model).
type Engine struct {
	mu sync.RWMutex

	headers []consensus.BlockHeader
	bodies  [][]consensus.Transaction

	store   *state.Store
	pool    *mempool.Pool
	adapter consensus.ProofAdapter
	sysKeys consensus.SystemKeyProvider
	engine  consensus.ContractEngine
	gates   []consensus.FeatureGate
	clock   consensus.Clock
}

// Config bundles the collaborators the engine needs at construction (spec
// §6.1's external interfaces).
type Config struct {
	Adapter        consensus.ProofAdapter
	SystemKeys     consensus.SystemKeyProvider
	ContractEngine consensus.ContractEngine
	FeatureGates   []consensus.FeatureGate
	Clock          consensus.Clock
	MempoolCap     int
}

// NewWithGenesis constructs an engine and deterministically builds and
// stores the genesis block (spec §3.6): empty transaction body, zero
// previous hash, height 0, the canonical genesis timestamp, and the
// network's initial difficulty, PoW-mined like any other block.
func NewWithGenesis(cfg Config) (*Engine, error) {
	gates := cfg.FeatureGates
	if gates == nil {
		gates = consensus.DefaultFeatureGates()
	}
	capacity := cfg.MempoolCap
	if capacity == 0 {
		capacity = consensus.MempoolCapacity
	}

	e := &Engine{
		store:   state.New(),
		pool:    mempool.New(capacity),
		adapter: cfg.Adapter,
		sysKeys: cfg.SystemKeys,
		engine:  cfg.ContractEngine,
		gates:   gates,
		clock:   cfg.Clock,
	}

	genesis := consensus.BlockHeader{
		Version:          1,
		PreviousHash:     consensus.ZeroHash,
		MerkleRoot:       consensus.MerkleRoot(nil),
		Timestamp:        consensus.GenesisTimestamp,
		Difficulty:       consensus.InitialDifficulty,
		Height:           0,
		TransactionCount: 0,
		BlockSize:        0,
	}
	genesis.CumulativeDifficulty = consensus.DifficultyToWork(genesis.Difficulty)
	mineNonce(&genesis)

	block := consensus.Block{Header: genesis, Transactions: nil}
	if _, err := consensus.ValidateBlockAgainstTip(&block, nil, genesis.Timestamp, e.store, e.adapter, e.sysKeys); err != nil {
		return nil, err
	}

	e.headers = append(e.headers, genesis)
	e.bodies = append(e.bodies, nil)
	return e, nil
}

// mineNonce grinds h.Nonce until the header's hash meets its own declared
// target. Used only for the deterministic genesis block, whose difficulty
// is fixed at the network's easy initial value (spec §3.6) so this always
// terminates quickly.
func mineNonce(h *consensus.BlockHeader) {
	target := consensus.AsTarget(h.Difficulty)
	for nonce := uint64(0); ; nonce++ {
		h.Nonce = nonce
		if consensus.MeetsTarget(consensus.BlockHash(*h), target) {
			return
		}
	}
}

// Height returns the current tip height.
func (e *Engine) Height() consensus.Height {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tipLocked().Height
}

// Tip returns the current tip header.
func (e *Engine) Tip() consensus.BlockHeader {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tipLocked()
}

func (e *Engine) tipLocked() consensus.BlockHeader {
	return e.headers[len(e.headers)-1]
}

// BlockAt returns the header and body at height, if present.
func (e *Engine) BlockAt(height consensus.Height) (consensus.BlockHeader, []consensus.Transaction, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if uint64(height) >= uint64(len(e.headers)) {
		return consensus.BlockHeader{}, nil, false
	}
	return e.headers[height], e.bodies[height], true
}

// PendingCount returns the number of transactions currently in the mempool.
func (e *Engine) PendingCount() int {
	return e.pool.Count()
}

// UTXOGet, NullifierSeen and IdentityGet expose a read-only view of the
// state store (consensus.UTXOView), usable by read queries and by the
// consensus collaborator deciding between fork candidates.
func (e *Engine) UTXOGet(key consensus.Hash) (consensus.TxOutput, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.UTXOGet(key)
}

func (e *Engine) NullifierSeen(h consensus.Hash) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.NullifierSeen(h)
}

func (e *Engine) IdentityGet(did string) (consensus.IdentityData, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.IdentityGet(did)
}

// VerifyTransaction runs the read-only validation pipeline (spec §4.8.1)
// against the current tip state without admitting tx anywhere.
func (e *Engine) VerifyTransaction(tx consensus.Transaction) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := consensus.CheckTransactionAllowed(&tx, e.tipLocked().Height+1, e.gates); err != nil {
		return err
	}
	return consensus.ValidateTransaction(&tx, e.store, e.adapter, e.sysKeys)
}

// AddPendingTransaction validates tx against the current tip state and, on
// success, admits it to the mempool (spec §4.9 admission).
func (e *Engine) AddPendingTransaction(tx consensus.Transaction, mandatory bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := consensus.CheckTransactionAllowed(&tx, e.tipLocked().Height+1, e.gates); err != nil {
		return err
	}
	return e.pool.Add(tx, e.store, e.adapter, e.sysKeys, mandatory)
}

// now returns the current time via the configured clock, or the tip's
// timestamp if no clock was supplied (deterministic test fallback).
func (e *Engine) now() consensus.Timestamp {
	if e.clock != nil {
		return e.clock.NowSeconds()
	}
	return e.tipLocked().Timestamp
}

// MinePendingBlock assembles, mines and commits a new block on top of the
// current tip (spec §4.10.1). ctx governs cancellation of the PoW loop; it
// returns a nil block and a nil error if ctx was cancelled before a valid
// nonce was found, and state is left unchanged either way unless a block is
// returned.
func (e *Engine) MinePendingBlock(ctx context.Context, maxTxCount int, maxTxBytes int) (*consensus.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tip := e.tipLocked()
	snapshot := e.store.Snapshot()

	txs := e.pool.SelectForBlock(maxTxCount, maxTxBytes)
	for i := range txs {
		if err := consensus.CheckTransactionAllowed(&txs[i], tip.Height+1, e.gates); err != nil {
			return nil, err
		}
	}

	txHashes := make([]consensus.Hash, len(txs))
	for i := range txs {
		txHashes[i] = consensus.TxHash(&txs[i])
	}

	now := e.now()
	timestamp := now
	if timestamp <= tip.Timestamp {
		timestamp = tip.Timestamp + 1
	}

	difficulty := e.retargetLocked(tip)

	header := consensus.BlockHeader{
		Version:              1,
		PreviousHash:         consensus.BlockHash(tip),
		MerkleRoot:           consensus.MerkleRoot(txHashes),
		Timestamp:            timestamp,
		Difficulty:           difficulty,
		Height:               tip.Height + 1,
		TransactionCount:     uint32(len(txs)),
		BlockSize:            uint32(encodedSize(txs)),
		CumulativeDifficulty: tip.CumulativeDifficulty + consensus.DifficultyToWork(difficulty),
	}

	target := consensus.AsTarget(difficulty)
	const batchSize = 100_000
	var nonce uint64
	for {
		for i := 0; i < batchSize; i++ {
			header.Nonce = nonce
			if consensus.MeetsTarget(consensus.BlockHash(header), target) {
				block := consensus.Block{Header: header, Transactions: txs}
				if err := e.commitLocked(&block, &tip, snapshot); err != nil {
					return nil, err
				}
				return &block, nil
			}
			nonce++
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, nil
			default:
			}
		}
	}
}

// AddBlock validates and applies an externally produced block against the
// current tip (spec §4.10.2). On any validation failure, state is left
// untouched.
func (e *Engine) AddBlock(block consensus.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tip := e.tipLocked()
	snapshot := e.store.Snapshot()
	for i := range block.Transactions {
		if err := consensus.CheckTransactionAllowed(&block.Transactions[i], tip.Height+1, e.gates); err != nil {
			return err
		}
	}
	return e.commitLocked(&block, &tip, snapshot)
}

// commitLocked validates block against previous and, on success, applies
// its effects to the state store atomically: any validation failure leaves
// the snapshot (and so the live store) untouched (spec P7). Must be called
// with mu held.
func (e *Engine) commitLocked(block *consensus.Block, previous *consensus.BlockHeader, snapshot state.Snapshot) error {
	txHashes, err := consensus.ValidateBlockAgainstTip(block, previous, e.now(), e.store, e.adapter, e.sysKeys)
	if err != nil {
		e.store.Restore(snapshot)
		return err
	}

	for i := range block.Transactions {
		tx := &block.Transactions[i]
		txHash := txHashes[i]
		for _, in := range tx.Inputs {
			key := consensus.OutputKey(in.PreviousOutput.PreviousTxHash, in.PreviousOutput.OutputIndex)
			e.store.UTXORemove(key)
			e.store.NullifierInsert(in.Nullifier)
		}
		for idx, out := range tx.Outputs {
			key := consensus.OutputKey(txHash, uint32(idx))
			e.store.UTXOInsert(key, out)
		}
		switch tx.Type {
		case consensus.TxIdentityRegistration, consensus.TxIdentityUpdate:
			e.store.IdentityUpsert(tx.Identity.DID, *tx.Identity)
		case consensus.TxIdentityRevocation:
			e.store.IdentityRemove(tx.Identity.DID)
		case consensus.TxContractDeployment, consensus.TxContractExecution:
			if e.engine != nil {
				newState, _, _, err := e.engine.Apply(e.store.ContractRoot().Bytes(), *tx.Contract)
				if err != nil {
					e.store.Restore(snapshot)
					return consensus.NewError(consensus.ErrContractExecutionFail, err.Error())
				}
				e.store.SetContractRoot(consensus.ContractStateHash(newState))
			}
		}
	}

	e.headers = append(e.headers, block.Header)
	e.bodies = append(e.bodies, block.Transactions)
	e.pool.Prune(e.store)
	return nil
}

// retargetLocked computes the difficulty for the block following tip (spec
// §4.2): held steady within an adjustment window, retargeted against the
// window's actual span at each window boundary.
func (e *Engine) retargetLocked(tip consensus.BlockHeader) consensus.Difficulty {
	nextHeight := tip.Height + 1
	if nextHeight%consensus.DifficultyAdjustmentWindow != 0 || nextHeight == 0 {
		return tip.Difficulty
	}
	windowStartHeight := nextHeight - consensus.DifficultyAdjustmentWindow
	if uint64(windowStartHeight) >= uint64(len(e.headers)) {
		return tip.Difficulty
	}
	windowStart := e.headers[windowStartHeight]
	actualSpan := int64(tip.Timestamp) - int64(windowStart.Timestamp)
	expectedSpan := int64(consensus.DifficultyAdjustmentWindow) * consensus.TargetBlockTime
	return consensus.Retarget(tip.Difficulty, actualSpan, expectedSpan)
}

func encodedSize(txs []consensus.Transaction) int {
	total := 0
	for i := range txs {
		total += consensus.TransactionEncodedSize(&txs[i])
	}
	return total
}
