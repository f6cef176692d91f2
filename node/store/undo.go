package store

import (
	"encoding/json"
	"fmt"

	"zhtp.dev/ledger/consensus"
)

// UndoRecord captures everything a single committed block changed in the
// UTXO set, nullifier set, identity registry and contract root, so that a
// restarting node can roll a height back out without replaying the whole
// chain. It generalizes the teacher's spent/created outpoint undo record to
// this chain's wider state (nullifiers and identities have no UTXO analogue
// upstream).
type UndoRecord struct {
	SpentOutputs   []UndoSpentOutput           `json:"spent_outputs"`
	CreatedOutputs []consensus.OutputRef       `json:"created_outputs"`
	NullifiersUsed []consensus.Hash            `json:"nullifiers_used"`
	IdentitiesSet  map[string]*consensus.IdentityData `json:"identities_set"`
	ContractRootBefore consensus.Hash          `json:"contract_root_before"`
}

// UndoSpentOutput restores an output that a block consumed.
type UndoSpentOutput struct {
	Ref    consensus.OutputRef   `json:"ref"`
	Output consensus.TxOutput    `json:"output"`
}

func encodeUndoRecord(u UndoRecord) ([]byte, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("store: encode undo record: %w", err)
	}
	return b, nil
}

func decodeUndoRecord(b []byte) (UndoRecord, error) {
	var u UndoRecord
	if err := json.Unmarshal(b, &u); err != nil {
		return UndoRecord{}, fmt.Errorf("store: decode undo record: %w", err)
	}
	return u, nil
}
