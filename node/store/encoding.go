package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"zhtp.dev/ledger/consensus"
)

// encodeOutputRefKey packs an OutputRef into its bbolt key: the 32-byte
// creating-transaction hash followed by its little-endian u32 output index.
// This mirrors the hash||index layout consensus.OutputKey already uses to
// index UTXOs in memory (state.Store), just spelled out for bbolt instead of
// folded into a single Hash.
func encodeOutputRefKey(ref consensus.OutputRef) []byte {
	out := make([]byte, 32+4)
	copy(out[0:32], ref.PreviousTxHash[:])
	binary.LittleEndian.PutUint32(out[32:36], ref.OutputIndex)
	return out
}

func decodeOutputRefKey(b []byte) (consensus.OutputRef, error) {
	if len(b) != 36 {
		return consensus.OutputRef{}, fmt.Errorf("store: outputref key: expected 36 bytes, got %d", len(b))
	}
	var ref consensus.OutputRef
	copy(ref.PreviousTxHash[:], b[0:32])
	ref.OutputIndex = binary.LittleEndian.Uint32(b[32:36])
	return ref, nil
}

// Outputs, identities, headers and blocks (storedBlock) are persisted via
// encoding/json (the same choice the manifest file makes): this is an
// engineering persistence format, not the canonical consensus encoding used
// for hashing, so there is no requirement that it be compact or stable
// across versions beyond what SchemaVersion tracks.
func encodeOutput(out consensus.TxOutput) ([]byte, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("store: encode output: %w", err)
	}
	return b, nil
}

func decodeOutput(b []byte) (consensus.TxOutput, error) {
	var out consensus.TxOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return consensus.TxOutput{}, fmt.Errorf("store: decode output: %w", err)
	}
	return out, nil
}

func encodeIdentity(id consensus.IdentityData) ([]byte, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("store: encode identity: %w", err)
	}
	return b, nil
}

func decodeIdentity(b []byte) (consensus.IdentityData, error) {
	var id consensus.IdentityData
	if err := json.Unmarshal(b, &id); err != nil {
		return consensus.IdentityData{}, fmt.Errorf("store: decode identity: %w", err)
	}
	return id, nil
}

type storedBlock struct {
	Header       consensus.BlockHeader   `json:"header"`
	Transactions []consensus.Transaction `json:"transactions"`
}

func encodeBlock(header consensus.BlockHeader, txs []consensus.Transaction) ([]byte, error) {
	b, err := json.Marshal(storedBlock{Header: header, Transactions: txs})
	if err != nil {
		return nil, fmt.Errorf("store: encode block: %w", err)
	}
	return b, nil
}

func decodeBlock(b []byte) (consensus.BlockHeader, []consensus.Transaction, error) {
	var sb storedBlock
	if err := json.Unmarshal(b, &sb); err != nil {
		return consensus.BlockHeader{}, nil, fmt.Errorf("store: decode block: %w", err)
	}
	return sb.Header, sb.Transactions, nil
}

func encodeHeader(header consensus.BlockHeader) ([]byte, error) {
	b, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("store: encode header: %w", err)
	}
	return b, nil
}

func decodeHeader(b []byte) (consensus.BlockHeader, error) {
	var h consensus.BlockHeader
	if err := json.Unmarshal(b, &h); err != nil {
		return consensus.BlockHeader{}, fmt.Errorf("store: decode header: %w", err)
	}
	return h, nil
}

func heightKey(height uint64) []byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], height)
	return out[:]
}
