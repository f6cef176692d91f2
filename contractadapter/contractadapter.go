// Package contractadapter is the thin boundary around the external
// contract state-transition engine (spec C11, §4.11). The core only ever
// sees consensus.ContractEngine; this package supplies a small in-memory
// reference engine used by tests and local tooling, standing in for a real
// production VM the way Empower1's contract-call transaction shape (code
// bytes, target address, method, arguments) informed the payload this
// engine consumes.
package contractadapter

import (
	"encoding/json"
	"fmt"

	"zhtp.dev/ledger/consensus"
)

// ReferenceEngine is a minimal, deterministic key-value contract engine: it
// is not meant to execute arbitrary bytecode, only to exercise the
// consensus.ContractEngine contract end to end in tests and devnets. A
// production deployment swaps this for a real execution engine behind the
// same interface.
type ReferenceEngine struct{}

var _ consensus.ContractEngine = ReferenceEngine{}

// contractState is the JSON-encoded shape this engine persists as its
// opaque state blob: one flat key-value store per contract address.
type contractState struct {
	Contracts map[string]map[string]string `json:"contracts"`
}

func decodeState(raw []byte) (contractState, error) {
	var s contractState
	if len(raw) == 0 {
		s.Contracts = make(map[string]map[string]string)
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return contractState{}, fmt.Errorf("contractadapter: decode state: %w", err)
	}
	if s.Contracts == nil {
		s.Contracts = make(map[string]map[string]string)
	}
	return s, nil
}

// Apply implements consensus.ContractEngine. Supported methods:
//   - "deploy": initializes an empty key space for call.TargetAddress.
//   - "set"/"get": a single key/value pair encoded in call.Parameters as
//     "key=value" (set) or "key" (get); get only appends a log line, it
//     never mutates state.
//
// Any other method is rejected as a contract execution failure, matching
// the spec's framing that gas accounting and execution correctness are the
// external engine's responsibility, not the core's.
func (ReferenceEngine) Apply(state []byte, call consensus.ContractCall) ([]byte, []string, uint64, error) {
	s, err := decodeState(state)
	if err != nil {
		return nil, nil, 0, err
	}

	addr := fmt.Sprintf("%x", call.TargetAddress)
	logs := make([]string, 0, 1)
	gasUsed := uint64(len(call.Parameters)) + 21000

	switch call.Method {
	case "deploy":
		if _, exists := s.Contracts[addr]; exists {
			return nil, nil, 0, fmt.Errorf("contractadapter: contract %s already deployed", addr)
		}
		s.Contracts[addr] = make(map[string]string)
		logs = append(logs, fmt.Sprintf("deployed contract %s", addr))

	case "set":
		kv, ok := s.Contracts[addr]
		if !ok {
			return nil, nil, 0, fmt.Errorf("contractadapter: contract %s not deployed", addr)
		}
		key, value, ok := splitKeyValue(call.Parameters)
		if !ok {
			return nil, nil, 0, fmt.Errorf("contractadapter: set requires key=value parameters")
		}
		kv[key] = value
		logs = append(logs, fmt.Sprintf("%s: set %s", addr, key))

	case "get":
		kv, ok := s.Contracts[addr]
		if !ok {
			return nil, nil, 0, fmt.Errorf("contractadapter: contract %s not deployed", addr)
		}
		key := string(call.Parameters)
		logs = append(logs, fmt.Sprintf("%s: get %s = %s", addr, key, kv[key]))

	default:
		return nil, nil, 0, fmt.Errorf("contractadapter: unsupported method %q", call.Method)
	}

	out, err := json.Marshal(s)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("contractadapter: encode state: %w", err)
	}
	return out, logs, gasUsed, nil
}

func splitKeyValue(params []byte) (key, value string, ok bool) {
	for i, b := range params {
		if b == '=' {
			return string(params[:i]), string(params[i+1:]), true
		}
	}
	return "", "", false
}
