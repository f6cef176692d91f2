package contractadapter

import (
	"strings"
	"testing"

	"zhtp.dev/ledger/consensus"
)

func TestReferenceEngine_DeployThenSetThenGet(t *testing.T) {
	e := ReferenceEngine{}
	addr := consensus.Address{1, 2, 3}

	state, logs, gas, err := e.Apply(nil, consensus.ContractCall{TargetAddress: addr, Method: "deploy"})
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	if gas == 0 {
		t.Fatalf("expected nonzero gas usage")
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "deployed") {
		t.Fatalf("expected a deploy log line, got %v", logs)
	}

	state, logs, _, err = e.Apply(state, consensus.ContractCall{TargetAddress: addr, Method: "set", Parameters: []byte("balance=100")})
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "set balance") {
		t.Fatalf("expected a set log line, got %v", logs)
	}

	_, logs, _, err = e.Apply(state, consensus.ContractCall{TargetAddress: addr, Method: "get", Parameters: []byte("balance")})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "= 100") {
		t.Fatalf("expected get to report the stored value, got %v", logs)
	}
}

func TestReferenceEngine_RejectsCallBeforeDeploy(t *testing.T) {
	e := ReferenceEngine{}
	addr := consensus.Address{9}
	_, _, _, err := e.Apply(nil, consensus.ContractCall{TargetAddress: addr, Method: "set", Parameters: []byte("k=v")})
	if err == nil {
		t.Fatalf("expected set against an undeployed contract to fail")
	}
}

func TestReferenceEngine_RejectsDoubleDeploy(t *testing.T) {
	e := ReferenceEngine{}
	addr := consensus.Address{5}
	state, _, _, err := e.Apply(nil, consensus.ContractCall{TargetAddress: addr, Method: "deploy"})
	if err != nil {
		t.Fatalf("first deploy should succeed: %v", err)
	}
	if _, _, _, err := e.Apply(state, consensus.ContractCall{TargetAddress: addr, Method: "deploy"}); err == nil {
		t.Fatalf("expected redeploying the same address to fail")
	}
}

func TestReferenceEngine_RejectsUnknownMethod(t *testing.T) {
	e := ReferenceEngine{}
	if _, _, _, err := e.Apply(nil, consensus.ContractCall{Method: "selfdestruct"}); err == nil {
		t.Fatalf("expected an unsupported method to be rejected")
	}
}
