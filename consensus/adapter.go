package consensus

// ProofAdapter is the capability boundary over external cryptography
// (spec §4.5, §6.1). Every method is total, pure and deterministic; this
// package never parses keys, signatures or proofs itself. Implementations
// must be safe for concurrent use (spec §5).
type ProofAdapter interface {
	VerifySignature(publicKey PublicKey, message []byte, sig Signature) bool
	VerifySpendProof(proof Proof, nullifier Hash, commitmentUnderSpend Hash, anchorRoot Hash) bool
	VerifyBalanceProof(proof Proof, inputs []TxInput, outputs []TxOutput, fee Amount) bool
	VerifyIdentityOwnership(did string, publicKey PublicKey, ownershipProof Proof) bool
}

// SystemKeyProvider answers whether a public key is a recognized signer of
// system transactions (e.g. UbiDistribution), supplied at chain construction
// (spec §6.1).
type SystemKeyProvider interface {
	IsSystemKey(publicKey PublicKey) bool
}

// Clock supplies the current time for timestamp-skew checks (spec §6.1).
// now_seconds() must be monotone enough for MaxClockSkew comparisons; a
// thin wrapper over time.Now in production code, a fixed value in tests.
type Clock interface {
	NowSeconds() Timestamp
}

// UTXOView is the read-only contract consensus needs from the state store
// (C7) to validate a transaction. It is defined here, at the point of use,
// so that consensus never imports the state package; state.Store implements
// it by importing consensus for these types.
type UTXOView interface {
	UTXOGet(key Hash) (TxOutput, bool)
	NullifierSeen(h Hash) bool
	IdentityGet(did string) (IdentityData, bool)
}

// ContractEngine routes contract-execution transactions to the external
// state-transition engine (C11, spec §4.11). The core commits NewState only
// if the enclosing block is accepted.
type ContractEngine interface {
	Apply(state []byte, call ContractCall) (newState []byte, logs []string, gasUsed uint64, err error)
}
