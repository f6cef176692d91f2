package consensus

// ValidateTransaction runs the full stateless+stateful pipeline for a single
// transaction (spec §4.8.1) against view. It never mutates view; callers
// apply effects separately once a transaction (or an entire block) is
// accepted.
func ValidateTransaction(tx *Transaction, view UTXOView, adapter ProofAdapter, sysKeys SystemKeyProvider) error {
	if err := ValidateStructure(tx); err != nil {
		return err
	}

	if !adapter.VerifySignature(tx.Signer, TxHashPreimageBytes(tx), tx.Signature) {
		return cerr(ErrInvalidTransaction, "signature verification failed")
	}

	if tx.Type == TxUbiDistribution && !sysKeys.IsSystemKey(tx.Signer) {
		return cerr(ErrInvalidTransaction, "system transaction not signed by a recognized system key")
	}

	for _, in := range tx.Inputs {
		if view.NullifierSeen(in.Nullifier) {
			return cerr(ErrDuplicateNullifier, "nullifier already spent")
		}
		key := OutputKey(in.PreviousOutput.PreviousTxHash, in.PreviousOutput.OutputIndex)
		out, ok := view.UTXOGet(key)
		if !ok {
			return cerr(ErrUnknownUTXO, "input references a non-existent output")
		}
		if !adapter.VerifySpendProof(in.ZKProof, in.Nullifier, out.Commitment, Hash{}) {
			return cerr(ErrInvalidTransaction, "spend proof verification failed")
		}
	}

	if len(tx.Inputs) > 0 || len(tx.Outputs) > 0 {
		if !adapter.VerifyBalanceProof(tx.BalanceProof, tx.Inputs, tx.Outputs, tx.Fee) {
			return cerr(ErrInsufficientFunds, "balance proof verification failed")
		}
	}

	if err := validateVariantSpecific(tx, view, adapter); err != nil {
		return err
	}

	return nil
}

func validateVariantSpecific(tx *Transaction, view UTXOView, adapter ProofAdapter) error {
	switch tx.Type {
	case TxIdentityRegistration:
		if _, exists := view.IdentityGet(tx.Identity.DID); exists {
			return cerrf(ErrIdentity, "did %q already registered", tx.Identity.DID)
		}
		if !adapter.VerifyIdentityOwnership(tx.Identity.DID, tx.Identity.PublicKey, tx.Identity.OwnershipProof) {
			return cerr(ErrIdentity, "ownership proof verification failed")
		}
	case TxIdentityUpdate, TxIdentityRevocation:
		existing, exists := view.IdentityGet(tx.Identity.DID)
		if !exists {
			return cerrf(ErrIdentity, "did %q not registered", tx.Identity.DID)
		}
		if !adapter.VerifyIdentityOwnership(tx.Identity.DID, existing.PublicKey, tx.Identity.OwnershipProof) {
			return cerr(ErrIdentity, "ownership proof verification failed")
		}
	case TxContentUpload, TxSessionCreation, TxSessionTermination:
		if tx.ActorDID != "" {
			actor, exists := view.IdentityGet(tx.ActorDID)
			if !exists {
				return cerrf(ErrIdentity, "referenced actor did %q not registered", tx.ActorDID)
			}
			if !adapter.VerifySignature(actor.PublicKey, TxHashPreimageBytes(tx), tx.Signature) {
				return cerr(ErrInvalidTransaction, "signature does not match referenced actor's registered key")
			}
		}
	}
	return nil
}

// workingView layers the in-progress effects of earlier transactions in the
// same block over a read-only base view (spec §4.8.2). Applying transaction
// i's effects before validating transaction i+1 is what forbids two
// transactions in one block from spending the same note.
type workingView struct {
	base               UTXOView
	spentOutputs       map[Hash]struct{}
	newOutputs         map[Hash]TxOutput
	insertedNullifiers map[Hash]struct{}
	identityOverrides  map[string]IdentityData
	identityDeleted    map[string]struct{}
}

func newWorkingView(base UTXOView) *workingView {
	return &workingView{
		base:               base,
		spentOutputs:       make(map[Hash]struct{}),
		newOutputs:         make(map[Hash]TxOutput),
		insertedNullifiers: make(map[Hash]struct{}),
		identityOverrides:  make(map[string]IdentityData),
		identityDeleted:    make(map[string]struct{}),
	}
}

func (w *workingView) UTXOGet(key Hash) (TxOutput, bool) {
	if _, spent := w.spentOutputs[key]; spent {
		return TxOutput{}, false
	}
	if out, ok := w.newOutputs[key]; ok {
		return out, true
	}
	return w.base.UTXOGet(key)
}

func (w *workingView) NullifierSeen(h Hash) bool {
	if _, ok := w.insertedNullifiers[h]; ok {
		return true
	}
	return w.base.NullifierSeen(h)
}

func (w *workingView) IdentityGet(did string) (IdentityData, bool) {
	if _, deleted := w.identityDeleted[did]; deleted {
		return IdentityData{}, false
	}
	if d, ok := w.identityOverrides[did]; ok {
		return d, true
	}
	return w.base.IdentityGet(did)
}

func (w *workingView) apply(tx *Transaction, txHash Hash) {
	for _, in := range tx.Inputs {
		key := OutputKey(in.PreviousOutput.PreviousTxHash, in.PreviousOutput.OutputIndex)
		w.spentOutputs[key] = struct{}{}
		delete(w.newOutputs, key)
		w.insertedNullifiers[in.Nullifier] = struct{}{}
	}
	for i, out := range tx.Outputs {
		key := OutputKey(txHash, uint32(i))
		w.newOutputs[key] = out
	}
	switch tx.Type {
	case TxIdentityRegistration, TxIdentityUpdate:
		w.identityOverrides[tx.Identity.DID] = *tx.Identity
		delete(w.identityDeleted, tx.Identity.DID)
	case TxIdentityRevocation:
		delete(w.identityOverrides, tx.Identity.DID)
		w.identityDeleted[tx.Identity.DID] = struct{}{}
	}
}

// ValidateBlockAgainstTip runs VerifyStandalone followed by per-transaction
// validation against a working snapshot that accumulates each earlier
// transaction's effects (spec §4.8.2). It never mutates base; on success it
// returns the per-transaction hashes in block order for the caller to reuse
// when committing to durable state.
func ValidateBlockAgainstTip(
	block *Block,
	previous *BlockHeader,
	now Timestamp,
	base UTXOView,
	adapter ProofAdapter,
	sysKeys SystemKeyProvider,
) ([]Hash, error) {
	if err := VerifyStandalone(block, previous, now); err != nil {
		return nil, err
	}

	working := newWorkingView(base)
	txHashes := make([]Hash, len(block.Transactions))
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		if err := ValidateTransaction(tx, working, adapter, sysKeys); err != nil {
			return nil, err
		}
		txHash := TxHash(tx)
		working.apply(tx, txHash)
		txHashes[i] = txHash
	}
	return txHashes, nil
}
