package consensus

// ValidateStructure checks the per-variant structural rules that hold
// without any state (spec §4.4): variant tag consistency, size caps, no
// duplicate inputs or nullifiers within the transaction.
func ValidateStructure(tx *Transaction) error {
	if tx.Version == 0 {
		return cerr(ErrInvalidTransaction, "version must be nonzero")
	}
	if len(tx.Memo) > MemoMaxLen {
		return cerrf(ErrInvalidTransaction, "memo exceeds max length %d", MemoMaxLen)
	}
	if err := checkVariantTagConsistency(tx); err != nil {
		return err
	}
	if err := checkNoDuplicateInputs(tx.Inputs); err != nil {
		return err
	}
	return checkVariantShape(tx)
}

func checkVariantTagConsistency(tx *Transaction) error {
	wantsIdentity := tx.Type == TxIdentityRegistration || tx.Type == TxIdentityUpdate || tx.Type == TxIdentityRevocation
	if wantsIdentity != (tx.Identity != nil) {
		return cerr(ErrInvalidTransaction, "identity_data presence inconsistent with transaction_type")
	}
	wantsContract := tx.Type == TxContractDeployment || tx.Type == TxContractExecution
	if wantsContract != (tx.Contract != nil) {
		return cerr(ErrInvalidTransaction, "contract payload presence inconsistent with transaction_type")
	}
	wantsWallet := tx.Type == TxWalletRegistration
	if wantsWallet != (tx.Wallet != nil) {
		return cerr(ErrInvalidTransaction, "wallet_data presence inconsistent with transaction_type")
	}
	return nil
}

func checkNoDuplicateInputs(inputs []TxInput) error {
	seenOutpoint := make(map[OutputRef]struct{}, len(inputs))
	seenNullifier := make(map[Hash]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := seenOutpoint[in.PreviousOutput]; dup {
			return cerr(ErrInvalidTransaction, "duplicate (previous_output, output_index) within transaction")
		}
		seenOutpoint[in.PreviousOutput] = struct{}{}
		if _, dup := seenNullifier[in.Nullifier]; dup {
			return cerr(ErrDuplicateNullifier, "duplicate nullifier within transaction")
		}
		seenNullifier[in.Nullifier] = struct{}{}
	}
	return nil
}

func checkVariantShape(tx *Transaction) error {
	switch tx.Type {
	case TxTransfer:
		if len(tx.Inputs) == 0 {
			return cerr(ErrInvalidTransaction, "transfer requires non-empty inputs")
		}
		if len(tx.Outputs) == 0 {
			return cerr(ErrInvalidTransaction, "transfer requires non-empty outputs")
		}
	case TxUbiDistribution:
		if len(tx.Outputs) == 0 {
			return cerr(ErrInvalidTransaction, "system distribution requires non-empty outputs")
		}
	case TxIdentityRegistration, TxIdentityUpdate, TxIdentityRevocation:
		if err := validateIdentityShape(tx.Identity); err != nil {
			return err
		}
		if tx.Type != TxIdentityRevocation && len(tx.Identity.OwnershipProof) == 0 {
			return cerr(ErrInvalidTransaction, "registration/update requires an ownership proof")
		}
	case TxContractDeployment, TxContractExecution:
		if tx.Contract.GasLimit > BlockGasCap {
			return cerrf(ErrInvalidTransaction, "gas_limit %d exceeds block gas cap", tx.Contract.GasLimit)
		}
	case TxWalletRegistration:
		if tx.Wallet.OwnerDID == "" {
			return cerr(ErrInvalidTransaction, "wallet registration requires owner_did")
		}
	case TxSessionCreation, TxSessionTermination, TxContentUpload:
		// No UTXO spend required (spec §3.2); no further structural shape.
	default:
		return cerrf(ErrInvalidTransaction, "unknown transaction_type %d", tx.Type)
	}
	return nil
}

func validateIdentityShape(d *IdentityData) error {
	if d == nil {
		return cerr(ErrInvalidTransaction, "missing identity_data")
	}
	if d.DID == "" || len(d.DID) > MaxDIDLen {
		return cerrf(ErrIdentity, "did length out of bounds (1..%d)", MaxDIDLen)
	}
	if len(d.DisplayName) > MaxDisplayNameLen {
		return cerrf(ErrIdentity, "display_name exceeds max length %d", MaxDisplayNameLen)
	}
	return nil
}
