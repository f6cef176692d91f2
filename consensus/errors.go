package consensus

import "fmt"

// ErrorCode classifies every error the core surfaces (spec §7).
type ErrorCode string

const (
	ErrInvalidTransaction    ErrorCode = "INVALID_TRANSACTION"
	ErrInsufficientFunds     ErrorCode = "INSUFFICIENT_FUNDS"
	ErrDuplicateNullifier    ErrorCode = "DUPLICATE_NULLIFIER"
	ErrUnknownUTXO           ErrorCode = "UNKNOWN_UTXO"
	ErrInvalidBlock          ErrorCode = "INVALID_BLOCK"
	ErrChainOutOfOrder       ErrorCode = "CHAIN_OUT_OF_ORDER"
	ErrContractExecutionFail ErrorCode = "CONTRACT_EXECUTION_FAILED"
	ErrIdentity              ErrorCode = "IDENTITY_ERROR"
	ErrMempoolFull           ErrorCode = "MEMPOOL_FULL"
	ErrConflict              ErrorCode = "CONFLICT"
)

// ConsensusError is the concrete error type returned by every validation
// entry point in this package.
type ConsensusError struct {
	Code ErrorCode
	Msg  string
}

func (e *ConsensusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func cerr(code ErrorCode, msg string) error {
	return &ConsensusError{Code: code, Msg: msg}
}

// NewError lets collaborating packages (mempool, chain) raise the same
// classified error taxonomy (spec §7) without reaching into this package's
// unexported constructors.
func NewError(code ErrorCode, msg string) error {
	return cerr(code, msg)
}

func cerrf(code ErrorCode, format string, args ...any) error {
	return &ConsensusError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the ErrorCode from err, or "" if err was not produced by
// this package.
func CodeOf(err error) ErrorCode {
	var ce *ConsensusError
	if e, ok := err.(*ConsensusError); ok {
		ce = e
	}
	if ce == nil {
		return ""
	}
	return ce.Code
}
