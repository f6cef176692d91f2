package consensus

// Hash is a fixed 32-byte domain-separated digest. The zero value is reserved
// for genesis' predecessor and for "absent" references.
type Hash [32]byte

// IsZero reports whether h is the reserved zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of h's 32 bytes, for handing off to collaborators
// (e.g. the contract engine) that operate on opaque byte slices.
func (h Hash) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, h[:])
	return out
}

// Address is a 32-byte identifier derived from a public key by the crypto
// adapter (C5). Consensus never derives one itself.
type Address [32]byte

// PublicKey, Signature and Proof are opaque byte vectors. Their validity is
// decided exclusively by the crypto adapter; consensus never parses them.
type (
	PublicKey []byte
	Signature []byte
	Proof     []byte
)

// Amount is an unsigned quantity in the smallest token unit. It appears only
// on visible fields (fees); per-output amounts are hidden inside commitments
// and must never be read or summed by consensus code.
type Amount uint64

// Timestamp is whole seconds since the Unix epoch.
type Timestamp uint64

// Height is a strictly increasing block index, genesis at zero.
type Height uint64

// Difficulty is the compact 64-bit encoding of a 256-bit PoW target.
// Strictly ordered: a numerically smaller target is "harder".
type Difficulty uint64

// TxType tags which variant a Transaction carries (spec §3.2).
type TxType uint8

const (
	TxTransfer TxType = iota
	TxIdentityRegistration
	TxIdentityUpdate
	TxIdentityRevocation
	TxContractDeployment
	TxContractExecution
	TxSessionCreation
	TxSessionTermination
	TxContentUpload
	TxUbiDistribution
	TxWalletRegistration
)

func (t TxType) String() string {
	switch t {
	case TxTransfer:
		return "Transfer"
	case TxIdentityRegistration:
		return "IdentityRegistration"
	case TxIdentityUpdate:
		return "IdentityUpdate"
	case TxIdentityRevocation:
		return "IdentityRevocation"
	case TxContractDeployment:
		return "ContractDeployment"
	case TxContractExecution:
		return "ContractExecution"
	case TxSessionCreation:
		return "SessionCreation"
	case TxSessionTermination:
		return "SessionTermination"
	case TxContentUpload:
		return "ContentUpload"
	case TxUbiDistribution:
		return "UbiDistribution"
	case TxWalletRegistration:
		return "WalletRegistration"
	default:
		return "Unknown"
	}
}

// OutputRef names a previously created transaction output by the hash of its
// creating transaction and its position within that transaction's outputs.
type OutputRef struct {
	PreviousTxHash Hash
	OutputIndex    uint32
}

// TxInput spends one UTXO. The nullifier is the double-spend token; its
// derivation is a capability of the crypto adapter, not of consensus.
type TxInput struct {
	PreviousOutput OutputRef
	Nullifier      Hash
	ZKProof        Proof
}

// TxOutput hides its amount inside Commitment; consensus never reads a
// plaintext value from an output. Note is the per-output nullifier seed the
// spender will later derive a nullifier from; Recipient is opaque key
// material used only by wallets, never parsed by consensus.
type TxOutput struct {
	Commitment Hash
	Note       Hash
	Recipient  PublicKey
}

// IdentityData is the payload carried by the three identity transaction
// variants (spec §3.2).
type IdentityData struct {
	DID                   string
	DisplayName           string
	PublicKey             PublicKey
	OwnershipProof        Proof
	IdentityType          string
	DocumentHash          Hash
	RegistrationTimestamp Timestamp
	RegistrationFee       Amount
	DAOFee                Amount
}

// ContractCall is the payload carried by ContractDeployment/ContractExecution.
// Its execution is routed to the external engine (C11); consensus only
// checks the envelope.
type ContractCall struct {
	TargetAddress Address
	Method        string
	Parameters    []byte
	GasLimit      uint64
	Permissions   []string
}

// WalletData is the payload carried by WalletRegistration.
type WalletData struct {
	OwnerDID  string
	PublicKey PublicKey
	Metadata  []byte
}

// Transaction is the tagged-sum transaction envelope. Exactly the fields
// relevant to Type are populated; the rest are left at their zero value.
// The Signature field is excluded from the hash domain (spec §3.2) so that
// signing and re-hashing remain stable.
type Transaction struct {
	Version   uint32
	Type      TxType
	Inputs    []TxInput
	Outputs   []TxOutput
	Fee       Amount
	Memo      []byte
	Signer    PublicKey
	Signature Signature

	// BalanceProof attests Σinputs == Σoutputs + Fee under commitment, never
	// recomputed by arithmetic on outputs (spec §4.5).
	BalanceProof Proof

	Identity *IdentityData
	Contract *ContractCall
	Wallet   *WalletData

	// ActorDID names the identity a ContentUpload or session transaction
	// references, if any (spec §9 open question: such a transaction must be
	// signed by the actor's registered public key when ActorDID is set;
	// otherwise any payer's signature suffices). Empty for all other
	// variants.
	ActorDID string
}

// BlockHeader carries every field in the block hash preimage (spec §3.3).
// Nonce is an explicit PoW-grinding field (Open Question resolution, see
// DESIGN.md): the header carries its own nonce rather than overloading
// Timestamp.
type BlockHeader struct {
	Version              uint32
	PreviousHash         Hash
	MerkleRoot           Hash
	Timestamp            Timestamp
	Difficulty           Difficulty
	Height               Height
	TransactionCount     uint32
	BlockSize            uint32
	CumulativeDifficulty uint64
	Nonce                uint64
}

// Block is a header plus its ordered transaction body.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}
