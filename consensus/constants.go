package consensus

// Normative constants (spec CANONICAL §6.4). Every node on the network must
// agree on these values bit-for-bit; changing one is a hard fork.
const (
	// InitialDifficulty decodes (via AsTarget) to a target whose top 7 bytes
	// are 0xFF and the rest zero: almost the entire 256-bit hash space
	// satisfies it, so genesis and devnet mining resolve in a handful of
	// nonces. See DESIGN.md for why this packing was chosen.
	InitialDifficulty = Difficulty(0x00FFFFFFFFFFFFFF)

	MaxBlockSize            = 1_048_576
	MaxTransactionsPerBlock = 1000

	TargetBlockTime            = 10 // seconds
	DifficultyAdjustmentWindow = 2016
	MaxClockSkew               = 7200 // seconds

	MempoolCapacity = 4 * MaxTransactionsPerBlock
	BlockGasCap     = 8_000_000

	MemoMaxLen        = 512
	MaxDIDLen         = 256
	MaxDisplayNameLen = 128

	// GenesisTimestamp anchors genesis deterministically across independent
	// constructions of the chain (spec §3.6).
	GenesisTimestamp = Timestamp(1_700_000_000)
)

// Domain-separation tags (spec §4.1, §6.3). Every hashed object kind gets a
// distinct ASCII tag so that no two differently-typed objects can ever hash
// to the same preimage.
const (
	domainTx         = "zhtp.tx.v1"
	domainHeader     = "zhtp.hdr.v1"
	domainMerkleLeaf = "zhtp.merkle.leaf.v1"
	domainMerkleNode = "zhtp.merkle.node.v1"
	domainOutputKey  = "zhtp.outputkey.v1"
	domainAddress    = "zhtp.addr.v1"
)
