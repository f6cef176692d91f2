package consensus

import "encoding/binary"

// encoder accumulates a canonical byte encoding (spec §6.3): fixed-width
// little-endian integers, u32-length-prefixed byte sequences and strings,
// single-tag-byte optionals. Field order always matches declaration order in
// the corresponding type.
type encoder struct {
	buf []byte
}

func newEncoder(sizeHint int) *encoder {
	return &encoder{buf: make([]byte, 0, sizeHint)}
}

func (e *encoder) bytes() []byte { return e.buf }

func (e *encoder) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) u32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) fixed(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *encoder) hash(h Hash) {
	e.buf = append(e.buf, h[:]...)
}

// byteSeq writes a u32 length prefix followed by b.
func (e *encoder) byteSeq(b []byte) {
	e.u32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

// str writes a UTF-8 string with a u32 length prefix.
func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

// optionalTag writes the single-byte presence tag for optional fields: 0
// absent, 1 present. Callers encode the payload themselves when present=true.
func (e *encoder) optionalTag(present bool) {
	if present {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

// encodeOutputRef writes an OutputRef in declaration order.
func encodeOutputRef(e *encoder, r OutputRef) {
	e.hash(r.PreviousTxHash)
	e.u32(r.OutputIndex)
}

// encodeTxInput writes a TxInput. The ZK proof bytes are part of the hash
// preimage: two inputs with equal (previous_output, nullifier) but different
// proofs are different encodings, which is intentional (L1).
func encodeTxInput(e *encoder, in TxInput) {
	encodeOutputRef(e, in.PreviousOutput)
	e.hash(in.Nullifier)
	e.byteSeq(in.ZKProof)
}

func encodeTxOutput(e *encoder, out TxOutput) {
	e.hash(out.Commitment)
	e.hash(out.Note)
	e.byteSeq(out.Recipient)
}

func encodeIdentityData(e *encoder, d *IdentityData) {
	e.str(d.DID)
	e.str(d.DisplayName)
	e.byteSeq(d.PublicKey)
	e.byteSeq(d.OwnershipProof)
	e.str(d.IdentityType)
	e.hash(d.DocumentHash)
	e.u64(uint64(d.RegistrationTimestamp))
	e.u64(uint64(d.RegistrationFee))
	e.u64(uint64(d.DAOFee))
}

func encodeContractCall(e *encoder, c *ContractCall) {
	e.fixed(c.TargetAddress[:])
	e.str(c.Method)
	e.byteSeq(c.Parameters)
	e.u64(c.GasLimit)
	e.u32(uint32(len(c.Permissions)))
	for _, p := range c.Permissions {
		e.str(p)
	}
}

func encodeWalletData(e *encoder, w *WalletData) {
	e.str(w.OwnerDID)
	e.byteSeq(w.PublicKey)
	e.byteSeq(w.Metadata)
}

// TxHashPreimageBytes canonically encodes everything that is hashable about
// tx (spec §4.4): version, type, ordered inputs, ordered outputs, fee, memo,
// signer, balance proof, and the variant payload present for its type. The
// signature is intentionally excluded so signing and re-hashing are stable.
func TxHashPreimageBytes(tx *Transaction) []byte {
	e := newEncoder(128 + len(tx.Memo))
	e.fixed([]byte(domainTx))
	e.u32(tx.Version)
	e.u8(uint8(tx.Type))

	e.u32(uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		encodeTxInput(e, in)
	}

	e.u32(uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		encodeTxOutput(e, out)
	}

	e.u64(uint64(tx.Fee))
	e.byteSeq(tx.Memo)
	e.byteSeq(tx.Signer)
	e.byteSeq(tx.BalanceProof)

	e.optionalTag(tx.Identity != nil)
	if tx.Identity != nil {
		encodeIdentityData(e, tx.Identity)
	}
	e.optionalTag(tx.Contract != nil)
	if tx.Contract != nil {
		encodeContractCall(e, tx.Contract)
	}
	e.optionalTag(tx.Wallet != nil)
	if tx.Wallet != nil {
		encodeWalletData(e, tx.Wallet)
	}

	e.optionalTag(tx.ActorDID != "")
	if tx.ActorDID != "" {
		e.str(tx.ActorDID)
	}

	return e.bytes()
}

// BlockHeaderBytes canonically encodes a header in declaration order
// (spec §3.3); this is exactly the block hash preimage.
func BlockHeaderBytes(h BlockHeader) []byte {
	e := newEncoder(4 + 32 + 32 + 8 + 8 + 8 + 4 + 4 + 8 + 8)
	e.fixed([]byte(domainHeader))
	e.u32(h.Version)
	e.hash(h.PreviousHash)
	e.hash(h.MerkleRoot)
	e.u64(uint64(h.Timestamp))
	e.u64(uint64(h.Difficulty))
	e.u64(uint64(h.Height))
	e.u32(h.TransactionCount)
	e.u32(h.BlockSize)
	e.u64(h.CumulativeDifficulty)
	e.u64(h.Nonce)
	return e.bytes()
}

// TransactionEncodedSize returns the size in bytes of tx's canonical
// encoding including its signature, used for block-size accounting
// (spec §3.3 `block_size`).
func TransactionEncodedSize(tx *Transaction) int {
	return len(TxHashPreimageBytes(tx)) + 4 + len(tx.Signature)
}
