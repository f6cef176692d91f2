package state

import (
	"lukechampine.com/blake3"
	"zhtp.dev/ledger/consensus"
)

const domainStateFingerprint = "zhtp.state.fingerprint.v1"

// fingerprintEncoder concatenates the fixed-size fingerprint components
// ahead of hashing, mirroring the domain-separated canonical encoding used
// throughout the consensus package.
type fingerprintEncoder struct {
	buf []byte
}

func newFingerprintEncoder() *fingerprintEncoder {
	return &fingerprintEncoder{buf: append([]byte{}, []byte(domainStateFingerprint)...)}
}

func (e *fingerprintEncoder) hash(h consensus.Hash) {
	e.buf = append(e.buf, h[:]...)
}

func (e *fingerprintEncoder) bytes() []byte {
	return e.buf
}

func blake3Sum(b []byte) [32]byte {
	return blake3.Sum256(b)
}
