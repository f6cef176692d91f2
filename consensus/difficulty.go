package consensus

import "math/big"

// Difficulty packs a 256-bit target into 64 bits as an exponent (top byte:
// the index of the target's most significant nonzero byte) plus a 56-bit
// mantissa holding the 7 bytes of the target starting at that index. This
// mirrors the teacher's compact-target idea, widened from 32 to 64 bits so
// the mantissa carries substantially more precision than Bitcoin-style
// nBits. The byte layout is this implementation's own choice (the spec
// leaves the exact packing unspecified); see DESIGN.md.
const mantissaMask = uint64(0x00FFFFFFFFFFFFFF)

// AsTarget expands d into its 32-byte big-endian target value.
func AsTarget(d Difficulty) [32]byte {
	exponent := int(uint64(d) >> 56)
	mantissa := uint64(d) & mantissaMask

	var mbytes [7]byte
	m := mantissa
	for i := 6; i >= 0; i-- {
		mbytes[i] = byte(m)
		m >>= 8
	}

	var out [32]byte
	if exponent >= 32 {
		return out
	}
	n := 7
	if exponent+7 > 32 {
		n = 32 - exponent
	}
	copy(out[exponent:exponent+n], mbytes[:n])
	return out
}

// CompactFromTarget re-packs a 32-byte big-endian target into compact form,
// anchoring the exponent at the target's most significant nonzero byte.
func CompactFromTarget(target [32]byte) Difficulty {
	exponent := -1
	for i, b := range target {
		if b != 0 {
			exponent = i
			break
		}
	}
	if exponent == -1 {
		return 0
	}

	n := 7
	if exponent+7 > 32 {
		n = 32 - exponent
	}
	var mbytes [7]byte
	copy(mbytes[:n], target[exponent:exponent+n])

	var mantissa uint64
	for _, b := range mbytes {
		mantissa = mantissa<<8 | uint64(b)
	}
	return Difficulty(uint64(exponent)<<56 | (mantissa & mantissaMask))
}

// MeetsTarget reports whether hash, interpreted as a big-endian 256-bit
// integer, is less than or equal to target (spec §4.2, PoW check).
func MeetsTarget(hash Hash, target [32]byte) bool {
	for i := 0; i < 32; i++ {
		if hash[i] < target[i] {
			return true
		}
		if hash[i] > target[i] {
			return false
		}
	}
	return true
}

// DifficultyToWork returns the monotone "work" a block's difficulty
// contributes to cumulative_difficulty: floor(2^256 / target). Smaller
// targets (harder difficulty) yield more work.
func DifficultyToWork(d Difficulty) uint64 {
	target := AsTarget(d)
	t := new(big.Int).SetBytes(target[:])
	if t.Sign() == 0 {
		return 0
	}
	two256 := new(big.Int).Lsh(big.NewInt(1), 256)
	work := new(big.Int).Div(two256, t)
	if !work.IsUint64() {
		return ^uint64(0)
	}
	return work.Uint64()
}

// Retarget implements spec §4.2's retarget policy: new_target =
// old_target * clamp(actual_span/expected_span, 1/4, 4), computed entirely
// in integer arithmetic (no floats) to stay bit-exact across
// implementations.
func Retarget(oldDifficulty Difficulty, actualSpanSeconds, expectedSpanSeconds int64) Difficulty {
	if expectedSpanSeconds <= 0 {
		return oldDifficulty
	}
	actual := actualSpanSeconds
	minSpan := expectedSpanSeconds / 4
	maxSpan := expectedSpanSeconds * 4
	if actual < minSpan {
		actual = minSpan
	}
	if actual > maxSpan {
		actual = maxSpan
	}

	oldTarget := AsTarget(oldDifficulty)
	oldTargetInt := new(big.Int).SetBytes(oldTarget[:])

	newTargetInt := new(big.Int).Mul(oldTargetInt, big.NewInt(actual))
	newTargetInt.Div(newTargetInt, big.NewInt(expectedSpanSeconds))

	maxTarget := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if newTargetInt.Cmp(maxTarget) > 0 {
		newTargetInt = maxTarget
	}
	if newTargetInt.Sign() <= 0 {
		newTargetInt = big.NewInt(1)
	}

	var out [32]byte
	b := newTargetInt.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return CompactFromTarget(out)
}
