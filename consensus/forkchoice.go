package consensus

// IsBetterTip reports whether candidate should replace current as the chain
// tip under the simple longest-cumulative-work rule (spec §4.10.3, §9): the
// engine only tracks a single tip, but exposes this comparator for the
// consensus collaborator that decides which of several candidate blocks to
// feed into add_block.
func IsBetterTip(current, candidate BlockHeader) bool {
	return candidate.CumulativeDifficulty > current.CumulativeDifficulty
}
