package names

// isSingleCharVariation reports whether two normalized names differ by at
// most one character: either equal length with exactly one differing
// position, or a length difference of one where a single left-to-right scan
// absorbs at most one inserted character.
//
// This is a greedy single-pass alignment, not full Levenshtein distance;
// behavior at the margins is preserved from the original matcher.
func isSingleCharVariation(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	switch {
	case len(ra) == len(rb):
		if len(ra) == 0 {
			return false
		}
		diffs := 0
		for i := range ra {
			if ra[i] != rb[i] {
				diffs++
				if diffs > 1 {
					return false
				}
			}
		}
		return diffs == 1
	case len(ra)+1 == len(rb):
		return alignsWithOneInsertion(ra, rb)
	case len(rb)+1 == len(ra):
		return alignsWithOneInsertion(rb, ra)
	default:
		return false
	}
}

// alignsWithOneInsertion checks whether long equals short with exactly one
// extra character, scanning greedily from the left.
func alignsWithOneInsertion(short, long []rune) bool {
	mismatches := 0
	i, j := 0, 0
	for i < len(short) {
		if j >= len(long) {
			return false
		}
		if short[i] == long[j] {
			i++
			j++
			continue
		}
		mismatches++
		if mismatches > 1 {
			return false
		}
		j++
	}
	return true
}
