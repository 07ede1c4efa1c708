package matching

import "math"

// SizeTolerance is the maximum relative size difference for two sizes to be
// considered the same download.
const SizeTolerance = 0.10

// TokenOverlap returns the fraction of shared tokens relative to the smaller
// set. It is symmetric and returns 0 when either set is empty.
func TokenOverlap(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for token := range small {
		if large.Has(token) {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

// NameOverlap tokenizes both names and returns their TokenOverlap.
func NameOverlap(a, b string) float64 {
	return TokenOverlap(Tokenize(a), Tokenize(b))
}

// SizesMatch reports whether actual is within SizeTolerance of expected.
// A nil or zero expected size gives no basis for comparison and always matches.
func SizesMatch(expected *int64, actual int64) bool {
	if expected == nil || *expected == 0 {
		return true
	}
	want := float64(*expected)
	got := float64(actual)
	largest := math.Max(want, got)
	if largest <= 0 {
		return true
	}
	return math.Abs(want-got)/largest <= SizeTolerance
}

func hasExpectedSize(expected *int64) bool {
	return expected != nil && *expected != 0
}
