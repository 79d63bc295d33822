package match

// Similarity computes a normalized edit-distance similarity between two
// strings in [0, 1]. Identical non-empty strings score 1.0; when either
// side is empty the score is 0.0, including the empty-vs-empty case.
// Otherwise the score is (maxLen - levenshtein(a, b)) / maxLen.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	ra := []rune(a)
	rb := []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	d := levenshtein(ra, rb)
	return float64(maxLen-d) / float64(maxLen)
}

// levenshtein returns the classic edit distance with unit costs for insert,
// delete and substitute. Two rows of the DP table are kept instead of the
// full matrix.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
