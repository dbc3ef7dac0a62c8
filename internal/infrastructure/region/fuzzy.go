package region

// withinOneEdit reports whether a and b differ by at most one insertion,
// deletion or substitution
func withinOneEdit(a, b string) bool {
	ra, rb := []rune(a), []rune(b)

	// early exit if lengths differ too much
	lenDiff := len(ra) - len(rb)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > 1 {
		return false
	}

	return levenshteinDistance(ra, rb) <= 1
}

// levenshteinDistance calculates the edit distance between two rune slices
func levenshteinDistance(r1, r2 []rune) int {
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	m, n := len(r1), len(r2)

	// two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
