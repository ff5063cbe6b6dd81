package keyword

import "sort"

// LevenshteinDistance returns the number of single-rune insertions,
// deletions or substitutions needed to turn a into b.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// ClosestTerms returns the candidates within maxDistance edits of term,
// nearest first and alphabetically among equals. Exact matches are skipped.
func ClosestTerms(term string, candidates []string, maxDistance int) []string {
	type scored struct {
		term string
		dist int
	}
	var found []scored
	n := len([]rune(term))
	for _, c := range candidates {
		if c == term {
			continue
		}
		diff := len([]rune(c)) - n
		if diff < 0 {
			diff = -diff
		}
		if diff > maxDistance {
			continue
		}
		if d := LevenshteinDistance(term, c); d <= maxDistance {
			found = append(found, scored{c, d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].term < found[j].term
	})
	out := make([]string, len(found))
	for i, s := range found {
		out[i] = s.term
	}
	return out
}
