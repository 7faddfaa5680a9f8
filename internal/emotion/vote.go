package emotion

// MajorityVote returns the most frequent label in window. On a tie the label
// that appears first in window wins. It reports false for an empty window.
func MajorityVote(window []Label) (Label, bool) {
	if len(window) == 0 {
		return "", false
	}

	counts := make(map[Label]int, len(labels))
	order := make([]Label, 0, len(labels))
	for _, l := range window {
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}

	best := order[0]
	for _, l := range order[1:] {
		if counts[l] > counts[best] {
			best = l
		}
	}
	return best, true
}
