package facility

import (
	"sort"
	"strings"
)

// Similarity scores range from 0 to 100. Inputs are compared as given:
// matching is case sensitive and punctuation counts, so callers fold case
// themselves where they need to. Tokens are split on whitespace.

// Ratio is the normalised indel similarity of a and b.
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

// PartialRatio is the best Ratio of the shorter string against any
// equally long window of the longer one.
func PartialRatio(a, b string) float64 {
	return partialRatio([]rune(a), []rune(b))
}

// TokenSetRatio compares the sets of words in a and b, ignoring order and
// duplicates, so that "GENERAL HOSPITAL" fully matches "MASSACHUSETTS
// GENERAL HOSPITAL".
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var sect, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			sect = append(sect, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	if len(sect) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}
	sort.Strings(sect)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(sect, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := ratio([]rune(withA), []rune(withB))
	if base != "" {
		best = max(best, ratio([]rune(base), []rune(withA)), ratio([]rune(base), []rune(withB)))
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcs(a, b)) / float64(total)
}

func partialRatio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	n, m := len(a), len(b)
	best := 0.0
	// Windows slide from hanging off the left edge to hanging off the right.
	for start := -(n - 1); start < m; start++ {
		lo, hi := max(start, 0), min(start+n, m)
		if s := ratio(a, b[lo:hi]); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}

// lcs returns the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
