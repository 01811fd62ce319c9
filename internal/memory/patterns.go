package memory

import (
	"sort"
	"strings"
)

// MinPatternCount is how often a window must repeat to count as a habit.
const MinPatternCount = 2

// Pattern is a repeated action window and its frequency.
type Pattern struct {
	Seq   string `json:"seq"`
	Count int    `json:"count"`
}

// CountPatterns returns every window of the given size that occurs at least
// MinPatternCount times, most frequent first. Ties keep first-seen order.
func CountPatterns(seq []string, window int) []Pattern {
	if window <= 0 || len(seq) < window {
		return nil
	}
	counts := map[string]int{}
	first := map[string]int{}
	for i := 0; i+window <= len(seq); i++ {
		key := strings.Join(seq[i:i+window], ",")
		if _, ok := first[key]; !ok {
			first[key] = i
		}
		counts[key]++
	}

	var out []Pattern
	for k, c := range counts {
		if c >= MinPatternCount {
			out = append(out, Pattern{Seq: k, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return first[out[i].Seq] < first[out[j].Seq]
	})
	return out
}

// DetectPatterns is CountPatterns without the counts.
func DetectPatterns(seq []string, window int) []string {
	ps := CountPatterns(seq, window)
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Seq)
	}
	return out
}

// topPatterns unions the three most frequent 3-grams with the three most
// frequent 2-grams, de-duplicated and capped at MaxTopPatterns.
func topPatterns(seq []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, w := range []int{3, 2} {
		ps := DetectPatterns(seq, w)
		if len(ps) > 3 {
			ps = ps[:3]
		}
		for _, p := range ps {
			if seen[p] || len(out) >= MaxTopPatterns {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
