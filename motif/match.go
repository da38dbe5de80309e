// motif/match.go
package motif

import "sort"

// Match is one raw pattern hit in absolute sequence coordinates.
// [Start, End) is half-open; Pattern is the numeric id the pattern was
// compiled under (its index in the compile-time list).
type Match struct {
	Pattern int `json:"pattern"`
	Start   int `json:"start"`
	End     int `json:"end"`
}

// Less defines the canonical (start, pattern, end) order used after merging
// window results.
func Less(a, b Match) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.Pattern != b.Pattern {
		return a.Pattern < b.Pattern
	}
	return a.End < b.End
}

func Sort(ms []Match) {
	sort.Slice(ms, func(i, j int) bool { return Less(ms[i], ms[j]) })
}

// DedupSorted removes exact (pattern, start, end) duplicates in place.
// Input must already be sorted with Sort.
func DedupSorted(ms []Match) []Match {
	if len(ms) < 2 {
		return ms
	}
	out := ms[:1]
	for _, m := range ms[1:] {
		last := out[len(out)-1]
		if m == last {
			continue
		}
		out = append(out, m)
	}
	return out
}
