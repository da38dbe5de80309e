package motif

// Accumulator collects matches for one scan call. It replaces the
// closure-over-outer-slice pattern at the backend callback boundary: the
// scanner hands Add to the backend and reads Matches back when the scan
// returns. Not safe for concurrent use; allocate one per scan.
type Accumulator struct {
	ms []Match
}

func NewAccumulator() *Accumulator { return &Accumulator{} }

// Add records one hit. Signature matches hsdb.MatchFunc.
func (a *Accumulator) Add(pattern, start, end int) error {
	a.ms = append(a.ms, Match{Pattern: pattern, Start: start, End: end})
	return nil
}

// Matches returns everything accumulated so far, in arrival order.
func (a *Accumulator) Matches() []Match { return a.ms }

func (a *Accumulator) Len() int { return len(a.ms) }
