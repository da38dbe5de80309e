// scan/block.go
package scan

import (
	"motifscan/hsdb"
	"motifscan/motif"
)

// BlockScanner runs one-shot scans of whole in-memory buffers against
// engines held by a Registry. Zero-sized and safe to share; each Scan call
// allocates its own ScanState.
type BlockScanner struct {
	reg *hsdb.Registry
}

func Blocks(reg *hsdb.Registry) *BlockScanner { return &BlockScanner{reg: reg} }

// Scan returns every (pattern, start, end) hit in seq for the engine cached
// under key. Results arrive in backend order, NOT sorted by position; sort
// explicitly if order matters. No scoring or validation of hits happens at
// this layer.
func (b *BlockScanner) Scan(seq []byte, key string) ([]motif.Match, error) {
	if err := motif.ValidateSequence(seq); err != nil {
		return nil, &hsdb.ConfigurationError{Reason: err.Error()}
	}
	eng, ok := b.reg.Lookup(key)
	if !ok {
		return nil, &hsdb.NotCompiledError{Key: key}
	}

	st, err := eng.NewBlockState()
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	acc := motif.NewAccumulator()
	if err := eng.ScanBuffer(seq, st, acc.Add); err != nil {
		return nil, &ScanError{Key: key, Window: -1, Err: err}
	}
	return acc.Matches(), nil
}
