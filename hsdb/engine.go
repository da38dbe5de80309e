// hsdb/engine.go
package hsdb

import (
	"github.com/flier/gohs/hyperscan"
)

// Fixed flag set every pattern is compiled with: case-insensitive, "."
// crosses separators, input validated as text, and start-of-match reporting
// so callers get full (start, end) intervals.
const patternFlags = hyperscan.Caseless | hyperscan.DotAll | hyperscan.Utf8Mode | hyperscan.SomLeftMost

// MatchFunc receives one hit in the coordinates of the scanned buffer or
// stream. Returning a non-nil error stops the scan.
type MatchFunc func(pattern, start, end int) error

// Engine is an immutable compiled pattern database. It is safe to share
// across concurrently running scans; all per-scan mutable state lives in
// ScanState. Hyperscan databases are mode-specific, so an Engine carries one
// database for block scans and one for streaming.
type Engine struct {
	key       string
	count     int
	preview   []string
	truncated bool

	block  hyperscan.BlockDatabase
	stream hyperscan.StreamDatabase
}

// Key returns the cache key this engine was compiled under.
func (e *Engine) Key() string { return e.key }

// PatternCount returns the number of patterns in the database.
func (e *Engine) PatternCount() int { return e.count }

// NewBlockState allocates scratch for one block scan.
func (e *Engine) NewBlockState() (*ScanState, error) {
	s, err := hyperscan.NewScratch(e.block)
	if err != nil {
		return nil, &BackendUnavailableError{Err: err}
	}
	return &ScanState{scratch: s}, nil
}

// NewStreamState allocates scratch for one stream's lifetime.
func (e *Engine) NewStreamState() (*ScanState, error) {
	s, err := hyperscan.NewScratch(e.stream)
	if err != nil {
		return nil, &BackendUnavailableError{Err: err}
	}
	return &ScanState{scratch: s}, nil
}

// ScanBuffer runs a one-shot scan of buf, invoking fn per hit in backend
// arrival order. st must not be shared with another in-flight scan.
func (e *Engine) ScanBuffer(buf []byte, st *ScanState, fn MatchFunc) error {
	br := &matchBridge{fn: fn}
	return e.block.Scan(buf, st.scratch, onMatch, br)
}

// OpenStream starts a streaming scan. The backend retains partial-match
// state between Feed calls, so a motif split across adjacent chunks is still
// reported, with offsets relative to the start of the stream. Finalize
// flushes matches the backend deferred until end of input.
func (e *Engine) OpenStream(st *ScanState, fn MatchFunc) (*StreamState, error) {
	br := &matchBridge{fn: fn}
	s, err := e.stream.Open(0, st.scratch, onMatch, br)
	if err != nil {
		return nil, err
	}
	return &StreamState{stream: s}, nil
}

func (e *Engine) close() {
	_ = e.block.Close()
	_ = e.stream.Close()
}

// ScanState is the per-call scratch one scan needs. Never share a ScanState
// between concurrently running scans; the Engine itself is the shared part.
type ScanState struct {
	scratch *hyperscan.Scratch
}

// Close releases the scratch. Must be called once the scan is done.
func (s *ScanState) Close() error { return s.scratch.Free() }

// StreamState is one open backend stream (open / feed / finalize).
type StreamState struct {
	stream hyperscan.Stream
}

// Feed scans the next chunk. Matches that complete inside the chunk are
// reported before Feed returns.
func (s *StreamState) Feed(chunk []byte) error { return s.stream.Scan(chunk) }

// Finalize closes the stream, flushing any end-of-data matches.
func (s *StreamState) Finalize() error { return s.stream.Close() }

// matchBridge carries the caller's MatchFunc through the backend callback's
// context argument instead of a captured closure.
type matchBridge struct {
	fn MatchFunc
}

var onMatch = func(id uint, from, to uint64, flags uint, context interface{}) error {
	br := context.(*matchBridge)
	return br.fn(int(id), int(from), int(to))
}
