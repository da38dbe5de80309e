// scan/stream.go
package scan

import (
	"context"
	"errors"
	"io"

	"motifscan/hsdb"
	"motifscan/motif"
)

// StreamScanner scans a sequence delivered as successive chunks. One backend
// stream is held open for the whole call, so a motif split across adjacent
// chunks is still detected when its tail arrives. The backend reports
// offsets relative to the start of the stream; an optional base offset
// rebases them when the stream does not begin at sequence position 0.
type StreamScanner struct {
	reg  *hsdb.Registry
	base int
}

func Streams(reg *hsdb.Registry) *StreamScanner { return &StreamScanner{reg: reg} }

// WithBase returns a scanner whose reported coordinates are shifted by base.
func (s *StreamScanner) WithBase(base int) *StreamScanner {
	return &StreamScanner{reg: s.reg, base: base}
}

// ScanChunks feeds chunks from ch until it is closed, calling visit for each
// match as it is produced. Matches are a forward-only sequence: once visited
// they are gone, the stream cannot be replayed. Matches the backend deferred
// until end of input are flushed after the last chunk.
//
// Each chunk is validated on its own, so chunk boundaries must not split a
// multi-byte rune; the byte-per-base nucleotide input this scanner exists
// for cannot trip this.
func (s *StreamScanner) ScanChunks(ctx context.Context, key string, ch <-chan []byte, visit func(motif.Match) error) error {
	next := func() ([]byte, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				return nil, io.EOF
			}
			return chunk, nil
		}
	}
	return s.run(key, next, visit)
}

// ScanReader reads r in chunkSize pieces and scans them as one stream.
func (s *StreamScanner) ScanReader(ctx context.Context, key string, r io.Reader, chunkSize int, visit func(motif.Match) error) error {
	if chunkSize <= 0 {
		return &hsdb.ConfigurationError{Reason: "stream chunk size must be positive"}
	}
	buf := make([]byte, chunkSize)
	next := func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	return s.run(key, next, visit)
}

func (s *StreamScanner) run(key string, next func() ([]byte, error), visit func(motif.Match) error) error {
	eng, ok := s.reg.Lookup(key)
	if !ok {
		return &hsdb.NotCompiledError{Key: key}
	}

	st, err := eng.NewStreamState()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	em := &emitter{base: s.base, visit: visit}
	stream, err := eng.OpenStream(st, em.emit)
	if err != nil {
		return &ScanError{Key: key, Window: -1, Err: err}
	}

	// The backend reports coordinates relative to the stream start, so no
	// per-chunk rebasing is needed; idx only identifies the failing chunk.
	idx := 0
	for {
		chunk, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			em.mute()
			_ = stream.Finalize()
			return err
		}
		if err := motif.ValidateSequence(chunk); err != nil {
			em.mute()
			_ = stream.Finalize()
			return &hsdb.ConfigurationError{Reason: err.Error()}
		}
		if err := stream.Feed(chunk); err != nil {
			em.mute()
			_ = stream.Finalize()
			if em.err != nil {
				return em.err // visit aborted the scan
			}
			return &ScanError{Key: key, Window: idx, Err: err}
		}
		idx++
	}

	// end of input: flush deferred matches
	if err := stream.Finalize(); err != nil {
		if em.err != nil {
			return em.err
		}
		return &ScanError{Key: key, Window: idx, Err: err}
	}
	return em.err
}

// emitter rebases backend-local offsets and forwards matches to the caller.
// It rides the backend callback's context slot; see hsdb.matchBridge.
type emitter struct {
	base  int
	visit func(motif.Match) error
	muted bool
	err   error
}

func (e *emitter) emit(pattern, start, end int) error {
	if e.muted {
		return nil
	}
	err := e.visit(motif.Match{Pattern: pattern, Start: start + e.base, End: end + e.base})
	if err != nil && e.err == nil {
		e.err = err
	}
	return err
}

// mute drops any matches produced while tearing a failed stream down.
func (e *emitter) mute() { e.muted = true }
