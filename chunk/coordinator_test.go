package chunk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"motifscan/hsdb"
	"motifscan/motif"
	"motifscan/scan"
)

// literalScanner finds every occurrence of literal patterns, including
// overlapping ones, in the order windows hand buffers in. It stands in for
// the backend-backed block scanner behind the Scanner seam. Calls are
// serialized so call counting stays exact under parallel window scans.
type literalScanner struct {
	pats map[string][]string // key -> patterns, index = pattern id

	mu               sync.Mutex
	cancelAfterFirst context.CancelFunc // optional: cancel ctx after first call
	calls            int
	failOnCall       int // 1-based call number that fails; 0 = never
}

func (f *literalScanner) Scan(seq []byte, key string) ([]motif.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOnCall > 0 && f.calls == f.failOnCall {
		return nil, errors.New("backend blew up")
	}
	if f.cancelAfterFirst != nil && f.calls == 1 {
		f.cancelAfterFirst()
	}
	pats, ok := f.pats[key]
	if !ok {
		return nil, &hsdb.NotCompiledError{Key: key}
	}
	s := string(seq)
	var out []motif.Match
	for id, p := range pats {
		for i := 0; i+len(p) <= len(s); i++ {
			if s[i:i+len(p)] == p {
				out = append(out, motif.Match{Pattern: id, Start: i, End: i + len(p)})
			}
		}
	}
	return out, nil
}

func mustNew(t *testing.T, cfg Config, sc Scanner) *Coordinator {
	t.Helper()
	c, err := New(cfg, sc, nil)
	require.NoError(t, err)
	return c
}

func TestInsufficientOverlapRejected(t *testing.T) {
	_, err := New(Config{Window: 10, Overlap: 2, MaxMotifLen: 5}, &literalScanner{}, nil)
	var ce *hsdb.ConfigurationError
	require.ErrorAs(t, err, &ce)

	// O == MaxMotifLen-1 is the documented minimum and must pass.
	_, err = New(Config{Window: 10, Overlap: 4, MaxMotifLen: 5}, &literalScanner{}, nil)
	require.NoError(t, err)
}

func TestOverlapBounds(t *testing.T) {
	_, err := New(Config{Window: 10, Overlap: 10}, &literalScanner{}, nil)
	require.Error(t, err)
	_, err = New(Config{Window: 10, Overlap: -1}, &literalScanner{}, nil)
	require.Error(t, err)
}

func TestSingleWindowSkipsMerge(t *testing.T) {
	sc := &literalScanner{pats: map[string][]string{"k": {"AAA"}}}
	c := mustNew(t, Config{Window: 100, Overlap: 10, MaxMotifLen: 3}, sc)

	got, err := c.Scan(context.Background(), []byte("CCAAACC"), "k")
	require.NoError(t, err)
	require.Equal(t, []motif.Match{{Pattern: 0, Start: 2, End: 5}}, got)
	require.Equal(t, 1, sc.calls)
}

func TestSeamMotifReportedExactlyOnce(t *testing.T) {
	// W=10, O=4, step 6: windows [0,10) and [6,16). The motif AAAAA sits at
	// [8,13), its midpoint on the first window's edge. Window 0 cannot see
	// the whole span; window 1 must report it once at absolute coordinates.
	seq := []byte("CCCCCCCCAAAAACCC")
	sc := &literalScanner{pats: map[string][]string{"k": {"AAAAA"}}}
	c := mustNew(t, Config{Window: 10, Overlap: 4, MaxMotifLen: 5}, sc)

	got, err := c.Scan(context.Background(), seq, "k")
	require.NoError(t, err)
	require.Equal(t, []motif.Match{{Pattern: 0, Start: 8, End: 13}}, got)
	require.Equal(t, 2, sc.calls)
}

func TestOverlapCopyNotDuplicated(t *testing.T) {
	// A short motif starting exactly at the trailing-overlap edge is scanned
	// by both windows; the first defers it, the second owns it.
	// W=10, O=4: cut at 6, motif AAA at [6,9).
	seq := []byte("CCCCCCAAACCCCCCC")
	sc := &literalScanner{pats: map[string][]string{"k": {"AAA"}}}
	c := mustNew(t, Config{Window: 10, Overlap: 4, MaxMotifLen: 4}, sc)

	got, err := c.Scan(context.Background(), seq, "k")
	require.NoError(t, err)
	require.Equal(t, []motif.Match{{Pattern: 0, Start: 6, End: 9}}, got)
}

func TestManyWindowsSortedAndComplete(t *testing.T) {
	// Repeating content so every window sees hits; verify global ordering
	// and exactly-once reporting across many seams.
	seq := []byte(strings.Repeat("ACGTT", 40)) // len 200
	sc := &literalScanner{pats: map[string][]string{"k": {"ACG", "TTA"}}}
	c := mustNew(t, Config{Window: 24, Overlap: 4, MaxMotifLen: 3}, sc)

	got, err := c.Scan(context.Background(), seq, "k")
	require.NoError(t, err)

	// reference: single scan of the whole thing
	ref, err := (&literalScanner{pats: sc.pats}).Scan(seq, "k")
	require.NoError(t, err)
	motif.Sort(ref)
	require.Equal(t, ref, got)
}

func TestParallelMatchesSequential(t *testing.T) {
	seq := []byte(strings.Repeat("GATTACA", 60)) // len 420
	pats := map[string][]string{"k": {"ACAG", "TTA"}}

	seqC := mustNew(t, Config{Window: 64, Overlap: 8, MaxMotifLen: 6}, &literalScanner{pats: pats})
	parC := mustNew(t, Config{Window: 64, Overlap: 8, MaxMotifLen: 6, Parallel: 4}, &literalScanner{pats: pats})

	want, err := seqC.Scan(context.Background(), seq, "k")
	require.NoError(t, err)
	got, err := parC.Scan(context.Background(), seq, "k")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.NotEmpty(t, got)
}

func TestEarlyStopKeepsCompletedWindows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sc := &literalScanner{
		pats:             map[string][]string{"k": {"AAA"}},
		cancelAfterFirst: cancel,
	}
	// Hits in the first window only; cancellation lands between windows.
	seq := []byte("AAACCCCCCC" + strings.Repeat("C", 30))
	c := mustNew(t, Config{Window: 10, Overlap: 3, MaxMotifLen: 3}, sc)

	got, err := c.Scan(ctx, seq, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, sc.calls, "no further windows dispatched after cancel")
	require.Equal(t, []motif.Match{{Pattern: 0, Start: 0, End: 3}}, got)
}

func TestEarlyStopParallel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sc := &literalScanner{
		pats:             map[string][]string{"k": {"AAA"}},
		cancelAfterFirst: cancel,
	}
	// 8 windows, 2 workers: cancellation fires inside the first window's
	// scan, so at most the windows already in flight may still complete;
	// everything queued behind them must be skipped.
	seq := []byte("AAACCCCCCC" + strings.Repeat("C", 46)) // windows(56, 10, 3) = 8
	c := mustNew(t, Config{Window: 10, Overlap: 3, MaxMotifLen: 3, Parallel: 2}, sc)

	got, err := c.Scan(ctx, seq, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.LessOrEqual(t, sc.calls, 2, "queued windows scanned after cancel")
	require.Contains(t, got, motif.Match{Pattern: 0, Start: 0, End: 3},
		"completed window results survive the early stop")
}

func TestWindowFailureIdentifiesWindow(t *testing.T) {
	sc := &literalScanner{
		pats:       map[string][]string{"k": {"AAA"}},
		failOnCall: 2,
	}
	seq := []byte(strings.Repeat("C", 40))
	c := mustNew(t, Config{Window: 10, Overlap: 3, MaxMotifLen: 3}, sc)

	_, err := c.Scan(context.Background(), seq, "k")
	var se *scan.ScanError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 1, se.Window)
	require.Equal(t, "k", se.Key)
}

func TestWindowPartition(t *testing.T) {
	ws := windows(16, 10, 4)
	require.Equal(t, []window{{base: 0, end: 10}, {base: 6, end: 16}}, ws)

	ws = windows(25, 10, 4)
	require.Equal(t, []window{{base: 0, end: 10}, {base: 6, end: 16}, {base: 12, end: 22}, {base: 18, end: 25}}, ws)

	// window covers whole sequence exactly
	ws = windows(10, 10, 4)
	require.Equal(t, []window{{base: 0, end: 10}}, ws)
}
