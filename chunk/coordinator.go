// chunk/coordinator.go
package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"motifscan/hsdb"
	"motifscan/motif"
	"motifscan/scan"
)

// Scanner is the per-window buffer scanner. *scan.BlockScanner satisfies it;
// the seam keeps the coordinator testable without a live backend.
type Scanner interface {
	Scan(seq []byte, key string) ([]motif.Match, error)
}

// Config controls window splitting.
//
// Window and Overlap are caller-supplied; the working convention is windows
// of tens of kilobases. Overlap must be at least MaxMotifLen-1 or a motif
// straddling a window seam could be lost — that is rejected up front, never
// silently.
type Config struct {
	Window      int // W; <=0 scans the whole sequence as one buffer
	Overlap     int // O, bases shared between adjacent windows
	MaxMotifLen int // longest span any pattern can match; 0 = not known
	Parallel    int // max concurrent window scans; <=1 is sequential
}

// Coordinator splits sequences too large for one buffer into overlapping
// windows, scans each window independently, and merges the per-window
// results into one sorted, de-duplicated match list in absolute coordinates.
type Coordinator struct {
	cfg Config
	sc  Scanner
	log *zap.Logger
}

// New validates cfg and builds a coordinator.
func New(cfg Config, sc Scanner, log *zap.Logger) (*Coordinator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Window > 0 {
		if cfg.Overlap < 0 || cfg.Overlap >= cfg.Window {
			return nil, &hsdb.ConfigurationError{
				Reason: fmt.Sprintf("overlap %d must be in [0, window %d)", cfg.Overlap, cfg.Window),
			}
		}
		if cfg.MaxMotifLen > 0 && cfg.Overlap < cfg.MaxMotifLen-1 {
			return nil, &hsdb.ConfigurationError{
				Reason: fmt.Sprintf("overlap %d is below max motif length %d - 1; seam motifs would be lost",
					cfg.Overlap, cfg.MaxMotifLen),
			}
		}
		if cfg.MaxMotifLen == 0 {
			log.Warn("window overlap not verified: max motif length unknown",
				zap.Int("window", cfg.Window), zap.Int("overlap", cfg.Overlap))
		}
	}
	return &Coordinator{cfg: cfg, sc: sc, log: log}, nil
}

type window struct {
	base, end int
}

// windows partitions [0, n) into spans of width w whose starts step by w-o.
// The last window absorbs the remainder.
func windows(n, w, o int) []window {
	step := w - o
	var ws []window
	for base := 0; ; base += step {
		if base+w >= n {
			ws = append(ws, window{base: base, end: n})
			return ws
		}
		ws = append(ws, window{base: base, end: base + w})
	}
}

// Scan runs the windowed scan of seq against key. Matches come back sorted
// by (start, pattern, end) with exact duplicate triples dropped. When the
// scan stops early (context cancelled between windows, or a window failed)
// the merged results of windows completed so far are returned alongside the
// error.
func (c *Coordinator) Scan(ctx context.Context, seq []byte, key string) ([]motif.Match, error) {
	// Single window covers everything: no attribution or dedup needed.
	if c.cfg.Window <= 0 || len(seq) <= c.cfg.Window {
		ms, err := c.sc.Scan(seq, key)
		if err != nil {
			return nil, err
		}
		motif.Sort(ms)
		return ms, nil
	}

	ws := windows(len(seq), c.cfg.Window, c.cfg.Overlap)
	c.log.Debug("windowed scan",
		zap.String("key", key), zap.Int("sequence", len(seq)), zap.Int("windows", len(ws)))

	results := make([][]motif.Match, len(ws))
	done := make([]bool, len(ws))

	runWindow := func(i int) error {
		w := ws[i]
		ms, err := c.sc.Scan(seq[w.base:w.end], key)
		if err != nil {
			var se *scan.ScanError
			if errors.As(err, &se) && se.Window < 0 {
				se.Window = i
				return err
			}
			return &scan.ScanError{Key: key, Window: i, Err: err}
		}
		results[i] = c.accept(ms, i, ws)
		done[i] = true
		return nil
	}

	var scanErr error
	if c.cfg.Parallel > 1 {
		// fan-out; Wait is the barrier before the merge
		p := pool.New().
			WithContext(ctx).
			WithCancelOnError().
			WithFirstError().
			WithMaxGoroutines(c.cfg.Parallel)
		for i := range ws {
			i := i
			p.Go(func(ctx context.Context) error {
				// the pool does not skip queued tasks after cancel; stop
				// dispatching further windows ourselves
				if err := ctx.Err(); err != nil {
					return err
				}
				return runWindow(i)
			})
		}
		scanErr = p.Wait()
	} else {
		for i := range ws {
			if err := ctx.Err(); err != nil {
				scanErr = err // stop dispatching further windows
				break
			}
			if err := runWindow(i); err != nil {
				scanErr = err
				break
			}
		}
	}

	var merged []motif.Match
	for i := range results {
		if done[i] {
			merged = append(merged, results[i]...)
		}
	}
	motif.Sort(merged)
	merged = motif.DedupSorted(merged)
	return merged, scanErr
}

// accept rebases window-local matches to absolute coordinates and applies
// the attribution rule: a match belongs to the window whose non-overlap
// region contains its start. A match starting strictly inside the trailing
// overlap is deferred to the next window, which rescans that content from
// its own base; the last window keeps everything.
func (c *Coordinator) accept(ms []motif.Match, i int, ws []window) []motif.Match {
	base := ws[i].base
	last := i == len(ws)-1
	cut := base + c.cfg.Window - c.cfg.Overlap // == next window's base
	out := ms[:0]
	for _, m := range ms {
		m.Start += base
		m.End += base
		if !last && m.Start >= cut {
			continue
		}
		out = append(out, m)
	}
	return out
}
