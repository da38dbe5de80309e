// dispatch/dispatch.go
package dispatch

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"motifscan/motif"
)

// DefaultThreshold is the minimum number of sequences worth spreading over
// workers.
const DefaultThreshold = 2

// Scanner is the per-sequence scan entry point. *scan.BlockScanner satisfies
// it, as does chunk-coordinated scanning via an adapter.
type Scanner interface {
	Scan(seq []byte, key string) ([]motif.Match, error)
}

// Job pairs one input sequence with the engine key to scan it against.
type Job struct {
	Seq []byte
	Key string
}

// ShouldParallelize reports whether n independent sequences justify the
// parallel path. threshold <= 0 means DefaultThreshold.
func ShouldParallelize(n, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return n >= threshold
}

// WorkerCount clamps the worker pool size for n sequences to
// [2, available concurrency]. Once the parallel path is engaged the pool is
// never smaller than 2 and never larger than the hardware allows; when the
// two bounds conflict (GOMAXPROCS of 1) the floor wins, since a
// single-worker pool would serialize the very scans the parallel path was
// chosen to overlap.
func WorkerCount(n int) int {
	w := n
	if max := runtime.GOMAXPROCS(0); w > max {
		w = max
	}
	if w < 2 {
		w = 2
	}
	return w
}

// ScanAll scans every job, in parallel when ShouldParallelize says so, and
// returns one result slice per job at the job's own index — the association
// between input and output does not depend on completion order. Workers
// share the read-only compiled engines underneath sc; each in-flight scan
// allocates its own scratch. On error, completed slots keep their results
// and the rest stay nil.
func ScanAll(ctx context.Context, jobs []Job, sc Scanner) ([][]motif.Match, error) {
	results := make([][]motif.Match, len(jobs))

	if !ShouldParallelize(len(jobs), 0) {
		for i, j := range jobs {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			ms, err := sc.Scan(j.Seq, j.Key)
			if err != nil {
				return results, err
			}
			results[i] = ms
		}
		return results, nil
	}

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(WorkerCount(len(jobs)))
	for i := range jobs {
		i := i
		p.Go(func(context.Context) error {
			ms, err := sc.Scan(jobs[i].Seq, jobs[i].Key)
			if err != nil {
				return err
			}
			results[i] = ms
			return nil
		})
	}
	err := p.Wait()
	return results, err
}
