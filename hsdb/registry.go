// hsdb/registry.go
package hsdb

import (
	"errors"
	"sync"

	"github.com/flier/gohs/hyperscan"
	"go.uber.org/zap"
)

const previewLimit = 5

// Info is the metadata exposed for one cached engine.
type Info struct {
	Key          string
	PatternCount int
	Preview      []string // first patterns, at most previewLimit
	Truncated    bool     // true when the set holds more than the preview
}

// Registry compiles named pattern sets into shared, immutable Engines and
// caches them by key. Construct with New, share by reference, release with
// Close. Entries persist until explicitly cleared; nothing is evicted.
type Registry struct {
	log *zap.Logger

	mu      sync.RWMutex
	engines map[string]*Engine
}

// New builds an empty registry. It fails fast with BackendUnavailableError
// when the matching backend reports no version, rather than letting every
// later compile degrade one at a time.
func New(log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if hyperscan.Version() == "" {
		return nil, &BackendUnavailableError{}
	}
	return &Registry{
		log:     log,
		engines: make(map[string]*Engine),
	}, nil
}

// Compile builds the pattern set under key, or returns the already-cached
// engine unchanged. Idempotent per key: a later call with different patterns
// under the same key does NOT recompile — clear the key first. Each pattern
// gets its list index as its numeric id. On backend failure nothing is
// cached for key.
func (r *Registry) Compile(patterns []string, key string) (*Engine, error) {
	r.mu.RLock()
	eng, ok := r.engines[key]
	r.mu.RUnlock()
	if ok {
		return eng, nil
	}

	if len(patterns) == 0 {
		return nil, &ConfigurationError{Reason: "empty pattern list for key " + key}
	}

	built, err := build(patterns, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.engines[key]; ok {
		// lost a concurrent first compile; keep the winner
		built.close()
		return cached, nil
	}
	r.engines[key] = built
	r.log.Debug("compiled pattern database",
		zap.String("key", key), zap.Int("patterns", built.count))
	return built, nil
}

// build compiles both backend databases outside any lock.
func build(patterns []string, key string) (*Engine, error) {
	pats := make([]*hyperscan.Pattern, len(patterns))
	for i, expr := range patterns {
		p := hyperscan.NewPattern(expr, patternFlags)
		p.Id = i
		pats[i] = p
	}

	block, err := hyperscan.NewBlockDatabase(pats...)
	if err != nil {
		return nil, &CompilationError{Key: key, Err: err}
	}

	builder := hyperscan.DatabaseBuilder{
		Patterns: pats,
		Mode:     hyperscan.StreamMode | hyperscan.SomHorizonLargeMode,
		Platform: hyperscan.PopulatePlatform(),
	}
	db, err := builder.Build()
	if err != nil {
		_ = block.Close()
		return nil, &CompilationError{Key: key, Err: err}
	}
	stream, ok := db.(hyperscan.StreamDatabase)
	if !ok {
		_ = block.Close()
		_ = db.Close()
		return nil, &CompilationError{Key: key, Err: errors.New("backend did not produce a stream database")}
	}

	n := len(patterns)
	pv := patterns
	truncated := false
	if n > previewLimit {
		pv = patterns[:previewLimit]
		truncated = true
	}
	return &Engine{
		key:       key,
		count:     n,
		preview:   append([]string(nil), pv...),
		truncated: truncated,
		block:     block,
		stream:    stream,
	}, nil
}

// Lookup returns the cached engine for key, if any.
func (r *Registry) Lookup(key string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.engines[key]
	return eng, ok
}

// Info reports metadata for key. The second return is false for a key that
// was never compiled (or was cleared); that is not an error.
func (r *Registry) Info(key string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.engines[key]
	if !ok {
		return Info{}, false
	}
	return Info{
		Key:          eng.key,
		PatternCount: eng.count,
		Preview:      append([]string(nil), eng.preview...),
		Truncated:    eng.truncated,
	}, true
}

// Keys returns the cached keys in no particular order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.engines))
	for k := range r.engines {
		out = append(out, k)
	}
	return out
}

// Clear removes one entry, releasing its backend databases. Clearing an
// absent key is a logged no-op.
func (r *Registry) Clear(key string) {
	r.mu.Lock()
	eng, ok := r.engines[key]
	if ok {
		delete(r.engines, key)
	}
	r.mu.Unlock()
	if !ok {
		r.log.Debug("clear of absent key", zap.String("key", key))
		return
	}
	eng.close()
}

// ClearAll removes every entry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	old := r.engines
	r.engines = make(map[string]*Engine)
	r.mu.Unlock()
	for _, eng := range old {
		eng.close()
	}
}

// Close tears the registry down. Equivalent to ClearAll; the registry stays
// usable afterwards but callers should treat it as end of lifecycle.
func (r *Registry) Close() {
	r.ClearAll()
}
