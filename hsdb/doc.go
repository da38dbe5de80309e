// Package hsdb owns every direct call into the Hyperscan matching backend:
// pattern compilation, the per-key engine cache, and scratch allocation.
// It never imports scan, chunk, or dispatch; keep it backend-only.
//
// Engines are immutable after Compile and shared read-only by any number of
// concurrent scans. All mutable scan state is a ScanState, allocated per
// call and never shared.
package hsdb
