// Package scan holds the two scanning modes over a compiled engine: one-shot
// block scans of in-memory buffers, and streaming scans that keep backend
// state alive across chunk boundaries. Both produce raw (pattern, start,
// end) matches only; scoring and classification belong to callers.
//
// The streaming scanner solves a different problem than chunk.Coordinator:
// here the backend's own lookback bridges internal chunk seams with minimal
// memory, while the coordinator's caller-visible overlapping windows bound
// memory and enable parallelism over very long sequences. Do not conflate
// the two.
package scan
