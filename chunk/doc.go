// Package chunk splits very long sequences into overlapping windows, fans
// the window scans out over a Scanner, and fans the results back in through
// a sort/de-duplicate merge. Provided the overlap is at least the longest
// motif minus one, any motif whose span fits in the sequence is reported
// exactly once with correct absolute coordinates.
package chunk
