// fasta/chunks.go
package fasta

import (
	"context"
	"fmt"
	"io"
)

// StreamChunks parses FASTA from r and calls emit once per record with the
// record's ID and a channel delivering its sequence in pieces of at most
// chunkSize bytes, closed after the last piece. The channel plugs straight
// into scan.StreamScanner.ScanChunks, so a record far larger than one
// buffer can be scanned without ever holding more than one record in
// memory here. emit returning early (error or not) stops delivery for that
// record; a non-nil error aborts the whole stream.
func StreamChunks(ctx context.Context, r io.Reader, chunkSize int, emit func(id string, chunks <-chan []byte) error) error {
	if chunkSize <= 0 {
		return fmt.Errorf("chunk size %d must be positive", chunkSize)
	}
	return StreamRecords(ctx, r, func(rec Record) error {
		return feedRecord(ctx, rec, chunkSize, emit)
	})
}

func feedRecord(ctx context.Context, rec Record, chunkSize int, emit func(string, <-chan []byte) error) error {
	ch := make(chan []byte)
	done := make(chan error, 1)
	go func() { done <- emit(rec.ID, ch) }()

	var ferr error
feed:
	for off := 0; off < len(rec.Seq); off += chunkSize {
		end := off + chunkSize
		if end > len(rec.Seq) {
			end = len(rec.Seq)
		}
		select {
		case ch <- rec.Seq[off:end]:
		case err := <-done:
			// consumer finished before draining the record
			return err
		case <-ctx.Done():
			ferr = ctx.Err()
			break feed
		}
	}
	close(ch)
	if err := <-done; ferr == nil {
		ferr = err
	}
	return ferr
}
