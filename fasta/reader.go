// fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"strings"
)

// Record is one parsed FASTA sequence.
type Record struct {
	ID  string
	Seq []byte
}

// Open returns a reader for path. "-" means stdin; ".gz" is decompressed
// transparently.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	}
	return fh, nil
}

// StreamRecords parses FASTA from r and calls emit once per record, holding
// only one record's sequence in memory at a time. Sequence bytes are
// uppercased; the ID is the first whitespace-separated header field. It is
// cancelable between records.
func StreamRecords(ctx context.Context, r io.Reader, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		id      string
		seq     = make([]byte, 0, 1<<20)
		started bool
	)

	flush := func() error {
		if !started {
			return nil
		}
		return emit(Record{ID: id, Seq: bytes.Clone(seq)})
	}

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) > 0 && line[0] == '>' {
			if err := flush(); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			fields := strings.Fields(string(line[1:]))
			if len(fields) > 0 {
				id = fields[0]
			} else {
				id = ""
			}
			seq = seq[:0]
			started = true
			continue
		}
		seq = append(seq, bytes.ToUpper(line)...)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}

// ReadRecords slurps every record from r.
func ReadRecords(r io.Reader) ([]Record, error) {
	var out []Record
	err := StreamRecords(context.Background(), r, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}
