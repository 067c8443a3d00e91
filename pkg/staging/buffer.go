// Package staging spools crawl results to newline-delimited JSON on disk
// between batches and reads them back when the crawl finishes.
package staging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/school-directory-crawler/pkg/record"
)

// ErrStaging wraps every failure to create, write, read or remove a staging file.
var ErrStaging = errors.New("staging")

// ErrClosed is returned by Append after the buffer was drained or discarded.
var ErrClosed = errors.New("staging buffer closed")

// Buffer is an append-only JSON lines file owned by a single crawl.
// It is not safe for concurrent use; batches append one after another.
type Buffer struct {
	path   string
	file   *os.File
	w      *bufio.Writer
	lines  int
	closed bool
}

// New creates a uniquely named staging file in dir. An empty dir means the
// OS temp directory. The directory is created if missing.
func New(dir, prefix string) (*Buffer, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create dir %s: %w", ErrStaging, dir, err)
	}

	f, err := os.CreateTemp(dir, prefix+"-*.jsonl")
	if err != nil {
		return nil, fmt.Errorf("%w: create file: %w", ErrStaging, err)
	}

	return &Buffer{
		path: f.Name(),
		file: f,
		w:    bufio.NewWriter(f),
	}, nil
}

// Path returns the staging file location.
func (b *Buffer) Path() string {
	return b.path
}

// Lines returns the number of records written so far.
func (b *Buffer) Lines() int {
	return b.lines
}

// Append writes one line per record and flushes, so a completed batch is on
// disk before the next one starts. A batch that fails to encode writes nothing.
func (b *Buffer) Append(records []record.Record) error {
	if b.closed {
		return ErrClosed
	}

	var batch bytes.Buffer
	enc := json.NewEncoder(&batch)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("%w: encode record %d of batch: %w", ErrStaging, i+1, err)
		}
	}
	if _, err := b.w.Write(batch.Bytes()); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStaging, b.path, err)
	}
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStaging, b.path, err)
	}

	b.lines += len(records)
	stagedRecords.Add(float64(len(records)))
	return nil
}

// Drain reads every staged record back and deletes the file.
// The buffer cannot be used afterwards.
func (b *Buffer) Drain() ([]record.Record, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if err := b.w.Flush(); err != nil {
		return nil, fmt.Errorf("%w: flush %s: %w", ErrStaging, b.path, err)
	}
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind %s: %w", ErrStaging, b.path, err)
	}

	records := make([]record.Record, 0, b.lines)
	reader := bufio.NewReader(b.file)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			r, decErr := decodeLine(line)
			if decErr != nil {
				return nil, fmt.Errorf("%w: line %d of %s: %w", ErrStaging, len(records)+1, b.path, decErr)
			}
			records = append(records, r)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrStaging, b.path, err)
		}
	}

	if err := b.Discard(); err != nil {
		return nil, err
	}
	return records, nil
}

// Discard closes and removes the staging file. It is safe to call more than
// once and after Drain.
func (b *Buffer) Discard() error {
	if b.closed {
		return nil
	}
	b.closed = true

	closeErr := b.file.Close()
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", ErrStaging, b.path, err)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStaging, b.path, closeErr)
	}
	return nil
}

// Abandon closes the file but leaves it on disk for inspection.
func (b *Buffer) Abandon() error {
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.w.Flush(); err != nil {
		b.file.Close()
		return fmt.Errorf("%w: flush %s: %w", ErrStaging, b.path, err)
	}
	if err := b.file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStaging, b.path, err)
	}
	return nil
}

func decodeLine(line []byte) (record.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var r record.Record
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	return r, nil
}
