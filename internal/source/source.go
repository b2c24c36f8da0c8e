// Package source reads raw sensor records from CSV files in observation order.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

// Source yields raw records one at a time, oldest first.
type Source interface {
	// PeekTimestamp returns the observation time of the next record
	// without consuming it. It returns io.EOF when no records remain.
	PeekTimestamp() (time.Time, error)
	// Next consumes and returns the next raw record. It returns io.EOF
	// when the source is exhausted.
	Next() ([]byte, error)
}

// LineSource reads newline-delimited records after a single header line.
// Blank lines are ignored.
type LineSource struct {
	r       *bufio.Reader
	closers []io.Closer

	headerRead bool
	header     []byte
	pending    []byte
	hasPending bool
	eof        bool
}

// NewReader creates a LineSource over r. The first line of r is treated as
// a header and is never returned as a record.
func NewReader(r io.Reader) *LineSource {
	return &LineSource{r: bufio.NewReaderSize(r, 64*1024)}
}

// Open opens a CSV file. Files ending in .gz are decompressed transparently.
func Open(path string) (*LineSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}

	if !strings.HasSuffix(path, ".gz") {
		s := NewReader(f)
		s.closers = []io.Closer{f}
		return s, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("opening gzip source %s: %w", path, err)
	}
	s := NewReader(zr)
	s.closers = []io.Closer{zr, f}
	return s, nil
}

// Header returns the skipped header line, reading it if necessary.
func (s *LineSource) Header() ([]byte, error) {
	if err := s.skipHeader(); err != nil {
		return nil, err
	}
	return s.header, nil
}

// PeekTimestamp implements Source.
func (s *LineSource) PeekTimestamp() (time.Time, error) {
	line, err := s.peek()
	if err != nil {
		return time.Time{}, err
	}
	return record.ParseTimestamp(line)
}

// Next implements Source.
func (s *LineSource) Next() ([]byte, error) {
	line, err := s.peek()
	if err != nil {
		return nil, err
	}
	s.pending = nil
	s.hasPending = false
	return line, nil
}

// Close releases the underlying file and decompressor, if any.
func (s *LineSource) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *LineSource) peek() ([]byte, error) {
	if s.hasPending {
		return s.pending, nil
	}
	if err := s.skipHeader(); err != nil {
		return nil, err
	}
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		s.pending = line
		s.hasPending = true
		return line, nil
	}
}

func (s *LineSource) skipHeader() error {
	if s.headerRead {
		return nil
	}
	line, err := s.readLine()
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading header: %w", err)
	}
	s.header = line
	s.headerRead = true
	return nil
}

// readLine returns the next line without its terminator, or io.EOF.
func (s *LineSource) readLine() ([]byte, error) {
	if s.eof {
		return nil, io.EOF
	}
	line, err := s.r.ReadBytes('\n')
	if err == io.EOF {
		s.eof = true
		if len(line) == 0 {
			return nil, io.EOF
		}
	} else if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}
