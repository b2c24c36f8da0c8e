package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

const fixture = `TIMESTAMP,LATITUDE,LONGITUDE,FREEWAY_ID,FREEWAY_DIR,LANE,SPEED
2008-11-01 00:00:00,32.749679,-117.155519,163,S,1,71.2
2008-11-01 00:00:00,32.749679,-117.155519,163,S,2,65.4

2008-11-01 00:00:20,32.780413,-117.093983,8,W,1,58.0
`

func drain(t *testing.T, s Source) []string {
	t.Helper()
	var out []string
	for {
		line, err := s.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, string(line))
	}
}

func TestLineSource_SkipsHeaderAndBlankLines(t *testing.T) {
	s := NewReader(strings.NewReader(fixture))
	lines := drain(t, s)
	if len(lines) != 3 {
		t.Fatalf("got %d records, want 3: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[2], "2008-11-01 00:00:20") {
		t.Errorf("last record = %q", lines[2])
	}

	header, err := s.Header()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(header), "TIMESTAMP") {
		t.Errorf("Header() = %q", header)
	}
}

func TestLineSource_PeekDoesNotConsume(t *testing.T) {
	s := NewReader(strings.NewReader(fixture))

	for i := 0; i < 3; i++ {
		ts, err := s.PeekTimestamp()
		if err != nil {
			t.Fatalf("PeekTimestamp() error = %v", err)
		}
		if want := time.Date(2008, 11, 1, 0, 0, 0, 0, time.UTC); !ts.Equal(want) {
			t.Errorf("PeekTimestamp() = %v, want %v", ts, want)
		}
	}
	if got := drain(t, s); len(got) != 3 {
		t.Errorf("got %d records after peeking, want 3", len(got))
	}
	if _, err := s.PeekTimestamp(); err != io.EOF {
		t.Errorf("PeekTimestamp() on exhausted source = %v, want io.EOF", err)
	}
}

func TestLineSource_PeekMalformed(t *testing.T) {
	s := NewReader(strings.NewReader("header\nnot a timestamp,1,2\n"))
	if _, err := s.PeekTimestamp(); !errors.Is(err, record.ErrMalformed) {
		t.Errorf("PeekTimestamp() error = %v, want ErrMalformed", err)
	}
}

func TestLineSource_HeaderOnly(t *testing.T) {
	for _, in := range []string{"", "TIMESTAMP,SPEED", "TIMESTAMP,SPEED\n"} {
		s := NewReader(strings.NewReader(in))
		if _, err := s.Next(); err != io.EOF {
			t.Errorf("Next() on %q = %v, want io.EOF", in, err)
		}
	}
}

func TestLineSource_NoTrailingNewline(t *testing.T) {
	s := NewReader(strings.NewReader("h\r\n2008-11-01 00:00:00,1,2,3,N,1,5\r\n2008-11-01 00:00:01,1,2,3,N,1,6"))
	got := drain(t, s)
	want := []string{"2008-11-01 00:00:00,1,2,3,N,1,5", "2008-11-01 00:00:01,1,2,3,N,1,6"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOpen_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(fixture)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "sensor_obs.csv.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if got := drain(t, s); len(got) != 3 {
		t.Errorf("got %d records, want 3", len(got))
	}
}

func TestOpen_PlainAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor_obs.csv")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := drain(t, s); len(got) != 3 {
		t.Errorf("got %d records, want 3", len(got))
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.csv.gz")); err == nil {
		t.Error("Open() on missing file should fail")
	}
}
