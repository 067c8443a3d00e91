package staging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Sternrassler/school-directory-crawler/pkg/record"
)

func TestBuffer_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	buf, err := New(dir, "schools")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	batches := [][]record.Record{
		{
			{"NPSN": "1", "name": "SD 1", "areaCode": "AAA"},
			{"NPSN": "2", "name": "SD 2", "areaCode": "AAA"},
		},
		{},
		{
			{"NPSN": "3", "nested": map[string]any{"k": "v"}, "tags": []any{"a", "b"}},
			{"npsn": "4", "detail_url": "u", "error": "HTTP/1.1 404 Not Found"},
			{"NPSN": "5", "count": json.Number("12"), "active": true, "missing": nil},
		},
	}

	var want []record.Record
	for _, batch := range batches {
		if err := buf.Append(batch); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		want = append(want, batch...)
	}

	if buf.Lines() != len(want) {
		t.Errorf("Lines() = %d, want %d", buf.Lines(), len(want))
	}

	got, err := buf.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Drain() = %v, want %v", got, want)
	}

	if _, err := os.Stat(buf.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging file still exists after Drain: %v", err)
	}
}

func TestBuffer_LinesOnDisk(t *testing.T) {
	buf, err := New(t.TempDir(), "detail")
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Discard()

	if err := buf.Append([]record.Record{{"a": "1"}, {"a": "2"}}); err != nil {
		t.Fatal(err)
	}
	if err := buf.Append([]record.Record{{"a": "3"}}); err != nil {
		t.Fatal(err)
	}

	// Appended batches are flushed, so the file reflects progress mid-crawl.
	data, err := os.ReadFile(buf.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("file has %d lines, want 3", len(lines))
	}
}

func TestBuffer_UniqueNames(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir, "schools")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Discard()
	b, err := New(dir, "schools")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Discard()

	if a.Path() == b.Path() {
		t.Errorf("two buffers share path %s", a.Path())
	}
	if filepath.Dir(a.Path()) != dir {
		t.Errorf("Path() = %s, want inside %s", a.Path(), dir)
	}
	if !strings.HasPrefix(filepath.Base(a.Path()), "schools-") {
		t.Errorf("Path() = %s, want schools- prefix", a.Path())
	}
}

func TestBuffer_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "staging")
	buf, err := New(dir, "x")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer buf.Discard()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("staging dir not created: %v", err)
	}
}

func TestBuffer_CreateFailure(t *testing.T) {
	// A regular file where the directory should be.
	parent := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(parent, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(filepath.Join(parent, "sub"), "x")
	if !errors.Is(err, ErrStaging) {
		t.Errorf("New() error = %v, want ErrStaging", err)
	}
}

func TestBuffer_Discard(t *testing.T) {
	buf, err := New(t.TempDir(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Append([]record.Record{{"a": "1"}}); err != nil {
		t.Fatal(err)
	}

	if err := buf.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if err := buf.Discard(); err != nil {
		t.Errorf("second Discard() error = %v", err)
	}
	if _, err := os.Stat(buf.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file still exists after Discard: %v", err)
	}
	if err := buf.Append([]record.Record{{"a": "2"}}); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Discard error = %v, want ErrClosed", err)
	}
	if _, err := buf.Drain(); !errors.Is(err, ErrClosed) {
		t.Errorf("Drain() after Discard error = %v, want ErrClosed", err)
	}
}

func TestBuffer_Abandon(t *testing.T) {
	buf, err := New(t.TempDir(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Append([]record.Record{{"a": "1"}}); err != nil {
		t.Fatal(err)
	}

	if err := buf.Abandon(); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	data, err := os.ReadFile(buf.Path())
	if err != nil {
		t.Fatalf("abandoned file unreadable: %v", err)
	}
	if strings.TrimSpace(string(data)) != `{"a":"1"}` {
		t.Errorf("abandoned file = %q", data)
	}
}

func TestBuffer_AppendEncodeFailureWritesNothing(t *testing.T) {
	buf, err := New(t.TempDir(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Append([]record.Record{{"a": "1"}}); err != nil {
		t.Fatal(err)
	}

	// The second row cannot be encoded; the first row of the batch must not reach disk.
	bad := []record.Record{{"a": "2"}, {"a": make(chan int)}}
	if err := buf.Append(bad); !errors.Is(err, ErrStaging) {
		t.Fatalf("Append() error = %v, want ErrStaging", err)
	}
	if buf.Lines() != 1 {
		t.Errorf("Lines() = %d, want 1", buf.Lines())
	}

	if err := buf.Abandon(); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	data, err := os.ReadFile(buf.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != `{"a":"1"}` {
		t.Errorf("kept file = %q, want only the completed batch", data)
	}
}

func TestBuffer_DrainCorruptLine(t *testing.T) {
	buf, err := New(t.TempDir(), "x")
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Discard()

	if err := buf.Append([]record.Record{{"a": "1"}}); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(buf.Path(), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n")
	f.Close()

	if _, err := buf.Drain(); !errors.Is(err, ErrStaging) {
		t.Errorf("Drain() error = %v, want ErrStaging", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	if err := m.Append([]record.Record{{"a": "1"}}); err != nil {
		t.Fatal(err)
	}
	if err := m.Append([]record.Record{{"a": "2"}, {"a": "3"}}); err != nil {
		t.Fatal(err)
	}
	if m.Lines() != 3 {
		t.Errorf("Lines() = %d, want 3", m.Lines())
	}

	got, err := m.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(got) != 3 || got[2]["a"] != "3" {
		t.Errorf("Drain() = %v", got)
	}
	if err := m.Append(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Drain error = %v, want ErrClosed", err)
	}
}

func TestMemory_DrainEmpty(t *testing.T) {
	got, err := NewMemory().Drain()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Drain() = %#v, want empty non-nil slice", got)
	}
}
