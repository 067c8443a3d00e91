package staging

import "github.com/Sternrassler/school-directory-crawler/pkg/record"

// Memory collects records in a slice. It has the same lifecycle as Buffer
// for result sets small enough to keep resident.
type Memory struct {
	records []record.Record
	closed  bool
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Append adds records to the sink.
func (m *Memory) Append(records []record.Record) error {
	if m.closed {
		return ErrClosed
	}
	m.records = append(m.records, records...)
	return nil
}

// Lines returns the number of records held.
func (m *Memory) Lines() int {
	return len(m.records)
}

// Drain returns the collected records and closes the sink.
func (m *Memory) Drain() ([]record.Record, error) {
	if m.closed {
		return nil, ErrClosed
	}
	m.closed = true
	out := m.records
	m.records = nil
	if out == nil {
		out = []record.Record{}
	}
	return out, nil
}

// Discard drops the collected records.
func (m *Memory) Discard() error {
	m.closed = true
	m.records = nil
	return nil
}
