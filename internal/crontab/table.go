package crontab

import "strings"

// Table is the ordered set of records of one crontab. Order mirrors the line
// order of the text it was parsed from. A Table is not safe for concurrent
// mutation; callers sharing one must lock around it.
type Table struct {
	records []*Record
}

// NewTable creates a table holding records in the given order
func NewTable(records ...*Record) *Table {
	return &Table{records: append([]*Record(nil), records...)}
}

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.records)
}

// At returns the record at index
func (t *Table) At(index int) (*Record, error) {
	if index < 0 || index >= len(t.records) {
		return nil, indexError(index, len(t.records))
	}
	return t.records[index], nil
}

// Records returns the records in table order. The slice is a copy; the
// records are shared.
func (t *Table) Records() []*Record {
	return append([]*Record(nil), t.records...)
}

// Add appends a record
func (t *Table) Add(r *Record) {
	t.records = append(t.records, r)
}

// Insert places r at index, shifting later records down. index may equal Len.
func (t *Table) Insert(index int, r *Record) error {
	if index < 0 || index > len(t.records) {
		return indexError(index, len(t.records))
	}
	t.records = append(t.records, nil)
	copy(t.records[index+1:], t.records[index:])
	t.records[index] = r
	return nil
}

// Remove deletes and returns the record at index. An invalid index leaves the
// table unchanged.
func (t *Table) Remove(index int) (*Record, error) {
	if index < 0 || index >= len(t.records) {
		return nil, indexError(index, len(t.records))
	}
	r := t.records[index]
	t.records = append(t.records[:index], t.records[index+1:]...)
	return r, nil
}

// Replace swaps the record at index for r.
func (t *Table) Replace(index int, r *Record) error {
	if index < 0 || index >= len(t.records) {
		return indexError(index, len(t.records))
	}
	t.records[index] = r
	return nil
}

// String serializes the table
func (t *Table) String() string {
	return SerializeTable(t.records)
}

// SerializeTable writes one line per record, each terminated by a newline.
// An empty slice yields an empty string.
func SerializeTable(records []*Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
