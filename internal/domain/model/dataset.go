package model

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
)

// Dataset is an ordered, immutable sequence of records together with the
// header order they were read with.
type Dataset struct {
	columns []string
	records []Record
}

// NewDataset builds a Dataset from column names and records. Both slices
// are copied.
func NewDataset(columns []string, records []Record) Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	recs := make([]Record, len(records))
	copy(recs, records)
	return Dataset{columns: cols, records: recs}
}

// DatasetFromRows builds a Dataset from a header and string rows. Short rows
// are padded with empty values; extra cells beyond the header are dropped.
func DatasetFromRows(header []string, rows [][]string) Dataset {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				fields[col] = row[i]
			} else {
				fields[col] = ""
			}
		}
		records = append(records, Record{fields: fields})
	}
	cols := make([]string, len(header))
	copy(cols, header)
	return Dataset{columns: cols, records: records}
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.records)
}

// At returns the i-th record.
func (d Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of the record slice.
func (d Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Columns returns the header order. When the dataset was built without a
// header the sorted union of record fields is returned.
func (d Dataset) Columns() []string {
	if len(d.columns) > 0 {
		out := make([]string, len(d.columns))
		copy(out, d.columns)
		return out
	}
	seen := make(map[string]struct{})
	for _, r := range d.records {
		for k := range r.fields {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Preview returns the first n records in order.
func (d Dataset) Preview(n int) []Record {
	if n <= 0 {
		return nil
	}
	if n > len(d.records) {
		n = len(d.records)
	}
	out := make([]Record, n)
	copy(out, d.records[:n])
	return out
}

// Rows renders the dataset as string rows in Columns() order.
func (d Dataset) Rows() [][]string {
	cols := d.Columns()
	rows := make([][]string, len(d.records))
	for i, r := range d.records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = r.fields[c]
		}
		rows[i] = row
	}
	return rows
}

// Fingerprint is a stable content hash over columns and rows. Two datasets
// with the same header and cells in the same order share a fingerprint.
func (d Dataset) Fingerprint() string {
	h := sha256.New()
	cols := d.Columns()
	writeRow(h, cols)
	for _, row := range d.Rows() {
		writeRow(h, row)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeRow(w io.Writer, cells []string) {
	for _, c := range cells {
		_, _ = io.WriteString(w, c)
		_, _ = w.Write([]byte{0x1f})
	}
	_, _ = w.Write([]byte{0x1e})
}
