package tabular

// Record is one dataset row: field name to normalized value. A field
// absent from the map is treated as absent, not null; loaders that see
// an empty cell store an explicit Null instead.
type Record map[string]Value

// Get returns the value for a field and whether the field is present.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	return v, ok
}

// Dataset is an ordered sequence of records plus the ordered column
// set. The record index is load-bearing: it appears in error output.
type Dataset struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Empty reports whether the dataset has no records.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Column returns the named column in row order. Records missing the
// field contribute Null, mirroring how a frame materializes a ragged
// column.
func (d *Dataset) Column(name string) []Value {
	out := make([]Value, len(d.Records))
	for i, rec := range d.Records {
		if v, ok := rec[name]; ok && v != nil {
			out[i] = v
		} else {
			out[i] = Null{}
		}
	}
	return out
}

// HasColumn reports whether the column is part of the dataset.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Head returns the first n records (fewer when the dataset is short).
func (d *Dataset) Head(n int) []Record {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	return d.Records[:n]
}
