package tabular

import (
	"github.com/araddon/dateparse"
)

// ColumnProfile names a column and its inferred kind.
type ColumnProfile struct {
	Name string `json:"name"`
	Kind string `json:"type"`
}

// DatasetProfile is the compact dataset summary passed to the AI
// assistant instead of the full dataset: column kinds plus a few
// sample records.
type DatasetProfile struct {
	Columns    []ColumnProfile `json:"columns"`
	SampleData []Record        `json:"sample_data"`
}

// Profile summarizes a dataset: per-column kind inference and the
// first sampleRows records.
func Profile(ds *Dataset, sampleRows int) DatasetProfile {
	if ds == nil || ds.Empty() {
		return DatasetProfile{Columns: []ColumnProfile{}, SampleData: []Record{}}
	}
	cols := make([]ColumnProfile, 0, len(ds.Columns))
	for _, name := range ds.Columns {
		cols = append(cols, ColumnProfile{Name: name, Kind: kindOf(ds.Column(name))})
	}
	return DatasetProfile{Columns: cols, SampleData: ds.Head(sampleRows)}
}

// kindOf classifies a column: "int", "float", "bool", "string",
// "time", "array", "object", "null" (all null), or "mixed". A mix of
// Int and Float reads as "float", the way a frame widens a gappy
// integer column. String columns whose every value parses as a
// timestamp read as "time".
func kindOf(vals []Value) string {
	var ints, floats, bools, strs, arrs, objs, nonNull int
	timeLike := true
	for _, v := range vals {
		switch x := v.(type) {
		case nil, Null:
			continue
		case Int:
			ints++
		case Float:
			floats++
		case Bool:
			bools++
		case String:
			strs++
			if _, err := dateparse.ParseAny(string(x)); err != nil {
				timeLike = false
			}
		case Array:
			arrs++
		case Object:
			objs++
		}
		nonNull++
	}
	switch {
	case nonNull == 0:
		return "null"
	case ints+floats == nonNull:
		if floats > 0 {
			return "float"
		}
		return "int"
	case bools == nonNull:
		return "bool"
	case strs == nonNull:
		if timeLike {
			return "time"
		}
		return "string"
	case arrs == nonNull:
		return "array"
	case objs == nonNull:
		return "object"
	default:
		return "mixed"
	}
}
