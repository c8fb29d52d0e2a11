package export

import (
	"bytes"
	"encoding/csv"
	"sort"

	"veritab/internal/conformance"
	"veritab/internal/tabular"
)

// FailedRowsCSV renders the dataset rows referenced by the errors as
// CSV with one header row in the dataset's column order. Indices are
// de-duplicated and sorted; out-of-range indices are skipped. It
// returns nil when the dataset is empty or no error carries a row
// index.
func FailedRowsCSV(ds *tabular.Dataset, errs []conformance.ValidationError) ([]byte, error) {
	if ds == nil || ds.Empty() {
		return nil, nil
	}
	seen := map[int]bool{}
	var indices []int
	for _, e := range errs {
		if e.RowIndex == nil || seen[*e.RowIndex] {
			continue
		}
		seen[*e.RowIndex] = true
		if *e.RowIndex >= 0 && *e.RowIndex < len(ds.Records) {
			indices = append(indices, *e.RowIndex)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	sort.Ints(indices)

	records := make([]tabular.Record, 0, len(indices))
	for _, i := range indices {
		records = append(records, ds.Records[i])
	}
	return writeCSV(ds.Columns, records)
}

// CasesCSV renders generated records as CSV in the dataset's column
// order (first-seen across records). It returns nil when there is
// nothing to write.
func CasesCSV(cases *tabular.Dataset) ([]byte, error) {
	if cases == nil || cases.Empty() {
		return nil, nil
	}
	return writeCSV(cases.Columns, cases.Records)
}

func writeCSV(columns []string, records []tabular.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = cell(rec[col])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cell renders one CSV cell. Absent and null values become the empty
// cell rather than a literal "null".
func cell(v tabular.Value) string {
	switch v.(type) {
	case nil, tabular.Null:
		return ""
	}
	return tabular.Display(v)
}
