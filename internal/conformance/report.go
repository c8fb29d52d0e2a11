// Package conformance is the validation core: it checks every record
// of a dataset against a schema contract and measures how thoroughly
// the dataset exercises the contract's constraints. Evaluation is a
// pure function over its inputs. It performs no I/O and does not
// mutate caller-owned data.
package conformance

import (
	"encoding/json"
	"sort"

	"veritab/internal/tabular"
)

// Status is the report verdict. It is always derived from the report
// contents, never assigned directly: FAIL when any error exists, else
// WARNINGS when any warning exists, else PASS.
type Status string

const (
	StatusPass     Status = "PASS"
	StatusWarnings Status = "WARNINGS"
	StatusFail     Status = "FAIL"
)

// rank orders statuses for precedence checks (FAIL > WARNINGS > PASS).
func (s Status) rank() int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarnings:
		return 1
	default:
		return 0
	}
}

// Worse reports whether s takes precedence over other.
func (s Status) Worse(other Status) bool {
	return s.rank() > other.rank()
}

// ValidationError records one schema violation. Checking stops at the
// first violated rule within a record, so each failing record
// contributes at most one error.
type ValidationError struct {
	// RowIndex is the zero-based record position. It is nil only for
	// the terminal "no schema" error, which is not tied to a record.
	RowIndex *int `json:"row_index,omitempty"`
	// Path is the property path of the failure, "N/A" for failures at
	// the record root (required, exceptions).
	Path              string        `json:"path,omitempty"`
	Message           string        `json:"message"`
	ValidatorKind     string        `json:"validator_kind,omitempty"`
	ValidatorValue    tabular.Value `json:"validator_value,omitempty"`
	OffendingInstance tabular.Value `json:"offending_instance,omitempty"`
}

// CoverageWarning records one coverage gap. Field is "N/A" for
// warnings that consolidate several fields and empty for dataset-level
// warnings.
type CoverageWarning struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// RequiredFieldsCoverage summarizes required-field presence.
type RequiredFieldsCoverage struct {
	Total   int      `json:"total"`
	Covered int      `json:"covered"`
	Missing []string `json:"missing"`
}

// EnumCoverage summarizes how many declared enum values were observed
// for one field.
type EnumCoverage struct {
	Total   int             `json:"total"`
	Covered int             `json:"covered"`
	Missing []tabular.Value `json:"missing"`
}

// BoundaryCoverage summarizes min/max boundary proximity for one
// numeric field. Constraints are Null when undeclared.
type BoundaryCoverage struct {
	MinConstraint     tabular.Value `json:"min_constraint"`
	MaxConstraint     tabular.Value `json:"max_constraint"`
	MinDataValue      tabular.Value `json:"min_data_value"`
	MaxDataValue      tabular.Value `json:"max_data_value"`
	MinBoundaryTested bool          `json:"min_boundary_tested"`
	MaxBoundaryTested bool          `json:"max_boundary_tested"`
}

// CoverageSummary aggregates the three coverage analyses.
type CoverageSummary struct {
	RequiredFields RequiredFieldsCoverage      `json:"required_fields_coverage"`
	Enums          map[string]EnumCoverage     `json:"enum_coverage"`
	Bounds         map[string]BoundaryCoverage `json:"min_max_coverage"`
}

// ValidationReport is the full evaluation result, JSON-primitive at
// every leaf and safe to serialize as-is. One report is built per
// Evaluate call; it holds no references to caller state.
type ValidationReport struct {
	OverallStatus Status            `json:"overall_status"`
	Errors        []ValidationError `json:"errors"`
	Warnings      []CoverageWarning `json:"warnings"`
	Coverage      CoverageSummary   `json:"coverage"`
}

// NewReport returns a fresh PASS report with zeroed coverage. Slices
// and maps are allocated so the report marshals with [] and {} rather
// than null.
func NewReport() *ValidationReport {
	return &ValidationReport{
		OverallStatus: StatusPass,
		Errors:        []ValidationError{},
		Warnings:      []CoverageWarning{},
		Coverage: CoverageSummary{
			RequiredFields: RequiredFieldsCoverage{Missing: []string{}},
			Enums:          map[string]EnumCoverage{},
			Bounds:         map[string]BoundaryCoverage{},
		},
	}
}

// derive recomputes the overall status from the report contents.
func (r *ValidationReport) derive() {
	switch {
	case len(r.Errors) > 0:
		r.OverallStatus = StatusFail
	case len(r.Warnings) > 0:
		r.OverallStatus = StatusWarnings
	default:
		r.OverallStatus = StatusPass
	}
}

// finalize re-normalizes every value leaf in place, guaranteeing the
// report is JSON-primitive throughout before it reaches any consumer.
func (r *ValidationReport) finalize() {
	for i := range r.Errors {
		if r.Errors[i].ValidatorValue != nil {
			r.Errors[i].ValidatorValue = tabular.Clean(r.Errors[i].ValidatorValue)
		}
		if r.Errors[i].OffendingInstance != nil {
			r.Errors[i].OffendingInstance = tabular.Clean(r.Errors[i].OffendingInstance)
		}
	}
	for field, ec := range r.Coverage.Enums {
		for i, v := range ec.Missing {
			ec.Missing[i] = tabular.Clean(v)
		}
		r.Coverage.Enums[field] = ec
	}
	for field, bc := range r.Coverage.Bounds {
		bc.MinConstraint = tabular.Clean(bc.MinConstraint)
		bc.MaxConstraint = tabular.Clean(bc.MaxConstraint)
		bc.MinDataValue = tabular.Clean(bc.MinDataValue)
		bc.MaxDataValue = tabular.Clean(bc.MaxDataValue)
		r.Coverage.Bounds[field] = bc
	}
}

// The run history stores reports as JSON and reads them back, so the
// structs holding tabular.Value fields decode those explicitly; an
// interface field cannot be unmarshaled directly. Integral Floats come
// back as Ints, which Display and Key treat identically.

// UnmarshalJSON implements json.Unmarshaler for ValidationError.
func (e *ValidationError) UnmarshalJSON(data []byte) error {
	type alias ValidationError
	aux := struct {
		ValidatorValue    json.RawMessage `json:"validator_value"`
		OffendingInstance json.RawMessage `json:"offending_instance"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if e.ValidatorValue, err = decodeValue(aux.ValidatorValue); err != nil {
		return err
	}
	e.OffendingInstance, err = decodeValue(aux.OffendingInstance)
	return err
}

// UnmarshalJSON implements json.Unmarshaler for EnumCoverage.
func (c *EnumCoverage) UnmarshalJSON(data []byte) error {
	aux := struct {
		Total   int               `json:"total"`
		Covered int               `json:"covered"`
		Missing []json.RawMessage `json:"missing"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Total = aux.Total
	c.Covered = aux.Covered
	c.Missing = make([]tabular.Value, len(aux.Missing))
	for i, raw := range aux.Missing {
		v, err := decodeValue(raw)
		if err != nil {
			return err
		}
		c.Missing[i] = v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for BoundaryCoverage.
func (c *BoundaryCoverage) UnmarshalJSON(data []byte) error {
	aux := struct {
		MinConstraint     json.RawMessage `json:"min_constraint"`
		MaxConstraint     json.RawMessage `json:"max_constraint"`
		MinDataValue      json.RawMessage `json:"min_data_value"`
		MaxDataValue      json.RawMessage `json:"max_data_value"`
		MinBoundaryTested bool            `json:"min_boundary_tested"`
		MaxBoundaryTested bool            `json:"max_boundary_tested"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.MinBoundaryTested = aux.MinBoundaryTested
	c.MaxBoundaryTested = aux.MaxBoundaryTested
	var err error
	if c.MinConstraint, err = decodeValue(aux.MinConstraint); err != nil {
		return err
	}
	if c.MaxConstraint, err = decodeValue(aux.MaxConstraint); err != nil {
		return err
	}
	if c.MinDataValue, err = decodeValue(aux.MinDataValue); err != nil {
		return err
	}
	c.MaxDataValue, err = decodeValue(aux.MaxDataValue)
	return err
}

// decodeValue maps an absent field (empty raw) to a nil Value; a
// literal null decodes to Null.
func decodeValue(raw json.RawMessage) (tabular.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return tabular.DecodeJSON(raw)
}

// FailedRowIndices returns the sorted, de-duplicated row indices that
// appear in the report's errors.
func (r *ValidationReport) FailedRowIndices() []int {
	seen := map[int]bool{}
	var out []int
	for _, e := range r.Errors {
		if e.RowIndex == nil || seen[*e.RowIndex] {
			continue
		}
		seen[*e.RowIndex] = true
		out = append(out, *e.RowIndex)
	}
	sort.Ints(out)
	return out
}
