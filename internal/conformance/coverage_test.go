package conformance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritab/internal/tabular"
)

func analyze(t *testing.T, schemaSrc string, records ...tabular.Record) *ValidationReport {
	t.Helper()
	report := NewReport()
	AnalyzeCoverage(dataset(records...), mustSchema(t, schemaSrc), report)
	return report
}

func TestAnalyzeCoverage_RequiredAllCovered(t *testing.T) {
	report := analyze(t, `
type: object
properties:
  a:
    type: string
  b:
    type: string
required:
  - a
  - b
`,
		tabular.Record{"a": tabular.String("x")},
		tabular.Record{"b": tabular.String("y")},
	)

	rc := report.Coverage.RequiredFields
	assert.Equal(t, 2, rc.Total)
	assert.Equal(t, 2, rc.Covered)
	assert.Empty(t, rc.Missing)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeCoverage_RequiredMissingAndNull(t *testing.T) {
	// b is entirely null, c never appears. Both count as missing and
	// share one consolidated warning, in the required list's order.
	report := analyze(t, `
type: object
properties:
  a:
    type: string
  b:
    type: string
  c:
    type: string
required:
  - a
  - b
  - c
`,
		tabular.Record{"a": tabular.String("x"), "b": tabular.Null{}},
		tabular.Record{"a": tabular.String("y"), "b": tabular.Null{}},
	)

	rc := report.Coverage.RequiredFields
	assert.Equal(t, 3, rc.Total)
	assert.Equal(t, 1, rc.Covered)
	assert.Equal(t, []string{"b", "c"}, rc.Missing)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "N/A", report.Warnings[0].Field)
	assert.Equal(t, "Missing or entirely null required fields: b, c.", report.Warnings[0].Message)
}

func TestAnalyzeCoverage_EnumGaps(t *testing.T) {
	report := analyze(t, `
type: object
properties:
  status:
    type: string
    enum: [x, y, z]
`,
		tabular.Record{"status": tabular.String("x")},
		tabular.Record{"status": tabular.String("x")},
		tabular.Record{"status": tabular.Null{}},
	)

	ec, ok := report.Coverage.Enums["status"]
	require.True(t, ok)
	assert.Equal(t, 3, ec.Total)
	assert.Equal(t, 1, ec.Covered)
	assert.Equal(t, []tabular.Value{tabular.String("y"), tabular.String("z")}, ec.Missing)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "status", report.Warnings[0].Field)
	assert.Equal(t, "Enum values in schema not present in data for 'status': y, z.", report.Warnings[0].Message)
}

func TestAnalyzeCoverage_EnumFullyCovered(t *testing.T) {
	report := analyze(t, `
type: object
properties:
  status:
    type: string
    enum: [a, b]
`,
		tabular.Record{"status": tabular.String("a")},
		tabular.Record{"status": tabular.String("b")},
	)

	ec, ok := report.Coverage.Enums["status"]
	require.True(t, ok, "fully covered enums are still recorded")
	assert.Equal(t, 2, ec.Covered)
	assert.Empty(t, ec.Missing)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeCoverage_EnumNumericEquality(t *testing.T) {
	// An observed integer covers a declared float of the same value.
	report := analyze(t, `
type: object
properties:
  level:
    enum: [1.0, 2.0]
`,
		tabular.Record{"level": tabular.Int(1)},
	)

	ec := report.Coverage.Enums["level"]
	assert.Equal(t, 1, ec.Covered)
	require.Len(t, ec.Missing, 1)
	assert.Equal(t, tabular.Float(2), ec.Missing[0])
}

func TestAnalyzeCoverage_BoundsTested(t *testing.T) {
	report := analyze(t, `
type: object
properties:
  score:
    type: integer
    minimum: 0
    maximum: 100
`,
		tabular.Record{"score": tabular.Int(0)},
		tabular.Record{"score": tabular.Int(50)},
		tabular.Record{"score": tabular.Int(100)},
	)

	bc, ok := report.Coverage.Bounds["score"]
	require.True(t, ok)
	assert.True(t, bc.MinBoundaryTested)
	assert.True(t, bc.MaxBoundaryTested)
	assert.Equal(t, tabular.Float(0), bc.MinConstraint)
	assert.Equal(t, tabular.Float(100), bc.MaxConstraint)
	assert.Equal(t, tabular.Float(0), bc.MinDataValue)
	assert.Equal(t, tabular.Float(100), bc.MaxDataValue)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeCoverage_BoundsUntested(t *testing.T) {
	// Range 0..100 gives a tolerance of 1; extremes 10 and 90 sit far
	// outside both bands.
	report := analyze(t, `
type: object
properties:
  score:
    type: integer
    minimum: 0
    maximum: 100
`,
		tabular.Record{"score": tabular.Int(10)},
		tabular.Record{"score": tabular.Int(90)},
	)

	bc := report.Coverage.Bounds["score"]
	assert.False(t, bc.MinBoundaryTested)
	assert.False(t, bc.MaxBoundaryTested)

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, "score", report.Warnings[0].Field)
	assert.Equal(t,
		"Data for 'score' does not sufficiently test the minimum boundary (0). Smallest value found: 10.00.",
		report.Warnings[0].Message)
	assert.Equal(t,
		"Data for 'score' does not sufficiently test the maximum boundary (100). Largest value found: 90.00.",
		report.Warnings[1].Message)
}

func TestAnalyzeCoverage_BoundsWithinTolerance(t *testing.T) {
	// Tolerance is 1% of the range (= 1 here); 0.5 from the bound is
	// inside the band on the interior side.
	report := analyze(t, `
type: object
properties:
  score:
    type: number
    minimum: 0
    maximum: 100
`,
		tabular.Record{"score": tabular.Float(0.5)},
		tabular.Record{"score": tabular.Float(99.5)},
	)

	bc := report.Coverage.Bounds["score"]
	assert.True(t, bc.MinBoundaryTested)
	assert.True(t, bc.MaxBoundaryTested)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeCoverage_SingleBound(t *testing.T) {
	// Only a minimum: absolute tolerance of 0.01 applies and the
	// absent maximum counts as tested.
	report := analyze(t, `
type: object
properties:
  balance:
    type: number
    minimum: 0
`,
		tabular.Record{"balance": tabular.Float(0.005)},
		tabular.Record{"balance": tabular.Float(12000)},
	)

	bc, ok := report.Coverage.Bounds["balance"]
	require.True(t, ok)
	assert.True(t, bc.MinBoundaryTested)
	assert.True(t, bc.MaxBoundaryTested)
	assert.Equal(t, tabular.Null{}, bc.MaxConstraint)
	assert.Equal(t, tabular.Float(12000), bc.MaxDataValue)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeCoverage_BoundsNoNumericData(t *testing.T) {
	report := analyze(t, `
type: object
properties:
  score:
    type: integer
    minimum: 0
    maximum: 100
`,
		tabular.Record{"score": tabular.Null{}},
		tabular.Record{"score": tabular.String("n/a")},
		tabular.Record{},
	)

	_, ok := report.Coverage.Bounds["score"]
	assert.False(t, ok, "no entry is recorded without numeric data")

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "score", report.Warnings[0].Field)
	assert.Equal(t,
		"Min/Max constraints for 'score' defined in schema but no numeric data found to test them.",
		report.Warnings[0].Message)
}

func TestAnalyzeCoverage_WarningOrder(t *testing.T) {
	// Required gaps come first, then enum gaps, then boundary gaps,
	// fields in declaration order throughout.
	report := analyze(t, `
type: object
properties:
  status:
    type: string
    enum: [a, b]
  score:
    type: integer
    minimum: 0
    maximum: 100
  owner:
    type: string
required:
  - owner
`,
		tabular.Record{"status": tabular.String("a"), "score": tabular.Int(50)},
	)

	require.Len(t, report.Warnings, 4)
	assert.Equal(t, "Missing or entirely null required fields: owner.", report.Warnings[0].Message)
	assert.Equal(t, "Enum values in schema not present in data for 'status': b.", report.Warnings[1].Message)
	assert.Contains(t, report.Warnings[2].Message, "minimum boundary (0)")
	assert.Contains(t, report.Warnings[3].Message, "maximum boundary (100)")
}
