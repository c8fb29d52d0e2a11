package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritab/internal/conformance"
	"veritab/internal/tabular"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rowRef(i int) *int {
	return &i
}

func failedReport() *conformance.ValidationReport {
	report := conformance.NewReport()
	report.Errors = append(report.Errors, conformance.ValidationError{
		RowIndex:          rowRef(1),
		Path:              "status",
		Message:           `"q" is not one of [active, closed]`,
		ValidatorKind:     conformance.KindEnum,
		ValidatorValue:    tabular.Array{tabular.String("active"), tabular.String("closed")},
		OffendingInstance: tabular.String("q"),
	})
	report.Warnings = append(report.Warnings,
		conformance.CoverageWarning{Field: "status", Message: "Enum values in schema not present in data for 'status': closed."},
		conformance.CoverageWarning{Field: "score", Message: "Data for 'score' does not sufficiently test the maximum boundary (100). Largest value found: 42.00."},
	)
	report.Coverage.Enums["status"] = conformance.EnumCoverage{
		Total: 2, Covered: 1, Missing: []tabular.Value{tabular.String("closed")},
	}
	report.Coverage.Bounds["score"] = conformance.BoundaryCoverage{
		MinConstraint:     tabular.Int(0),
		MaxConstraint:     tabular.Int(100),
		MinDataValue:      tabular.Int(0),
		MaxDataValue:      tabular.Int(42),
		MinBoundaryTested: true,
	}
	report.OverallStatus = conformance.StatusFail
	return report
}

func TestOpenCreatesNestedDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "history.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Path())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveRunDerivesFromReport(t *testing.T) {
	s := openTestStore(t)

	run := &Run{
		DataPath:   "data.csv",
		SchemaPath: "schema.yaml",
		Report:     failedReport(),
	}
	require.NoError(t, s.SaveRun(run))

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, conformance.StatusFail, run.Status)
	assert.Equal(t, 1, run.ErrorCount)
	assert.Equal(t, 2, run.WarningCount)
}

func TestGetRunRoundTrip(t *testing.T) {
	s := openTestStore(t)

	run := &Run{
		DataPath:   "data.csv",
		SchemaPath: "schema.yaml",
		Report:     failedReport(),
	}
	require.NoError(t, s.SaveRun(run))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt), "created_at changed: %v vs %v", run.CreatedAt, got.CreatedAt)
	assert.Equal(t, "data.csv", got.DataPath)
	assert.Equal(t, "schema.yaml", got.SchemaPath)
	assert.Equal(t, conformance.StatusFail, got.Status)
	assert.Equal(t, 1, got.ErrorCount)
	assert.Equal(t, 2, got.WarningCount)

	require.NotNil(t, got.Report)
	if diff := cmp.Diff(run.Report, got.Report); diff != "" {
		t.Errorf("stored report changed (-want +got):\n%s", diff)
	}
}

func TestGetRunWithoutReport(t *testing.T) {
	s := openTestStore(t)

	run := &Run{DataPath: "data.csv", Status: conformance.StatusPass}
	require.NoError(t, s.SaveRun(run))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Report)
	assert.Equal(t, conformance.StatusPass, got.Status)
	assert.Zero(t, got.ErrorCount)
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun("no-such-run")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &Run{
			ID:        fmt.Sprintf("run-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			DataPath:  fmt.Sprintf("data-%d.csv", i),
			Status:    conformance.StatusPass,
			Report:    nil,
		}
		require.NoError(t, s.SaveRun(run))
	}

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, "run-0", runs[2].ID)
	for _, r := range runs {
		assert.Nil(t, r.Report, "listings must not carry reports")
	}

	limited, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "run-2", limited[0].ID)
	assert.Equal(t, "run-1", limited[1].ID)
}

func TestListRunsEmpty(t *testing.T) {
	s := openTestStore(t)

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestPruneRuns(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveRun(&Run{
			ID:        fmt.Sprintf("run-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Status:    conformance.StatusPass,
		}))
	}

	deleted, err := s.PruneRuns(2)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)

	deleted, err = s.PruneRuns(2)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = s.PruneRuns(0)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestSaveRunKeepsExplicitID(t *testing.T) {
	s := openTestStore(t)

	run := &Run{ID: "fixed-id", Status: conformance.StatusWarnings, WarningCount: 1}
	require.NoError(t, s.SaveRun(run))

	got, err := s.GetRun("fixed-id")
	require.NoError(t, err)
	assert.Equal(t, conformance.StatusWarnings, got.Status)
	assert.Equal(t, 1, got.WarningCount)
}
