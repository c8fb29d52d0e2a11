package conformance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritab/internal/contract"
	"veritab/internal/tabular"
)

func mustSchema(t *testing.T, src string) *contract.Schema {
	t.Helper()
	s, err := contract.Parse([]byte(src))
	require.NoError(t, err, "schema should parse")
	return s
}

func dataset(records ...tabular.Record) *tabular.Dataset {
	return &tabular.Dataset{Records: records}
}

func TestCheckRecords_CleanData(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  name:
    type: string
  age:
    type: integer
    minimum: 0
required:
  - name
`)
	ds := dataset(
		tabular.Record{"name": tabular.String("alice"), "age": tabular.Int(30)},
		tabular.Record{"name": tabular.String("bob"), "age": tabular.Int(0)},
	)

	errs := CheckRecords(ds, schema)
	assert.Empty(t, errs)
}

func TestCheckRecords_TypeMismatch(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  age:
    type: integer
`)
	ds := dataset(tabular.Record{"age": tabular.String("abc")})

	errs := CheckRecords(ds, schema)
	require.Len(t, errs, 1)

	e := errs[0]
	assert.Equal(t, 0, *e.RowIndex)
	assert.Equal(t, "age", e.Path)
	assert.Equal(t, `"abc" is not of type "integer"`, e.Message)
	assert.Equal(t, KindType, e.ValidatorKind)
	assert.Equal(t, tabular.String("integer"), e.ValidatorValue)
	assert.Equal(t, tabular.String("abc"), e.OffendingInstance)
}

func TestCheckRecords_RequiredMissing(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  a:
    type: string
  b:
    type: string
required:
  - a
  - b
`)
	rec := tabular.Record{"a": tabular.String("x")}
	errs := CheckRecords(dataset(rec), schema)
	require.Len(t, errs, 1)

	e := errs[0]
	assert.Equal(t, 0, *e.RowIndex)
	assert.Equal(t, "N/A", e.Path)
	assert.Equal(t, `"b" is a required property`, e.Message)
	assert.Equal(t, KindRequired, e.ValidatorKind)
	assert.Equal(t, tabular.Array{tabular.String("a"), tabular.String("b")}, e.ValidatorValue)
	assert.Equal(t, tabular.Object(rec), e.OffendingInstance)
}

func TestCheckRecords_NullHandling(t *testing.T) {
	t.Run("nullable field accepts null and skips later rules", func(t *testing.T) {
		schema := mustSchema(t, `
type: object
properties:
  status:
    type: string
    nullable: true
    enum: [active, closed]
`)
		errs := CheckRecords(dataset(tabular.Record{"status": tabular.Null{}}), schema)
		assert.Empty(t, errs)
	})

	t.Run("null listed among types accepts null", func(t *testing.T) {
		schema := mustSchema(t, `
type: object
properties:
  status:
    type: [string, "null"]
`)
		errs := CheckRecords(dataset(tabular.Record{"status": tabular.Null{}}), schema)
		assert.Empty(t, errs)
	})

	t.Run("null against non-nullable typed field fails", func(t *testing.T) {
		schema := mustSchema(t, `
type: object
properties:
  status:
    type: string
`)
		errs := CheckRecords(dataset(tabular.Record{"status": tabular.Null{}}), schema)
		require.Len(t, errs, 1)
		assert.Equal(t, KindType, errs[0].ValidatorKind)
		assert.Equal(t, `null is not of type "string"`, errs[0].Message)
		assert.Equal(t, tabular.Null{}, errs[0].OffendingInstance)
	})

	t.Run("null with no declared type passes", func(t *testing.T) {
		schema := mustSchema(t, `
type: object
properties:
  notes:
    description: free-form
`)
		errs := CheckRecords(dataset(tabular.Record{"notes": tabular.Null{}}), schema)
		assert.Empty(t, errs)
	})
}

func TestCheckRecords_IntegerAcceptsIntegralFloat(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  count:
    type: integer
`)
	errs := CheckRecords(dataset(
		tabular.Record{"count": tabular.Float(3)},
		tabular.Record{"count": tabular.Float(3.5)},
	), schema)

	require.Len(t, errs, 1)
	assert.Equal(t, 1, *errs[0].RowIndex)
	assert.Equal(t, `3.5 is not of type "integer"`, errs[0].Message)
}

func TestCheckRecords_EnumViolation(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  status:
    type: string
    enum: [active, suspended, closed]
`)
	errs := CheckRecords(dataset(tabular.Record{"status": tabular.String("q")}), schema)
	require.Len(t, errs, 1)

	e := errs[0]
	assert.Equal(t, `"q" is not one of [active, suspended, closed]`, e.Message)
	assert.Equal(t, KindEnum, e.ValidatorKind)
	assert.Equal(t, tabular.Array{
		tabular.String("active"), tabular.String("suspended"), tabular.String("closed"),
	}, e.ValidatorValue)
}

func TestCheckRecords_EnumNumericEquality(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  level:
    enum: [1, 2, 3]
`)
	errs := CheckRecords(dataset(tabular.Record{"level": tabular.Float(2)}), schema)
	assert.Empty(t, errs, "an integral float should satisfy an integer enum value")
}

func TestCheckRecords_Bounds(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  score:
    type: integer
    minimum: 0
    maximum: 100
`)

	t.Run("below minimum", func(t *testing.T) {
		errs := CheckRecords(dataset(tabular.Record{"score": tabular.Int(-5)}), schema)
		require.Len(t, errs, 1)
		assert.Equal(t, "-5 is less than the minimum of 0", errs[0].Message)
		assert.Equal(t, KindMinimum, errs[0].ValidatorKind)
		assert.Equal(t, tabular.Float(0), errs[0].ValidatorValue)
	})

	t.Run("above maximum", func(t *testing.T) {
		errs := CheckRecords(dataset(tabular.Record{"score": tabular.Int(150)}), schema)
		require.Len(t, errs, 1)
		assert.Equal(t, "150 is greater than the maximum of 100", errs[0].Message)
		assert.Equal(t, KindMaximum, errs[0].ValidatorKind)
	})

	t.Run("boundary values pass", func(t *testing.T) {
		errs := CheckRecords(dataset(
			tabular.Record{"score": tabular.Int(0)},
			tabular.Record{"score": tabular.Int(100)},
		), schema)
		assert.Empty(t, errs)
	})
}

func TestCheckRecords_StringRules(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  code:
    type: string
    minLength: 2
    maxLength: 4
    pattern: "^[A-Z]+$"
`)

	cases := []struct {
		name    string
		value   string
		kind    string
		message string
	}{
		{"too short", "A", KindMinLength, `"A" is shorter than the minimum length of 2`},
		{"too long", "ABCDE", KindMaxLength, `"ABCDE" is longer than the maximum length of 4`},
		{"pattern mismatch", "ab", KindPattern, `"ab" does not match pattern "^[A-Z]+$"`},
		{"valid", "ABC", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := CheckRecords(dataset(tabular.Record{"code": tabular.String(tc.value)}), schema)
			if tc.kind == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.kind, errs[0].ValidatorKind)
			assert.Equal(t, tc.message, errs[0].Message)
		})
	}
}

func TestCheckRecords_MinLengthCountsRunes(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  tag:
    type: string
    minLength: 2
`)
	// Two runes, six bytes.
	errs := CheckRecords(dataset(tabular.Record{"tag": tabular.String("日本")}), schema)
	assert.Empty(t, errs)
}

func TestCheckRecords_Formats(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  joined:
    type: string
    format: date-time
  day:
    type: string
    format: date
  contact:
    type: string
    format: email
  id:
    type: string
    format: uuid
`)

	t.Run("valid formats pass", func(t *testing.T) {
		errs := CheckRecords(dataset(tabular.Record{
			"joined":  tabular.String("2024-03-15T09:30:00Z"),
			"day":     tabular.String("2024-03-15"),
			"contact": tabular.String("a@example.com"),
			"id":      tabular.String("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		}), schema)
		assert.Empty(t, errs)
	})

	t.Run("invalid date-time", func(t *testing.T) {
		errs := CheckRecords(dataset(tabular.Record{"joined": tabular.String("2024-13-99")}), schema)
		require.Len(t, errs, 1)
		assert.Equal(t, KindFormat, errs[0].ValidatorKind)
		assert.Equal(t, `"2024-13-99" is not a valid "date-time"`, errs[0].Message)
	})

	t.Run("unknown format is ignored", func(t *testing.T) {
		s := mustSchema(t, `
type: object
properties:
  ref:
    type: string
    format: iri-reference
`)
		errs := CheckRecords(dataset(tabular.Record{"ref": tabular.String("anything")}), s)
		assert.Empty(t, errs)
	})
}

func TestCheckRecords_FirstErrorPerRecord(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  name:
    type: string
  status:
    type: string
    enum: [active, closed]
  score:
    type: integer
    maximum: 100
required:
  - name
`)

	t.Run("earlier declared field wins", func(t *testing.T) {
		// status (enum) and score (maximum) both violated; status is
		// declared first so its error is the one reported.
		errs := CheckRecords(dataset(tabular.Record{
			"name":   tabular.String("x"),
			"status": tabular.String("zz"),
			"score":  tabular.Int(500),
		}), schema)
		require.Len(t, errs, 1)
		assert.Equal(t, "status", errs[0].Path)
		assert.Equal(t, KindEnum, errs[0].ValidatorKind)
	})

	t.Run("field violations precede required", func(t *testing.T) {
		// name is missing and score exceeds the maximum; the field walk
		// runs before the required pass.
		errs := CheckRecords(dataset(tabular.Record{
			"status": tabular.String("active"),
			"score":  tabular.Int(500),
		}), schema)
		require.Len(t, errs, 1)
		assert.Equal(t, KindMaximum, errs[0].ValidatorKind)
	})

	t.Run("one error per failing record", func(t *testing.T) {
		errs := CheckRecords(dataset(
			tabular.Record{"name": tabular.String("ok"), "status": tabular.String("active"), "score": tabular.Int(1)},
			tabular.Record{"name": tabular.Int(3), "status": tabular.String("zz"), "score": tabular.Int(500)},
			tabular.Record{"status": tabular.String("zz")},
		), schema)
		require.Len(t, errs, 2)
		assert.Equal(t, 1, *errs[0].RowIndex)
		assert.Equal(t, KindType, errs[0].ValidatorKind)
		assert.Equal(t, 2, *errs[1].RowIndex)
		assert.Equal(t, KindEnum, errs[1].ValidatorKind)
	})
}

func TestCheckRecords_InvalidPatternBecomesException(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  code:
    type: string
    pattern: "["
required:
  - code
`)
	errs := CheckRecords(dataset(
		tabular.Record{"code": tabular.String("abc")},
		tabular.Record{},
		tabular.Record{"code": tabular.String("def")},
	), schema)
	require.Len(t, errs, 3, "every record should still be checked")

	assert.Equal(t, KindException, errs[0].ValidatorKind)
	assert.Equal(t, "N/A", errs[0].Path)
	assert.True(t, strings.HasPrefix(errs[0].Message, "Unexpected error during validation:"), errs[0].Message)

	// The record without the pattern field never touches the bad
	// pattern and fails on required instead.
	assert.Equal(t, KindRequired, errs[1].ValidatorKind)

	assert.Equal(t, KindException, errs[2].ValidatorKind)
	assert.Equal(t, 2, *errs[2].RowIndex)
}

func TestCheckRecords_UndeclaredFieldsIgnored(t *testing.T) {
	schema := mustSchema(t, `
type: object
properties:
  name:
    type: string
`)
	errs := CheckRecords(dataset(tabular.Record{
		"name":  tabular.String("x"),
		"extra": tabular.Int(99),
	}), schema)
	assert.Empty(t, errs)
}
