package conformance

import (
	"fmt"
	"net/mail"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"veritab/internal/contract"
	"veritab/internal/tabular"
)

// Validator kinds, matching the schema keyword that was violated.
const (
	KindType      = "type"
	KindRequired  = "required"
	KindEnum      = "enum"
	KindMinimum   = "minimum"
	KindMaximum   = "maximum"
	KindMinLength = "minLength"
	KindMaxLength = "maxLength"
	KindPattern   = "pattern"
	KindFormat    = "format"
	KindException = "exception"
)

// checker carries per-run state for the conformance pass. Compiled
// patterns are cached for the run; the cache never outlives one
// Evaluate call.
type checker struct {
	schema   *contract.Schema
	patterns map[string]*regexp.Regexp
}

// CheckRecords validates every record in index order. At most one
// violation is captured per failing record: checking stops at the
// first rule violated (fields in declaration order, then the required
// set) and resumes at the next record. An unexpected failure while
// checking one record is demoted to an "exception" error instead of
// aborting the batch.
func CheckRecords(ds *tabular.Dataset, schema *contract.Schema) []ValidationError {
	c := &checker{schema: schema, patterns: map[string]*regexp.Regexp{}}
	errs := []ValidationError{}
	for i, rec := range ds.Records {
		if e := c.checkRecord(i, rec); e != nil {
			errs = append(errs, *e)
		}
	}
	return errs
}

func (c *checker) checkRecord(row int, rec tabular.Record) (verr *ValidationError) {
	defer func() {
		if p := recover(); p != nil {
			verr = &ValidationError{
				RowIndex:      intPtr(row),
				Path:          "N/A",
				Message:       fmt.Sprintf("Unexpected error during validation: %v", p),
				ValidatorKind: KindException,
			}
		}
	}()

	for _, name := range c.schema.FieldNames {
		v, present := rec.Get(name)
		if !present {
			continue
		}
		pc, _ := c.schema.Field(name)
		if e := c.checkValue(name, v, pc); e != nil {
			e.RowIndex = intPtr(row)
			return e
		}
	}

	for _, name := range c.schema.Required {
		if _, present := rec.Get(name); !present {
			return &ValidationError{
				RowIndex:          intPtr(row),
				Path:              "N/A",
				Message:           fmt.Sprintf("%q is a required property", name),
				ValidatorKind:     KindRequired,
				ValidatorValue:    requiredList(c.schema.Required),
				OffendingInstance: tabular.Object(rec),
			}
		}
	}
	return nil
}

// checkValue applies one field's rules in fixed order: type, enum,
// minimum, maximum, minLength, maxLength, pattern, format. Numeric
// bounds apply only to numbers and length/pattern/format only to
// strings, so a type mismatch surfaces as a type violation rather than
// a misleading secondary one.
func (c *checker) checkValue(name string, v tabular.Value, pc contract.PropertyConstraint) *ValidationError {
	if tabular.IsNull(v) {
		// A null passes when the field is nullable or "null" is among
		// its declared types; no further rules apply to null.
		if pc.Nullable || pc.HasType("null") || len(pc.Types) == 0 {
			return nil
		}
		return &ValidationError{
			Path:              name,
			Message:           fmt.Sprintf("null is not of type %s", typeList(pc.Types)),
			ValidatorKind:     KindType,
			ValidatorValue:    typesValue(pc.Types),
			OffendingInstance: tabular.Null{},
		}
	}

	if len(pc.Types) > 0 && !typeMatches(v, pc.Types) {
		return &ValidationError{
			Path:              name,
			Message:           fmt.Sprintf("%s is not of type %s", quoteVal(v), typeList(pc.Types)),
			ValidatorKind:     KindType,
			ValidatorValue:    typesValue(pc.Types),
			OffendingInstance: v,
		}
	}

	if len(pc.Enum) > 0 && !enumContains(pc.Enum, v) {
		return &ValidationError{
			Path:              name,
			Message:           fmt.Sprintf("%s is not one of [%s]", quoteVal(v), tabular.DisplayList(pc.Enum)),
			ValidatorKind:     KindEnum,
			ValidatorValue:    tabular.Array(pc.Enum),
			OffendingInstance: v,
		}
	}

	if n, isNum := tabular.AsNumber(v); isNum {
		if pc.Minimum != nil && n < *pc.Minimum {
			return &ValidationError{
				Path:              name,
				Message:           fmt.Sprintf("%s is less than the minimum of %s", quoteVal(v), tabular.Display(tabular.Float(*pc.Minimum))),
				ValidatorKind:     KindMinimum,
				ValidatorValue:    tabular.Float(*pc.Minimum),
				OffendingInstance: v,
			}
		}
		if pc.Maximum != nil && n > *pc.Maximum {
			return &ValidationError{
				Path:              name,
				Message:           fmt.Sprintf("%s is greater than the maximum of %s", quoteVal(v), tabular.Display(tabular.Float(*pc.Maximum))),
				ValidatorKind:     KindMaximum,
				ValidatorValue:    tabular.Float(*pc.Maximum),
				OffendingInstance: v,
			}
		}
	}

	if s, isStr := v.(tabular.String); isStr {
		if e := c.checkString(name, s, pc); e != nil {
			return e
		}
	}
	return nil
}

func (c *checker) checkString(name string, s tabular.String, pc contract.PropertyConstraint) *ValidationError {
	length := utf8.RuneCountInString(string(s))
	if pc.MinLength != nil && length < *pc.MinLength {
		return &ValidationError{
			Path:              name,
			Message:           fmt.Sprintf("%s is shorter than the minimum length of %d", quoteVal(s), *pc.MinLength),
			ValidatorKind:     KindMinLength,
			ValidatorValue:    tabular.Int(*pc.MinLength),
			OffendingInstance: s,
		}
	}
	if pc.MaxLength != nil && length > *pc.MaxLength {
		return &ValidationError{
			Path:              name,
			Message:           fmt.Sprintf("%s is longer than the maximum length of %d", quoteVal(s), *pc.MaxLength),
			ValidatorKind:     KindMaxLength,
			ValidatorValue:    tabular.Int(*pc.MaxLength),
			OffendingInstance: s,
		}
	}
	if pc.Pattern != "" {
		re, err := c.compile(pc.Pattern)
		if err != nil {
			// An uncompilable pattern is a schema defect, not a data
			// violation; surface it through the exception path.
			panic(fmt.Sprintf("invalid pattern %q for %q: %v", pc.Pattern, name, err))
		}
		if !re.MatchString(string(s)) {
			return &ValidationError{
				Path:              name,
				Message:           fmt.Sprintf("%s does not match pattern %q", quoteVal(s), pc.Pattern),
				ValidatorKind:     KindPattern,
				ValidatorValue:    tabular.String(pc.Pattern),
				OffendingInstance: s,
			}
		}
	}
	if pc.Format != "" && !formatMatches(pc.Format, string(s)) {
		return &ValidationError{
			Path:              name,
			Message:           fmt.Sprintf("%s is not a valid %q", quoteVal(s), pc.Format),
			ValidatorKind:     KindFormat,
			ValidatorValue:    tabular.String(pc.Format),
			OffendingInstance: s,
		}
	}
	return nil
}

func (c *checker) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := c.patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.patterns[pattern] = re
	return re, nil
}

// typeMatches reports whether the value satisfies one of the declared
// JSON Schema types. An integral Float counts as "integer", matching
// how JSON cannot distinguish 3 from 3.0.
func typeMatches(v tabular.Value, types []string) bool {
	for _, t := range types {
		switch t {
		case "string":
			if _, ok := v.(tabular.String); ok {
				return true
			}
		case "integer":
			if _, ok := v.(tabular.Int); ok {
				return true
			}
			if f, ok := v.(tabular.Float); ok && float64(f) == float64(int64(f)) {
				return true
			}
		case "number":
			if _, ok := tabular.AsNumber(v); ok {
				return true
			}
		case "boolean":
			if _, ok := v.(tabular.Bool); ok {
				return true
			}
		case "array":
			if _, ok := v.(tabular.Array); ok {
				return true
			}
		case "object":
			if _, ok := v.(tabular.Object); ok {
				return true
			}
		case "null":
			if tabular.IsNull(v) {
				return true
			}
		}
	}
	return false
}

func enumContains(enum []tabular.Value, v tabular.Value) bool {
	key := tabular.Key(v)
	for _, e := range enum {
		if tabular.Key(e) == key {
			return true
		}
	}
	return false
}

// formatMatches checks the formats a tabular contract meaningfully
// declares. Unknown formats pass, mirroring validators that treat
// format as an annotation unless they recognize it.
func formatMatches(format, s string) bool {
	switch format {
	case "date-time":
		_, err := time.Parse(time.RFC3339, s)
		return err == nil
	case "date":
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	case "time":
		_, err := time.Parse("15:04:05", s)
		return err == nil
	case "email":
		_, err := mail.ParseAddress(s)
		return err == nil
	case "uuid":
		_, err := uuid.Parse(s)
		return err == nil
	default:
		return true
	}
}

func typeList(types []string) string {
	out := ""
	for i, t := range types {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", t)
	}
	return out
}

func typesValue(types []string) tabular.Value {
	if len(types) == 1 {
		return tabular.String(types[0])
	}
	arr := make(tabular.Array, len(types))
	for i, t := range types {
		arr[i] = tabular.String(t)
	}
	return arr
}

func requiredList(names []string) tabular.Value {
	arr := make(tabular.Array, len(names))
	for i, n := range names {
		arr[i] = tabular.String(n)
	}
	return arr
}

// quoteVal renders a value for an error message: strings quoted,
// everything else bare.
func quoteVal(v tabular.Value) string {
	if s, ok := v.(tabular.String); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return tabular.Display(v)
}

func intPtr(i int) *int {
	return &i
}
