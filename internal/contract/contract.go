// Package contract models the declarative schema a dataset is checked
// against: an object-typed root with one constraint set per field plus
// the required-name list. Contracts load from YAML or JSON and are
// immutable once parsed.
package contract

import (
	"encoding/json"

	"veritab/internal/tabular"
)

// PropertyConstraint holds one field's declared rules. Absent keywords
// stay absent: nil pointers for numeric/length bounds, empty slices and
// strings elsewhere.
type PropertyConstraint struct {
	Types       []string
	Format      string
	Enum        []tabular.Value
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pattern     string
	Nullable    bool
	Description string
	Required    bool
}

// HasType reports whether the constraint declares the given type.
func (p PropertyConstraint) HasType(name string) bool {
	for _, t := range p.Types {
		if t == name {
			return true
		}
	}
	return false
}

// HasBounds reports whether a minimum or maximum is declared.
func (p PropertyConstraint) HasBounds() bool {
	return p.Minimum != nil || p.Maximum != nil
}

// Schema is the parsed contract: field constraints in declaration
// order, the required-name list, and the raw decoded document for
// prompt and report embedding.
type Schema struct {
	FieldNames []string
	Fields     map[string]PropertyConstraint
	Required   []string

	raw map[string]any
}

// Empty reports whether there is no contract to validate against.
func (s *Schema) Empty() bool {
	return s == nil || (len(s.Fields) == 0 && len(s.raw) == 0)
}

// Field returns the constraint for a name and whether it is declared.
func (s *Schema) Field(name string) (PropertyConstraint, bool) {
	pc, ok := s.Fields[name]
	return pc, ok
}

// Raw returns the decoded schema document as loaded.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// JSON renders the raw schema document as indented JSON (map keys come
// out sorted, so output is byte-stable).
func (s *Schema) JSON() string {
	if s == nil || s.raw == nil {
		return "{}"
	}
	b, err := json.MarshalIndent(s.raw, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
