package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"veritab/internal/tabular"
)

// Load reads a schema contract from a YAML or JSON file.
func Load(path string) (*Schema, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("unsupported schema file type %q: only YAML/YML and JSON are supported", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes schema bytes (YAML or JSON; JSON parses as YAML) and
// extracts the per-field constraints. Property declaration order is
// preserved. Unrecognized keywords are ignored, not errors. Parse is
// deliberately lenient; CheckStructure is the strict gate.
func Parse(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &Schema{Fields: map[string]PropertyConstraint{}, raw: map[string]any{}}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("invalid schema content: expected an object at the root")
	}

	var raw map[string]any
	if err := root.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	s := &Schema{
		Fields: map[string]PropertyConstraint{},
		raw:    raw,
	}

	if req, ok := raw["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	requiredSet := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		requiredSet[name] = true
	}

	props := findMappingEntry(root, "properties")
	if props == nil || props.Kind != yaml.MappingNode {
		return s, nil
	}
	for i := 0; i+1 < len(props.Content); i += 2 {
		name := props.Content[i].Value
		var details map[string]any
		if err := props.Content[i+1].Decode(&details); err != nil {
			return nil, fmt.Errorf("decode property %q: %w", name, err)
		}
		pc := extractConstraint(details)
		pc.Required = requiredSet[name]
		s.FieldNames = append(s.FieldNames, name)
		s.Fields[name] = pc
	}
	return s, nil
}

// CheckStructure validates the decoded document against the minimal
// shape a data contract must have: root type "object", a non-empty
// properties mapping, and (when present) a required list of strings.
func (s *Schema) CheckStructure() error {
	if s.Empty() {
		return errors.New("no schema provided for structural validation")
	}
	typ, ok := s.raw["type"]
	if !ok {
		return errors.New("schema structural error: missing root \"type\" keyword")
	}
	if typStr, ok := typ.(string); !ok || typStr != "object" {
		return fmt.Errorf("schema structural error: root type must be \"object\", got %v", typ)
	}
	props, ok := s.raw["properties"]
	if !ok {
		return errors.New("schema structural error: missing \"properties\" object")
	}
	propsMap, ok := props.(map[string]any)
	if !ok {
		return errors.New("schema structural error: \"properties\" must be an object")
	}
	if len(propsMap) == 0 {
		return errors.New("schema structural error: \"properties\" must declare at least one field")
	}
	if req, ok := s.raw["required"]; ok {
		reqList, ok := req.([]any)
		if !ok {
			return errors.New("schema structural error: \"required\" must be an array of field names")
		}
		for _, r := range reqList {
			if _, ok := r.(string); !ok {
				return fmt.Errorf("schema structural error: \"required\" entries must be strings, got %v", r)
			}
		}
	}
	return nil
}

// findMappingEntry returns the value node for a top-level key.
func findMappingEntry(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func extractConstraint(details map[string]any) PropertyConstraint {
	pc := PropertyConstraint{}
	switch t := details["type"].(type) {
	case string:
		pc.Types = []string{t}
	case []any:
		for _, elem := range t {
			if name, ok := elem.(string); ok {
				pc.Types = append(pc.Types, name)
			}
		}
	}
	if f, ok := details["format"].(string); ok {
		pc.Format = f
	}
	if enum, ok := details["enum"].([]any); ok {
		pc.Enum = make([]tabular.Value, len(enum))
		for i, e := range enum {
			pc.Enum[i] = tabular.Normalize(e)
		}
	}
	pc.Minimum = asFloat(details["minimum"])
	pc.Maximum = asFloat(details["maximum"])
	pc.MinLength = asInt(details["minLength"])
	pc.MaxLength = asInt(details["maxLength"])
	if p, ok := details["pattern"].(string); ok {
		pc.Pattern = p
	}
	if n, ok := details["nullable"].(bool); ok {
		pc.Nullable = n
	}
	if d, ok := details["description"].(string); ok {
		pc.Description = d
	}
	return pc
}

func asFloat(v any) *float64 {
	switch x := v.(type) {
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case float64:
		f := x
		return &f
	default:
		return nil
	}
}

func asInt(v any) *int {
	switch x := v.(type) {
	case int:
		i := x
		return &i
	case int64:
		i := int(x)
		return &i
	case float64:
		i := int(x)
		return &i
	default:
		return nil
	}
}
