package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a dataset from a CSV or JSON file, dispatching on the
// file extension.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ParseCSV(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q: only CSV and JSON are supported", ext)
	}
}

// ================== CSV ==================

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindFloat
	kindBool
)

// ParseCSV parses CSV bytes into a dataset. The first row is the
// header. Cell types are inferred per column, frame-style: a column
// converts to int, float, or bool only when every non-empty cell
// parses as that kind; otherwise the whole column stays string. Empty
// cells become Null. Integers are kept integral even when the column
// has gaps.
func ParseCSV(data []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("csv: no header row")
	}

	header := rows[0]
	body := rows[1:]

	kinds := make([]columnKind, len(header))
	for col := range header {
		kinds[col] = inferColumnKind(body, col)
	}

	records := make([]Record, 0, len(body))
	for _, row := range body {
		rec := make(Record, len(header))
		for col, name := range header {
			rec[name] = convertCell(row[col], kinds[col])
		}
		records = append(records, rec)
	}

	columns := make([]string, len(header))
	copy(columns, header)
	return &Dataset{Columns: columns, Records: records}, nil
}

func inferColumnKind(body [][]string, col int) columnKind {
	sawCell := false
	isInt, isFloat, isBool := true, true, true
	for _, row := range body {
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		sawCell = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			isFloat = false
		}
		if !strings.EqualFold(cell, "true") && !strings.EqualFold(cell, "false") {
			isBool = false
		}
	}
	switch {
	case !sawCell:
		return kindString
	case isInt:
		return kindInt
	case isFloat:
		return kindFloat
	case isBool:
		return kindBool
	default:
		return kindString
	}
}

func convertCell(cell string, kind columnKind) Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return Null{}
	}
	switch kind {
	case kindInt:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return String(cell)
		}
		return Int(i)
	case kindFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return String(cell)
		}
		return Normalize(f)
	case kindBool:
		return Bool(strings.EqualFold(trimmed, "true"))
	default:
		return String(cell)
	}
}

// ================== JSON ==================

// ParseJSON parses a JSON dataset: either a top-level array of objects
// or a single object (wrapped as a one-record dataset). Decoding goes
// through yaml.v3 nodes so the first record's key order defines the
// column order; fields seen only in later records append after it.
func ParseJSON(data []byte) (*Dataset, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("json: no records found")
	}

	root := doc.Content[0]
	var mappings []*yaml.Node
	switch root.Kind {
	case yaml.SequenceNode:
		for i, elem := range root.Content {
			if elem.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("json: record %d is not an object", i)
			}
			mappings = append(mappings, elem)
		}
	case yaml.MappingNode:
		mappings = append(mappings, root)
	default:
		return nil, errors.New("unsupported JSON structure: expected a list of objects or a single object")
	}

	var columns []string
	seen := make(map[string]bool)
	records := make([]Record, 0, len(mappings))
	for _, m := range mappings {
		rec := make(Record, len(m.Content)/2)
		for i := 0; i+1 < len(m.Content); i += 2 {
			key := m.Content[i].Value
			val, err := nodeValue(m.Content[i+1])
			if err != nil {
				return nil, err
			}
			rec[key] = val
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		records = append(records, rec)
	}
	return &Dataset{Columns: columns, Records: records}, nil
}

// nodeValue converts one decoded node into a normalized Value.
func nodeValue(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		arr := make(Array, len(n.Content))
		for i, elem := range n.Content {
			v, err := nodeValue(elem)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.MappingNode:
		obj := make(Object, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj[n.Content[i].Value] = v
		}
		return obj, nil
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeValue(n.Alias)
		}
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unsupported node kind %d at line %d", n.Kind, n.Line)
	}
}

func scalarValue(n *yaml.Node) (Value, error) {
	switch n.Tag {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode bool at line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("decode int at line %d: %w", n.Line, err)
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode float at line %d: %w", n.Line, err)
		}
		return Normalize(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err == nil {
			return Normalize(t), nil
		}
		return String(n.Value), nil
	default:
		return String(n.Value), nil
	}
}
