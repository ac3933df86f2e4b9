package input

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Format identifies the encoding of an activity document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// RawActivity is a caller-supplied activity record. Which duration fields
// matter depends on the diagram type the set is analysed with.
type RawActivity struct {
	ID           string   `json:"id" yaml:"id"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Predecessors []string `json:"predecessors" yaml:"predecessors"`
	Duration     float64  `json:"duration,omitempty" yaml:"duration,omitempty"`
	Optimistic   float64  `json:"optimistic,omitempty" yaml:"optimistic,omitempty"`
	MostLikely   float64  `json:"mostLikely,omitempty" yaml:"most_likely,omitempty"`
	Pessimistic  float64  `json:"pessimistic,omitempty" yaml:"pessimistic,omitempty"`
}

// Document is a parsed activity file.
type Document struct {
	// DiagramType is the mode named in the file ("PERT", "CPM", ...), empty if absent.
	DiagramType string
	Activities  []RawActivity
}

// DetectFormat picks a format from the file extension. Anything that is not
// .yaml/.yml is treated as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads an activity document from disk. A path of "-" reads stdin as JSON.
func LoadFile(path string) (*Document, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return Parse(data, FormatJSON)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}
	doc, err := Parse(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes an activity document in the given format.
func Parse(data []byte, format Format) (*Document, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON, "":
		return parseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// parseJSON accepts either a bare array of activity records or an object with
// an "activities" array. Keys may be camelCase or snake_case.
func parseJSON(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	root := gjson.ParseBytes(data)
	doc := &Document{}

	list := root
	if root.IsObject() {
		doc.DiagramType = firstOf(root, "diagramType", "diagram_type", "mode").String()
		list = root.Get("activities")
		if !list.Exists() {
			return nil, fmt.Errorf("missing \"activities\" array")
		}
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("activities must be an array")
	}

	var parseErr error
	idx := 0
	list.ForEach(func(_, item gjson.Result) bool {
		defer func() { idx++ }()
		if !item.IsObject() {
			parseErr = fmt.Errorf("activity %d: expected object, got %s", idx, item.Type)
			return false
		}
		ra := RawActivity{
			ID:           strings.TrimSpace(item.Get("id").String()),
			Description:  item.Get("description").String(),
			Predecessors: predecessorsFromJSON(item.Get("predecessors")),
		}
		fields := []struct {
			name string
			v    gjson.Result
			dst  *float64
		}{
			{"duration", item.Get("duration"), &ra.Duration},
			{"optimistic", item.Get("optimistic"), &ra.Optimistic},
			{"mostLikely", firstOf(item, "mostLikely", "most_likely"), &ra.MostLikely},
			{"pessimistic", item.Get("pessimistic"), &ra.Pessimistic},
		}
		for _, f := range fields {
			switch f.v.Type {
			case gjson.Null:
				// absent or null
			case gjson.Number:
				*f.dst = f.v.Num
			default:
				parseErr = fmt.Errorf("activity %d: %s must be a number", idx, f.name)
				return false
			}
		}
		doc.Activities = append(doc.Activities, ra)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return doc, nil
}

func firstOf(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func predecessorsFromJSON(v gjson.Result) []string {
	if v.IsArray() {
		preds := []string{}
		for _, p := range v.Array() {
			if id := strings.TrimSpace(p.String()); id != "" {
				preds = append(preds, id)
			}
		}
		return preds
	}
	return SplitPredecessors(v.String())
}

// SplitPredecessors parses the "A, B" list notation used in activity tables.
// An empty string or "-" means no predecessors.
func SplitPredecessors(s string) []string {
	preds := []string{}
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return preds
	}
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			preds = append(preds, id)
		}
	}
	return preds
}
