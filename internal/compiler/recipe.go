// Package compiler turns recipe documents into step records and checks them
// against an operation registry.
//
// Three document formats share one shape, an ordered list of
// {op, args, disabled, breakpoint} records:
//
//	JSON  [{"op": "From Base64", "args": ["A-Za-z0-9+/=", true, false]}]
//	YAML  - op: From Base64
//	        args: [A-Za-z0-9+/=, true, false]
//	CUE   recipe: [{op: "From Base64", args: [...]}]
//
// JSON and YAML documents may also wrap the list as {"recipe": [...]}.
package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bake/internal/ir"
)

// Format identifies a recipe document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// DetectFormat picks a format from a file extension. Unknown extensions
// are treated as JSON, the native recipe format.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	default:
		return FormatJSON
	}
}

// ParseFormat validates a format name given on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatCUE:
		return f, nil
	}
	return "", fmt.Errorf("unknown recipe format %q (want json, yaml, or cue)", s)
}

// LoadFile reads and parses a recipe document, choosing the format from the
// file extension.
func LoadFile(path string) ([]ir.StepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return Parse(path, DetectFormat(path), data)
}

// Parse decodes a recipe document. filename is used in error positions.
func Parse(filename string, format Format, data []byte) ([]ir.StepConfig, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	case FormatCUE:
		return ParseCUE(filename, data)
	default:
		return nil, fmt.Errorf("unknown recipe format %q", format)
	}
}

// ParseJSON decodes a JSON recipe.
func ParseJSON(data []byte) ([]ir.StepConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &CompileError{Field: "recipe", Message: "document is empty"}
	}
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, &CompileError{Field: "recipe", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return stepsFromDocument(v)
}

// ParseYAML decodes a YAML recipe.
func ParseYAML(data []byte) ([]ir.StepConfig, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &CompileError{Field: "recipe", Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if raw == nil {
		return nil, &CompileError{Field: "recipe", Message: "document is empty"}
	}
	v, err := ir.FromGo(normalizeYAML(raw))
	if err != nil {
		return nil, &CompileError{Field: "recipe", Message: err.Error()}
	}
	return stepsFromDocument(v)
}

// normalizeYAML converts map[any]any nodes (non-string keys) into
// map[string]any so the value can be converted to IR.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = normalizeYAML(elem)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		for i, elem := range val {
			val[i] = normalizeYAML(elem)
		}
		return val
	default:
		return v
	}
}

func stepsFromDocument(v ir.IRValue) ([]ir.StepConfig, error) {
	if obj, ok := v.(ir.IRObject); ok {
		inner, exists := obj["recipe"]
		if !exists {
			return nil, &CompileError{Field: "recipe", Message: "document must be a list of steps or an object with a recipe field"}
		}
		v = inner
	}
	steps, err := ir.StepsFromIR(v)
	if err != nil {
		return nil, &CompileError{Field: "recipe", Message: err.Error()}
	}
	return steps, nil
}

// Marshal renders steps as a JSON, YAML, or CUE document. CUE output is
// the JSON list bound to the recipe field.
func Marshal(steps []ir.StepConfig, format Format) ([]byte, error) {
	if steps == nil {
		steps = []ir.StepConfig{}
	}
	switch format {
	case FormatJSON, FormatCUE:
		var buf bytes.Buffer
		if format == FormatCUE {
			buf.WriteString("recipe: ")
		}
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(steps); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		doc := make([]any, len(steps))
		for i, s := range steps {
			doc[i] = ir.ToGo(s.ToIR())
		}
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown recipe format %q", format)
	}
}
