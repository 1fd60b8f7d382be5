package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

func dataOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "Generate UUID",
			Module:      "Crypto",
			Description: "Generate an RFC 9562 UUID. Versions 3 and 5 hash the input under the given namespace.",
			InfoURL:     "https://wikipedia.org/wiki/Universally_unique_identifier",
			InputType:   dish.String,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Version", Type: operation.ArgOption, Options: []string{"v1", "v3", "v4", "v5", "v6", "v7"}, Default: ir.IRString("v4")},
				{Name: "Namespace", Type: operation.ArgString, Default: ir.IRString("1b671a64-40d5-491e-99b0-da01ff1f3341")},
			},
			Run: operation.Transform(generateUUID),
		},
		{
			Name:        "YAML to JSON",
			Module:      "Default",
			Description: "Parse YAML into structured data.",
			InfoURL:     "https://wikipedia.org/wiki/YAML",
			InputType:   dish.String,
			OutputType:  dish.JSON,
			Run:         operation.Transform(yamlToJSON),
		},
		{
			Name:        "JSON Beautify",
			Module:      "Code",
			Description: "Indent JSON, optionally sorting object keys.",
			InfoURL:     "https://www.json.org/",
			InputType:   dish.String,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Indent string", Type: operation.ArgBinaryShortString, Default: ir.IRString("    ")},
				{Name: "Sort Object Keys", Type: operation.ArgBoolean},
			},
			Run: operation.Transform(jsonBeautify),
		},
		{
			Name:        "JSON Minify",
			Module:      "Code",
			Description: "Remove insignificant whitespace from JSON.",
			InfoURL:     "https://www.json.org/",
			InputType:   dish.String,
			OutputType:  dish.String,
			Run: operation.Transform(func(_ context.Context, in string, _ operation.Args) (string, error) {
				var buf bytes.Buffer
				if err := json.Compact(&buf, []byte(in)); err != nil {
					return "", operation.Wrap(err, "invalid JSON")
				}
				return buf.String(), nil
			}),
		},
	}
}

func generateUUID(_ context.Context, in string, args operation.Args) (string, error) {
	version, err := args.String(0)
	if err != nil {
		return "", err
	}
	var id uuid.UUID
	switch version {
	case "v1":
		id, err = uuid.NewUUID()
	case "v4":
		id, err = uuid.NewRandom()
	case "v6":
		id, err = uuid.NewV6()
	case "v7":
		id, err = uuid.NewV7()
	case "v3", "v5":
		nsText, nerr := args.String(1)
		if nerr != nil {
			return "", nerr
		}
		ns, perr := uuid.Parse(nsText)
		if perr != nil {
			return "", operation.Wrap(perr, "invalid namespace")
		}
		if version == "v3" {
			id = uuid.NewMD5(ns, []byte(in))
		} else {
			id = uuid.NewSHA1(ns, []byte(in))
		}
	default:
		return "", operation.Errorf("unsupported UUID version %q", version)
	}
	if err != nil {
		return "", operation.Wrap(err, "generate UUID")
	}
	return id.String(), nil
}

func yamlToJSON(_ context.Context, in string, _ operation.Args) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(in), &v); err != nil {
		return nil, operation.Wrap(err, "invalid YAML")
	}
	return normalizeYAML(v), nil
}

// normalizeYAML rewrites decoded YAML into the shapes encoding/json
// produces: string-keyed maps and float64 numbers.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeYAML(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeYAML(elem)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return v
	}
}

func jsonBeautify(_ context.Context, in string, args operation.Args) (string, error) {
	indent, err := args.Binary(0)
	if err != nil {
		return "", err
	}
	sortKeys, err := args.Bool(1)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(in) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if !sortKeys {
		// json.Indent keeps the input key order.
		if err := json.Indent(&buf, []byte(in), "", indent); err != nil {
			return "", operation.Wrap(err, "invalid JSON")
		}
		return buf.String(), nil
	}

	dec := json.NewDecoder(strings.NewReader(in))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", operation.Wrap(err, "invalid JSON")
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return "", operation.Wrap(err, "encode JSON")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
