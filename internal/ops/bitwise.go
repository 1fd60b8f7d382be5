package ops

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

var bitwiseKeyFormats = []string{"Hex", "Decimal", "Binary", "Base64", "UTF8", "Latin1"}

func bitwiseOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "XOR",
			Module:      "Default",
			Description: "XOR the input with a repeating key. Differential schemes feed the previous input or output byte back into the key.",
			InfoURL:     "https://wikipedia.org/wiki/XOR",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.ByteArray,
			Args: []operation.ArgSpec{
				{Name: "Key", Type: operation.ArgToggleString, ToggleValues: bitwiseKeyFormats},
				{Name: "Scheme", Type: operation.ArgOption, Options: []string{"Standard", "Input differential", "Output differential", "Cascade"}},
				{Name: "Null preserving", Type: operation.ArgBoolean},
			},
			Run: operation.Transform(xorOp),
		},
	}
}

// ConvertKey decodes a toggle string key into bytes.
func ConvertKey(text, format string) ([]byte, error) {
	switch format {
	case "Hex":
		return fromHex(context.Background(), text, operation.Args{ir.IRString("Auto")})
	case "Decimal":
		var out []byte
		for _, field := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' || r == ';' || r == ':' || r == '\n' }) {
			n, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return nil, operation.Errorf("invalid decimal key byte %q", field)
			}
			out = append(out, byte(n))
		}
		return out, nil
	case "Binary":
		digits := strings.Map(func(r rune) rune {
			if r == '0' || r == '1' {
				return r
			}
			return -1
		}, text)
		var out []byte
		for i := 0; i+8 <= len(digits); i += 8 {
			n, _ := strconv.ParseUint(digits[i:i+8], 2, 8)
			out = append(out, byte(n))
		}
		return out, nil
	case "Base64":
		out, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, operation.Wrap(err, "invalid Base64 key")
		}
		return out, nil
	case "Latin1":
		out := make([]byte, 0, len(text))
		for _, r := range text {
			out = append(out, byte(r))
		}
		return out, nil
	default:
		return []byte(text), nil
	}
}

func xorOp(_ context.Context, in []byte, args operation.Args) ([]byte, error) {
	text, format, err := args.Toggle(0)
	if err != nil {
		return nil, err
	}
	scheme, err := args.String(1)
	if err != nil {
		return nil, err
	}
	nullPreserving, err := args.Bool(2)
	if err != nil {
		return nil, err
	}
	key, err := ConvertKey(text, format)
	if err != nil {
		return nil, err
	}
	return XORBytes(in, key, scheme, nullPreserving), nil
}

// XORBytes applies a repeating-key XOR under the given scheme.
// An empty key returns a copy of the input.
func XORBytes(in, key []byte, scheme string, nullPreserving bool) []byte {
	out := make([]byte, len(in))
	if len(key) == 0 {
		copy(out, in)
		return out
	}
	key = append([]byte(nil), key...)
	for i, o := range in {
		k := key[i%len(key)]
		if scheme == "Cascade" {
			k = 0
			if i+1 < len(in) {
				k = in[i+1]
			}
		}
		preserved := nullPreserving && (o == 0 || o == k)
		x := o ^ k
		if preserved {
			x = o
		}
		out[i] = x
		if !preserved {
			switch scheme {
			case "Input differential":
				key[i%len(key)] = o
			case "Output differential":
				key[i%len(key)] = x
			}
		}
	}
	return out
}
