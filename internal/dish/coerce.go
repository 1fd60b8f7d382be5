package dish

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
)

// Every coercion pivots through bytes: the source payload is rendered with
// its toBytes entry and the target payload is parsed with its fromBytes
// entry. ByteArray and ArrayBuffer share a representation and only copy.
type (
	toBytesFunc   func(value any) ([]byte, error)
	fromBytesFunc func(data []byte) (any, error)
)

var (
	toBytes   [numKinds]toBytesFunc
	fromBytes [numKinds]fromBytesFunc
)

// errWriteOnly marks HTML as a presentation-only kind.
var errWriteOnly = errors.New("html is write-only")

func init() {
	toBytes = [numKinds]toBytesFunc{
		ByteArray:   bytesToBytes,
		ArrayBuffer: bytesToBytes,
		String:      func(v any) ([]byte, error) { return []byte(v.(string)), nil },
		Number:      func(v any) ([]byte, error) { return []byte(FormatNumber(v.(float64))), nil },
		BigNumber:   func(v any) ([]byte, error) { return []byte(v.(*apd.Decimal).Text('f')), nil },
		JSON:        jsonToBytes,
		HTML:        func(any) ([]byte, error) { return nil, errWriteOnly },
	}
	fromBytes = [numKinds]fromBytesFunc{
		ByteArray:   bytesFromBytes,
		ArrayBuffer: bytesFromBytes,
		String:      stringFromBytes,
		Number:      func(b []byte) (any, error) { return ParseNumber(string(b)), nil },
		BigNumber:   func(b []byte) (any, error) { return ParseBigNumber(string(b)), nil },
		JSON:        jsonFromBytes,
		HTML:        func(b []byte) (any, error) { return html.EscapeString(string(b)), nil },
	}
	for _, k := range Kinds() {
		if toBytes[k] == nil || fromBytes[k] == nil {
			panic(fmt.Sprintf("dish: coercion table is missing an entry for %s", k))
		}
	}
}

func bytesToBytes(v any) ([]byte, error) {
	return bytes.Clone(v.([]byte)), nil
}

func bytesFromBytes(b []byte) (any, error) {
	if b == nil {
		return []byte{}, nil
	}
	return bytes.Clone(b), nil
}

func stringFromBytes(b []byte) (any, error) {
	if !utf8.Valid(b) {
		return nil, errors.New("invalid UTF-8")
	}
	return string(b), nil
}

func jsonToBytes(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func jsonFromBytes(b []byte) (any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// FormatNumber renders a float the way recipe output expects: integers
// without a fractional part, very large or small magnitudes in exponent form,
// and NaN and the infinities by name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseNumber parses trimmed text as a float. Text that is not a number
// yields NaN; the operation consuming it decides whether that is an error.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

// ParseBigNumber parses trimmed text as an arbitrary-precision decimal,
// yielding a NaN decimal on failure.
func ParseBigNumber(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return &apd.Decimal{Form: apd.NaN}
	}
	return d
}

// convert runs the (from, to) coercion through the bytes pivot.
func convert(value any, from, to Kind) (any, error) {
	raw, err := toBytes[from](value)
	if err != nil {
		return nil, &DataTypeError{From: from, To: to, Message: "no coercion path", Err: err}
	}
	out, err := fromBytes[to](raw)
	if err != nil {
		return nil, &DataTypeError{From: from, To: to, Message: "malformed payload", Err: err}
	}
	return out, nil
}
