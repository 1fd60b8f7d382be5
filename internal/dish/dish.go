package dish

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Dish holds the single payload flowing through a recipe run, tagged with the
// kind of its current representation. A Dish is owned by exactly one
// execution state; fork branches each get their own.
type Dish struct {
	kind  Kind
	value any
}

// New creates a Dish holding value tagged as kind.
func New(value any, kind Kind) (*Dish, error) {
	d := &Dish{}
	if err := d.Set(value, kind); err != nil {
		return nil, err
	}
	return d, nil
}

// FromBytes creates an ArrayBuffer dish over a copy of b.
func FromBytes(b []byte) *Dish {
	if b == nil {
		b = []byte{}
	}
	return &Dish{kind: ArrayBuffer, value: bytes.Clone(b)}
}

// FromString creates a String dish.
func FromString(s string) *Dish {
	return &Dish{kind: String, value: s}
}

// Kind returns the tag of the current representation.
func (d *Dish) Kind() Kind {
	return d.kind
}

// Value returns the payload in its current representation.
func (d *Dish) Value() any {
	return d.value
}

// Get returns the payload coerced to kind. Asking for the current kind
// returns the value unchanged; otherwise the converted value replaces the
// current representation, so repeated Gets of the same kind do not convert
// again.
func (d *Dish) Get(kind Kind) (any, error) {
	if !kind.Valid() {
		return nil, &DataTypeError{From: d.kind, To: kind, Message: "unknown kind"}
	}
	if kind == d.kind {
		return d.value, nil
	}
	out, err := convert(d.value, d.kind, kind)
	if err != nil {
		return nil, err
	}
	d.kind, d.value = kind, out
	return out, nil
}

// Set replaces the payload and its tag outright.
// The Go type of value must match kind: []byte for ByteArray and ArrayBuffer,
// string for String and HTML, a number for Number, *apd.Decimal for
// BigNumber, and any JSON-encodable value for JSON.
func (d *Dish) Set(value any, kind Kind) error {
	v, err := normalize(value, kind)
	if err != nil {
		return err
	}
	d.kind, d.value = kind, v
	return nil
}

func normalize(value any, kind Kind) (any, error) {
	mismatch := func() error {
		return &DataTypeError{
			From:    kind,
			To:      kind,
			Message: fmt.Sprintf("value of type %T does not match kind", value),
		}
	}
	switch kind {
	case ByteArray, ArrayBuffer:
		b, ok := value.([]byte)
		if !ok {
			return nil, mismatch()
		}
		if b == nil {
			b = []byte{}
		}
		return b, nil
	case String, HTML:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch()
		}
		return s, nil
	case Number:
		switch n := value.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, mismatch()
	case BigNumber:
		d, ok := value.(*apd.Decimal)
		if !ok || d == nil {
			return nil, mismatch()
		}
		return d, nil
	case JSON:
		if _, err := json.Marshal(value); err != nil {
			return nil, &DataTypeError{From: JSON, To: JSON, Message: "value is not JSON-encodable", Err: err}
		}
		return value, nil
	default:
		return nil, &DataTypeError{From: kind, To: kind, Message: "unknown kind"}
	}
}

// Clone returns an independent copy of the dish.
func (d *Dish) Clone() *Dish {
	c := &Dish{kind: d.kind}
	switch v := d.value.(type) {
	case []byte:
		c.value = bytes.Clone(v)
	case *apd.Decimal:
		c.value = new(apd.Decimal).Set(v)
	default:
		if d.kind == JSON {
			c.value = cloneJSON(v)
		} else {
			c.value = v
		}
	}
	return c
}

func cloneJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneJSON(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneJSON(elem)
		}
		return out
	default:
		return v
	}
}

// Size returns the payload size in bytes when rendered as bytes. HTML is
// measured by its text length.
func (d *Dish) Size() int {
	switch v := d.value.(type) {
	case []byte:
		return len(v)
	case string:
		return len(v)
	}
	raw, err := toBytes[d.kind](d.value)
	if err != nil {
		return 0
	}
	return len(raw)
}

// Bytes returns the payload as bytes, coercing to ArrayBuffer.
func (d *Dish) Bytes() ([]byte, error) {
	v, err := d.Get(ArrayBuffer)
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// String returns the payload as UTF-8 text, coercing to String.
// HTML dishes return their text without coercion.
func (d *Dish) String() (string, error) {
	if d.kind == HTML {
		return d.value.(string), nil
	}
	v, err := d.Get(String)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Number returns the payload as a float, coercing to Number.
func (d *Dish) Number() (float64, error) {
	v, err := d.Get(Number)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// BigNumber returns the payload as a decimal, coercing to BigNumber.
func (d *Dish) BigNumber() (*apd.Decimal, error) {
	v, err := d.Get(BigNumber)
	if err != nil {
		return nil, err
	}
	return v.(*apd.Decimal), nil
}

// JSON returns the payload as decoded JSON data, coercing to JSON.
func (d *Dish) JSON() (any, error) {
	return d.Get(JSON)
}

// Output renders the payload for display or storage. Unlike Get it never
// changes the representation and it accepts HTML.
func (d *Dish) Output() ([]byte, error) {
	if d.kind == HTML {
		return []byte(d.value.(string)), nil
	}
	return toBytes[d.kind](d.value)
}
