package ops

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/operation"
)

// decimalContext is the precision arithmetic operations compute with.
var decimalContext = apd.BaseContext.WithPrecision(100)

func arithmeticOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "Sum",
			Module:      "Default",
			Description: "Add up a delimited list of numbers. Entries that are not numbers are ignored.",
			InfoURL:     "https://wikipedia.org/wiki/Summation",
			InputType:   dish.String,
			OutputType:  dish.BigNumber,
			Args: []operation.ArgSpec{
				{Name: "Delimiter", Type: operation.ArgOption, Options: arithmeticDelimOptions},
			},
			Run: operation.Transform(func(_ context.Context, in string, args operation.Args) (*apd.Decimal, error) {
				return fold(in, args, decimalContext.Add)
			}),
		},
		{
			Name:        "Multiply",
			Module:      "Default",
			Description: "Multiply a delimited list of numbers. Entries that are not numbers are ignored.",
			InfoURL:     "https://wikipedia.org/wiki/Multiplication",
			InputType:   dish.String,
			OutputType:  dish.BigNumber,
			Args: []operation.ArgSpec{
				{Name: "Delimiter", Type: operation.ArgOption, Options: arithmeticDelimOptions},
			},
			Run: operation.Transform(func(_ context.Context, in string, args operation.Args) (*apd.Decimal, error) {
				return fold(in, args, decimalContext.Mul)
			}),
		},
		{
			Name:        "To Decimal",
			Module:      "Default",
			Description: "Render each input byte as a decimal number.",
			InfoURL:     "https://wikipedia.org/wiki/Decimal",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Delimiter", Type: operation.ArgOption, Options: delimOptions},
				{Name: "Support signed values", Type: operation.ArgBoolean},
			},
			Run: operation.Transform(toDecimal),
		},
		{
			Name:        "From Decimal",
			Module:      "Default",
			Description: "Convert a delimited list of decimal byte values into bytes.",
			InfoURL:     "https://wikipedia.org/wiki/Decimal",
			InputType:   dish.String,
			OutputType:  dish.ByteArray,
			Args: []operation.ArgSpec{
				{Name: "Delimiter", Type: operation.ArgOption, Options: delimOptions},
				{Name: "Support signed values", Type: operation.ArgBoolean},
			},
			Run: operation.Transform(fromDecimal),
		},
		{
			Name:        "Entropy",
			Module:      "Default",
			Description: "Compute the Shannon entropy of the input in bits per byte (0 to 8).",
			InfoURL:     "https://wikipedia.org/wiki/Entropy_(information_theory)",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.Number,
			Run: operation.Transform(func(_ context.Context, in []byte, _ operation.Args) (float64, error) {
				return Entropy(in), nil
			}),
		},
	}
}

// fold combines every numeric entry of a delimited list. An input with no
// numbers yields NaN.
func fold(in string, args operation.Args, op func(res, x, y *apd.Decimal) (apd.Condition, error)) (*apd.Decimal, error) {
	delim, err := delimArg(args, 0)
	if err != nil {
		return nil, err
	}
	var acc *apd.Decimal
	for _, field := range strings.Split(in, delim) {
		n, _, err := apd.NewFromString(strings.TrimSpace(field))
		if err != nil || n.Form != apd.Finite {
			continue
		}
		if acc == nil {
			acc = n
			continue
		}
		if _, err := op(acc, acc, n); err != nil {
			return nil, operation.Wrap(err, "arithmetic failed")
		}
	}
	if acc == nil {
		return &apd.Decimal{Form: apd.NaN}, nil
	}
	return acc, nil
}

func toDecimal(_ context.Context, in []byte, args operation.Args) (string, error) {
	delim, err := delimArg(args, 0)
	if err != nil {
		return "", err
	}
	signed, err := args.Bool(1)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(in))
	for i, b := range in {
		if signed {
			parts[i] = strconv.Itoa(int(int8(b)))
		} else {
			parts[i] = strconv.Itoa(int(b))
		}
	}
	return strings.Join(parts, delim), nil
}

func fromDecimal(_ context.Context, in string, args operation.Args) ([]byte, error) {
	delim, err := delimArg(args, 0)
	if err != nil {
		return nil, err
	}
	signed, err := args.Bool(1)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, field := range strings.Split(in, delim) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, operation.Errorf("%q is not a decimal number", field)
		}
		if n < 0 && signed && n >= -128 {
			n += 256
		}
		if n < 0 || n > 255 {
			return nil, operation.Errorf("%d is out of byte range", n)
		}
		out = append(out, byte(n))
	}
	return out, nil
}

// Entropy returns the Shannon entropy of data in bits per byte.
func Entropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	var e float64
	n := float64(len(data))
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		e -= p * math.Log2(p)
	}
	return e
}
