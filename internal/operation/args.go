package operation

import (
	"strconv"
	"strings"

	"github.com/roach88/bake/internal/ir"
)

// Args is the resolved argument list a step runs with.
type Args []ir.IRValue

func (a Args) at(i int) (ir.IRValue, error) {
	if i < 0 || i >= len(a) {
		return nil, Errorf("missing argument %d", i)
	}
	return a[i], nil
}

// String returns argument i as text. Numbers are formatted in base 10.
func (a Args) String(i int) (string, error) {
	v, err := a.at(i)
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.IRObject:
		if s, ok := val["string"].(ir.IRString); ok {
			return string(s), nil
		}
	}
	return "", Errorf("argument %d: expected string, got %s", i, describe(v))
}

// Binary returns argument i with escape sequences resolved.
func (a Args) Binary(i int) (string, error) {
	s, err := a.String(i)
	if err != nil {
		return "", err
	}
	return Unescape(s), nil
}

// Int returns argument i as an integer. Numeric strings are parsed, which
// lets a register substitution supply a number.
func (a Args) Int(i int) (int64, error) {
	v, err := a.at(i)
	if err != nil {
		return 0, err
	}
	switch val := v.(type) {
	case ir.IRInt:
		return int64(val), nil
	case ir.IRString:
		n, perr := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
		if perr != nil {
			return 0, Errorf("argument %d: %q is not an integer", i, string(val))
		}
		return n, nil
	}
	return 0, Errorf("argument %d: expected number, got %s", i, describe(v))
}

// Bool returns argument i as a boolean.
func (a Args) Bool(i int) (bool, error) {
	v, err := a.at(i)
	if err != nil {
		return false, err
	}
	b, ok := v.(ir.IRBool)
	if !ok {
		return false, Errorf("argument %d: expected boolean, got %s", i, describe(v))
	}
	return bool(b), nil
}

// Toggle returns the text and selected sub-encoding of a toggle string.
// A plain string is accepted with an empty option.
func (a Args) Toggle(i int) (string, string, error) {
	v, err := a.at(i)
	if err != nil {
		return "", "", err
	}
	switch val := v.(type) {
	case ir.IRString:
		return string(val), "", nil
	case ir.IRObject:
		s, ok := val["string"].(ir.IRString)
		if !ok {
			return "", "", Errorf("argument %d: toggle string is missing its string field", i)
		}
		option, _ := val["option"].(ir.IRString)
		return string(s), string(option), nil
	}
	return "", "", Errorf("argument %d: expected toggle string, got %s", i, describe(v))
}
