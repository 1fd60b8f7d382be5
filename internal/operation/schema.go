package operation

import (
	"fmt"
	"slices"

	"github.com/roach88/bake/internal/ir"
)

// ArgType is the closed set of argument type tags.
type ArgType string

const (
	ArgString            ArgType = "string"
	ArgShortString       ArgType = "shortString"
	ArgBinaryString      ArgType = "binaryString"
	ArgBinaryShortString ArgType = "binaryShortString"
	ArgText              ArgType = "text"
	ArgNumber            ArgType = "number"
	ArgBoolean           ArgType = "boolean"
	ArgOption            ArgType = "option"
	ArgEditableOption    ArgType = "editableOption"
	ArgToggleString      ArgType = "toggleString"
	ArgPopulateOption    ArgType = "populateOption"
)

// ArgSpec describes one positional argument.
type ArgSpec struct {
	Name string
	Type ArgType

	// Default is used for string, number, and boolean types, and as the
	// initial text of a toggle string.
	Default ir.IRValue

	// Options enumerates the choices of option-like types. The first is
	// the default.
	Options []string

	// ToggleValues enumerates the sub-encodings of a toggle string.
	ToggleValues []string

	// Target is the index of the argument a populateOption fills.
	Target int
}

// IsStringLike reports whether values of this type are plain strings.
func (t ArgType) IsStringLike() bool {
	switch t {
	case ArgString, ArgShortString, ArgBinaryString, ArgBinaryShortString, ArgText,
		ArgOption, ArgEditableOption, ArgPopulateOption:
		return true
	}
	return false
}

// DefaultValue returns the value an unconfigured argument takes.
func (a ArgSpec) DefaultValue() ir.IRValue {
	switch a.Type {
	case ArgOption, ArgEditableOption, ArgPopulateOption:
		if a.Default != nil {
			return a.Default
		}
		if len(a.Options) > 0 {
			return ir.IRString(a.Options[0])
		}
		return ir.IRString("")
	case ArgToggleString:
		text := ""
		if s, ok := a.Default.(ir.IRString); ok {
			text = string(s)
		}
		option := ""
		if len(a.ToggleValues) > 0 {
			option = a.ToggleValues[0]
		}
		return ir.Toggle(text, option)
	case ArgNumber:
		if a.Default != nil {
			return a.Default
		}
		return ir.IRInt(0)
	case ArgBoolean:
		if a.Default != nil {
			return a.Default
		}
		return ir.IRBool(false)
	default:
		if a.Default != nil {
			return a.Default
		}
		return ir.IRString("")
	}
}

// Check reports whether v is a well-typed value for this argument.
// Option values must be one of Options; editable options accept any string.
func (a ArgSpec) Check(v ir.IRValue) error {
	switch a.Type {
	case ArgNumber:
		switch v.(type) {
		case ir.IRInt, ir.IRString:
			// Numeric strings are accepted; the operation parses them.
			return nil
		}
		return fmt.Errorf("%s: expected number, got %s", a.Name, describe(v))
	case ArgBoolean:
		if _, ok := v.(ir.IRBool); !ok {
			return fmt.Errorf("%s: expected boolean, got %s", a.Name, describe(v))
		}
		return nil
	case ArgToggleString:
		obj, ok := v.(ir.IRObject)
		if !ok {
			if _, isString := v.(ir.IRString); isString {
				return nil
			}
			return fmt.Errorf("%s: expected toggle string, got %s", a.Name, describe(v))
		}
		if _, ok := obj["string"].(ir.IRString); !ok {
			return fmt.Errorf("%s: toggle string is missing its string field", a.Name)
		}
		option, _ := obj["option"].(ir.IRString)
		if len(a.ToggleValues) > 0 && !slices.Contains(a.ToggleValues, string(option)) {
			return fmt.Errorf("%s: unknown toggle option %q", a.Name, option)
		}
		return nil
	case ArgOption, ArgPopulateOption:
		s, ok := v.(ir.IRString)
		if !ok {
			return fmt.Errorf("%s: expected option, got %s", a.Name, describe(v))
		}
		if len(a.Options) > 0 && !slices.Contains(a.Options, string(s)) {
			return fmt.Errorf("%s: %q is not one of %v", a.Name, s, a.Options)
		}
		return nil
	default:
		if _, ok := v.(ir.IRString); !ok {
			return fmt.Errorf("%s: expected string, got %s", a.Name, describe(v))
		}
		return nil
	}
}

func describe(v ir.IRValue) string {
	switch v.(type) {
	case nil, ir.IRNull:
		return "null"
	case ir.IRString:
		return "string"
	case ir.IRInt:
		return "number"
	case ir.IRBool:
		return "boolean"
	case ir.IRArray:
		return "list"
	case ir.IRObject:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
