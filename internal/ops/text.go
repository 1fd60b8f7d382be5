package ops

import (
	"bytes"
	"context"
	"html"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

func textOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "To Upper case",
			Module:      "Default",
			Description: "Convert the input to upper case, optionally only the first letter of each word, sentence, or paragraph.",
			InputType:   dish.String,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Scope", Type: operation.ArgOption, Options: []string{"All", "Word", "Sentence", "Paragraph"}},
			},
			Run: operation.Transform(toUpperCase),
		},
		{
			Name:        "To Lower case",
			Module:      "Default",
			Description: "Convert the input to lower case.",
			InputType:   dish.String,
			OutputType:  dish.String,
			Run: operation.Transform(func(_ context.Context, in string, _ operation.Args) (string, error) {
				return strings.ToLower(in), nil
			}),
		},
		{
			Name:        "Reverse",
			Module:      "Default",
			Description: "Reverse the input byte by byte, character by character, or line by line.",
			InputType:   dish.ByteArray,
			OutputType:  dish.ByteArray,
			Args: []operation.ArgSpec{
				{Name: "By", Type: operation.ArgOption, Options: []string{"Byte", "Character", "Line"}},
			},
			Run: operation.Transform(reverse),
		},
		{
			Name:        "Head",
			Module:      "Default",
			Description: "Keep the first n lines (or other delimited units) of the input. A negative n keeps all but the last n.",
			InputType:   dish.String,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Delimiter", Type: operation.ArgOption, Options: inputDelimOptions},
				{Name: "Number", Type: operation.ArgNumber, Default: ir.IRInt(10)},
			},
			Run: operation.Transform(head),
		},
		{
			Name:        "Remove whitespace",
			Module:      "Default",
			Description: "Remove the selected whitespace characters from the input.",
			InputType:   dish.String,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Spaces", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Carriage returns (\\r)", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Line feeds (\\n)", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Tabs", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Form feeds (\\f)", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Full stops", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
			},
			Run: operation.Transform(removeWhitespace),
		},
		{
			Name:        "Find / Replace",
			Module:      "Regex",
			Description: "Replace matches of a regular expression, an extended string, or a simple string.",
			InfoURL:     "https://wikipedia.org/wiki/Regular_expression",
			InputType:   dish.String,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Find", Type: operation.ArgToggleString, ToggleValues: []string{"Regex", "Extended (\\n, \\t, \\x...)", "Simple string"}},
				{Name: "Replace", Type: operation.ArgBinaryString, Default: ir.IRString("")},
				{Name: "Global match", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Case insensitive", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
				{Name: "Multiline matching", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Dot matches all", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
			},
			Run: operation.Transform(findReplace),
		},
		{
			Name:        "Unescape string",
			Module:      "Default",
			Description: "Resolve backslash escape sequences such as \\n, \\x41, and \\u00e9.",
			InfoURL:     "https://wikipedia.org/wiki/Escape_sequence",
			InputType:   dish.String,
			OutputType:  dish.String,
			Run: operation.Transform(func(_ context.Context, in string, _ operation.Args) (string, error) {
				return operation.Unescape(in), nil
			}),
		},
		{
			Name:        "Escape HTML",
			Module:      "Default",
			Description: "Render the input as HTML-escaped text for presentation.",
			InputType:   dish.String,
			OutputType:  dish.HTML,
			Run: operation.Transform(func(_ context.Context, in string, _ operation.Args) (string, error) {
				return html.EscapeString(in), nil
			}),
		},
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// capitalizeAfter upper-cases the first word character at the start of the
// text and after each boundary rune, allowing whitespace in between.
func capitalizeAfter(in string, boundary func(prev rune) bool) string {
	var b strings.Builder
	b.Grow(len(in))
	pending := true
	for _, r := range in {
		switch {
		case pending && isWordRune(r):
			b.WriteRune(unicode.ToUpper(r))
			pending = false
		case pending && unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(r)
			pending = false
		}
		if boundary(r) {
			pending = true
		}
	}
	return b.String()
}

func toUpperCase(_ context.Context, in string, args operation.Args) (string, error) {
	scope, err := args.String(0)
	if err != nil {
		return "", err
	}
	switch scope {
	case "All":
		return strings.ToUpper(in), nil
	case "Word":
		return capitalizeAfter(in, func(r rune) bool { return !isWordRune(r) }), nil
	case "Sentence":
		return capitalizeAfter(in, func(r rune) bool { return r == '.' }), nil
	case "Paragraph":
		return capitalizeAfter(in, func(r rune) bool { return r == '\n' }), nil
	}
	return "", operation.Errorf("unknown scope %q", scope)
}

func reverse(_ context.Context, in []byte, args operation.Args) ([]byte, error) {
	by, err := args.String(0)
	if err != nil {
		return nil, err
	}
	switch by {
	case "Byte":
		out := bytes.Clone(in)
		slices.Reverse(out)
		return out, nil
	case "Character":
		if !utf8.Valid(in) {
			out := bytes.Clone(in)
			slices.Reverse(out)
			return out, nil
		}
		runes := []rune(string(in))
		slices.Reverse(runes)
		return []byte(string(runes)), nil
	case "Line":
		lines := bytes.Split(in, []byte("\n"))
		slices.Reverse(lines)
		return bytes.Join(lines, []byte("\n")), nil
	}
	return nil, operation.Errorf("unknown reverse mode %q", by)
}

func splitBy(in, delim string) []string {
	if delim == "" {
		parts := make([]string, 0, utf8.RuneCountInString(in))
		for _, r := range in {
			parts = append(parts, string(r))
		}
		return parts
	}
	return strings.Split(in, delim)
}

func head(_ context.Context, in string, args operation.Args) (string, error) {
	delim, err := delimArg(args, 0)
	if err != nil {
		return "", err
	}
	n, err := args.Int(1)
	if err != nil {
		return "", err
	}
	parts := splitBy(in, delim)
	switch {
	case n >= 0 && int(n) < len(parts):
		parts = parts[:n]
	case n < 0 && int(-n) < len(parts):
		parts = parts[:len(parts)+int(n)]
	case n < 0:
		parts = nil
	}
	return strings.Join(parts, delim), nil
}

func removeWhitespace(_ context.Context, in string, args operation.Args) (string, error) {
	chars := []rune{' ', '\r', '\n', '\t', '\f', '.'}
	remove := make(map[rune]bool, len(chars))
	for i, c := range chars {
		on, err := args.Bool(i)
		if err != nil {
			return "", err
		}
		remove[c] = on
	}
	return strings.Map(func(r rune) rune {
		if remove[r] {
			return -1
		}
		return r
	}, in), nil
}

func findReplace(_ context.Context, in string, args operation.Args) (string, error) {
	find, mode, err := args.Toggle(0)
	if err != nil {
		return "", err
	}
	replace, err := args.Binary(1)
	if err != nil {
		return "", err
	}
	flags := make([]bool, 4)
	for i := range flags {
		if flags[i], err = args.Bool(2 + i); err != nil {
			return "", err
		}
	}
	global, caseInsensitive, multiline, dotAll := flags[0], flags[1], flags[2], flags[3]

	pattern := find
	switch mode {
	case "Regex", "":
	case "Extended (\\n, \\t, \\x...)":
		pattern = regexp2.Escape(operation.Unescape(find))
		replace = operation.Unescape(replace)
	default:
		pattern = regexp2.Escape(find)
	}
	if mode != "Regex" && mode != "" {
		// Literal searches must not interpret $ in the replacement.
		replace = strings.ReplaceAll(replace, "$", "$$")
	}

	re, err := CompileRegex(pattern, caseInsensitive, multiline, dotAll)
	if err != nil {
		return "", operation.Wrap(err, "invalid regular expression")
	}
	count := -1
	if !global {
		count = 1
	}
	out, err := re.Replace(in, replace, -1, count)
	if err != nil {
		return "", operation.Wrap(err, "replace failed")
	}
	return out, nil
}
