package ops

import (
	"github.com/roach88/bake/internal/operation"
)

// Delimiter option lists shared by several operations.
var (
	inputDelimOptions      = []string{"Line feed", "CRLF", "Space", "Comma", "Semi-colon", "Colon", "Nothing (separate chars)"}
	delimOptions           = []string{"Space", "Comma", "Semi-colon", "Colon", "Line feed", "CRLF"}
	arithmeticDelimOptions = []string{"Line feed", "Space", "Comma", "Semi-colon", "Colon", "CRLF"}
)

var delimChars = map[string]string{
	"Space":                    " ",
	"Comma":                    ",",
	"Semi-colon":               ";",
	"Colon":                    ":",
	"Line feed":                "\n",
	"CRLF":                     "\r\n",
	"Nothing (separate chars)": "",
	"None":                     "",
}

// charRep resolves a delimiter option name to the text it stands for.
func charRep(name string) (string, error) {
	s, ok := delimChars[name]
	if !ok {
		return "", operation.Errorf("unknown delimiter %q", name)
	}
	return s, nil
}

// delimArg reads argument i as a delimiter option.
func delimArg(args operation.Args, i int) (string, error) {
	name, err := args.String(i)
	if err != nil {
		return "", err
	}
	return charRep(name)
}
