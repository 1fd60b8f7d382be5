package ops

import (
	"context"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

var (
	base64Alphabets = []string{"A-Za-z0-9+/=", "A-Za-z0-9-_", "A-Za-z0-9-_=", "./0-9A-Za-z=", "A-Za-z0-9+/"}
	base32Alphabets = []string{"A-Z2-7=", "0-9A-V="}
	hexDelims       = []string{"Space", "Percent", "Comma", "Semi-colon", "Colon", "Line feed", "CRLF", "0x", "0x with comma", `\x`, "None"}
)

// codePages maps the Encode/Decode text option names to x/text encodings.
var codePages = []struct {
	name string
	enc  encoding.Encoding
}{
	{"UTF-8 (65001)", unicode.UTF8},
	{"UTF-16LE (1200)", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"UTF-16BE (1201)", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	{"ISO-8859-1 Latin 1 Western European (28591)", charmap.ISO8859_1},
	{"ISO-8859-2 Latin 2 Central European (28592)", charmap.ISO8859_2},
	{"Windows-1251 Cyrillic (1251)", charmap.Windows1251},
	{"Windows-1252 Western European (1252)", charmap.Windows1252},
	{"KOI8-R Russian Cyrillic (20866)", charmap.KOI8R},
	{"IBM EBCDIC US-Canada (37)", charmap.CodePage037},
	{"Shift_JIS Japanese (932)", japanese.ShiftJIS},
	{"GBK Simplified Chinese (936)", simplifiedchinese.GBK},
}

func codePageNames() []string {
	names := make([]string, len(codePages))
	for i, cp := range codePages {
		names[i] = cp.name
	}
	return names
}

func codePage(args operation.Args) (encoding.Encoding, error) {
	name, err := args.String(0)
	if err != nil {
		return nil, err
	}
	for _, cp := range codePages {
		if cp.name == name {
			return cp.enc, nil
		}
	}
	return nil, operation.Errorf("unsupported encoding %q", name)
}

func encodingOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "To Base64",
			Module:      "Default",
			Description: "Encode the input with Base64 using the chosen alphabet. The optional 65th character is the padding.",
			InfoURL:     "https://wikipedia.org/wiki/Base64",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Alphabet", Type: operation.ArgEditableOption, Options: base64Alphabets},
			},
			Run: operation.Transform(toBase64),
		},
		{
			Name:        "From Base64",
			Module:      "Default",
			Description: "Decode Base64 input using the chosen alphabet.",
			InfoURL:     "https://wikipedia.org/wiki/Base64",
			InputType:   dish.String,
			OutputType:  dish.ByteArray,
			Args: []operation.ArgSpec{
				{Name: "Alphabet", Type: operation.ArgEditableOption, Options: base64Alphabets},
				{Name: "Remove non-alphabet chars", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
				{Name: "Strict mode", Type: operation.ArgBoolean, Default: ir.IRBool(false)},
			},
			Run: operation.Transform(fromBase64),
		},
		{
			Name:        "To Base32",
			Module:      "Default",
			Description: "Encode the input with Base32 using the chosen alphabet.",
			InfoURL:     "https://wikipedia.org/wiki/Base32",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Alphabet", Type: operation.ArgEditableOption, Options: base32Alphabets},
			},
			Run: operation.Transform(toBase32),
		},
		{
			Name:        "From Base32",
			Module:      "Default",
			Description: "Decode Base32 input using the chosen alphabet.",
			InfoURL:     "https://wikipedia.org/wiki/Base32",
			InputType:   dish.String,
			OutputType:  dish.ByteArray,
			Args: []operation.ArgSpec{
				{Name: "Alphabet", Type: operation.ArgEditableOption, Options: base32Alphabets},
				{Name: "Remove non-alphabet chars", Type: operation.ArgBoolean, Default: ir.IRBool(true)},
			},
			Run: operation.Transform(fromBase32),
		},
		{
			Name:        "To Hex",
			Module:      "Default",
			Description: "Render each input byte as two hexadecimal digits.",
			InfoURL:     "https://wikipedia.org/wiki/Hexadecimal",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Delimiter", Type: operation.ArgOption, Options: hexDelims},
				{Name: "Bytes per line", Type: operation.ArgNumber, Default: ir.IRInt(0)},
			},
			Run: operation.Transform(toHex),
		},
		{
			Name:        "From Hex",
			Module:      "Default",
			Description: "Decode hexadecimal byte values. Auto accepts any common delimiter or prefix.",
			InfoURL:     "https://wikipedia.org/wiki/Hexadecimal",
			InputType:   dish.String,
			OutputType:  dish.ByteArray,
			Args: []operation.ArgSpec{
				{Name: "Delimiter", Type: operation.ArgOption, Options: append([]string{"Auto"}, hexDelims...)},
			},
			Run: operation.Transform(fromHex),
		},
		{
			Name:        "Encode text",
			Module:      "Encodings",
			Description: "Encode the text with the chosen character encoding.",
			InfoURL:     "https://wikipedia.org/wiki/Character_encoding",
			InputType:   dish.String,
			OutputType:  dish.ArrayBuffer,
			Args: []operation.ArgSpec{
				{Name: "Encoding", Type: operation.ArgOption, Options: codePageNames()},
			},
			Run: operation.Transform(encodeText),
		},
		{
			Name:        "Decode text",
			Module:      "Encodings",
			Description: "Decode bytes in the chosen character encoding into text.",
			InfoURL:     "https://wikipedia.org/wiki/Character_encoding",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Encoding", Type: operation.ArgOption, Options: codePageNames()},
			},
			Run: operation.Transform(decodeText),
		},
		{
			Name:        "URL Decode",
			Module:      "URL",
			Description: "Decode percent-encoded text; plus signs become spaces.",
			InfoURL:     "https://wikipedia.org/wiki/Percent-encoding",
			InputType:   dish.String,
			OutputType:  dish.String,
			Run: operation.Transform(func(_ context.Context, in string, _ operation.Args) (string, error) {
				out, err := url.QueryUnescape(in)
				if err != nil {
					return "", operation.Wrap(err, "invalid percent-encoding")
				}
				return out, nil
			}),
		},
	}
}

// expandAlphabet expands character ranges such as "A-Z" in an alphabet
// definition. A dash not between two characters is literal.
func expandAlphabet(spec string) string {
	var b strings.Builder
	for i := 0; i < len(spec); i++ {
		if i+2 < len(spec) && spec[i+1] == '-' && spec[i] <= spec[i+2] {
			for c := spec[i]; ; c++ {
				b.WriteByte(c)
				if c == spec[i+2] {
					break
				}
			}
			i += 2
			continue
		}
		b.WriteByte(spec[i])
	}
	return b.String()
}

// alphabet resolves an alphabet spec into its symbols and padding rune.
// A padding of -1 means no padding.
func alphabet(spec string, size int) (string, rune, error) {
	chars := expandAlphabet(spec)
	pad := rune(-1)
	switch len(chars) {
	case size:
	case size + 1:
		pad = rune(chars[size])
		chars = chars[:size]
	default:
		return "", 0, operation.Errorf("alphabet must be %d characters (plus optional padding), got %d", size, len(chars))
	}
	seen := make(map[byte]bool, len(chars))
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		if seen[c] || c == '\n' || c == '\r' || c >= 0x80 || rune(c) == pad {
			return "", 0, operation.Errorf("alphabet has an invalid or repeated character %q", c)
		}
		seen[c] = true
	}
	return chars, pad, nil
}

func base64Encoding(spec string) (*base64.Encoding, string, error) {
	chars, pad, err := alphabet(spec, 64)
	if err != nil {
		return nil, "", err
	}
	enc := base64.NewEncoding(chars).WithPadding(base64.NoPadding)
	if pad >= 0 {
		enc = enc.WithPadding(pad)
		chars += string(pad)
	}
	return enc, chars, nil
}

func toBase64(_ context.Context, in []byte, args operation.Args) (string, error) {
	spec, err := args.String(0)
	if err != nil {
		return "", err
	}
	enc, _, err := base64Encoding(spec)
	if err != nil {
		return "", err
	}
	return enc.EncodeToString(in), nil
}

func keepOnly(in, allowed string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(allowed, r) {
			return r
		}
		return -1
	}, in)
}

func fromBase64(_ context.Context, in string, args operation.Args) ([]byte, error) {
	spec, err := args.String(0)
	if err != nil {
		return nil, err
	}
	removeNonAlpha, err := args.Bool(1)
	if err != nil {
		return nil, err
	}
	strict, err := args.Bool(2)
	if err != nil {
		return nil, err
	}
	enc, chars, err := base64Encoding(spec)
	if err != nil {
		return nil, err
	}
	if removeNonAlpha {
		in = keepOnly(in, chars)
	}
	if strict {
		out, err := enc.Strict().DecodeString(in)
		if err != nil {
			return nil, operation.Wrap(err, "invalid Base64")
		}
		return out, nil
	}
	if len(chars) == 65 {
		in = strings.TrimRight(in, chars[64:])
	}
	out, err := enc.WithPadding(base64.NoPadding).DecodeString(in)
	if err != nil {
		return nil, operation.Wrap(err, "invalid Base64")
	}
	return out, nil
}

func base32Encoding(spec string) (*base32.Encoding, string, error) {
	chars, pad, err := alphabet(spec, 32)
	if err != nil {
		return nil, "", err
	}
	enc := base32.NewEncoding(chars).WithPadding(base32.NoPadding)
	if pad >= 0 {
		enc = enc.WithPadding(pad)
		chars += string(pad)
	}
	return enc, chars, nil
}

func toBase32(_ context.Context, in []byte, args operation.Args) (string, error) {
	spec, err := args.String(0)
	if err != nil {
		return "", err
	}
	enc, _, err := base32Encoding(spec)
	if err != nil {
		return "", err
	}
	return enc.EncodeToString(in), nil
}

func fromBase32(_ context.Context, in string, args operation.Args) ([]byte, error) {
	spec, err := args.String(0)
	if err != nil {
		return nil, err
	}
	removeNonAlpha, err := args.Bool(1)
	if err != nil {
		return nil, err
	}
	enc, chars, err := base32Encoding(spec)
	if err != nil {
		return nil, err
	}
	if removeNonAlpha {
		in = keepOnly(in, chars)
	}
	if len(chars) == 33 {
		in = strings.TrimRight(in, chars[32:])
	}
	out, err := enc.WithPadding(base32.NoPadding).DecodeString(in)
	if err != nil {
		return nil, operation.Wrap(err, "invalid Base32")
	}
	return out, nil
}

// hexStyle returns the prefix written before each byte and the separator
// written between bytes for a To Hex delimiter option.
func hexStyle(name string) (prefix, sep string, err error) {
	switch name {
	case "Percent":
		return "%", "", nil
	case "0x":
		return "0x", "", nil
	case "0x with comma":
		return "0x", ",", nil
	case `\x`:
		return `\x`, "", nil
	}
	sep, err = charRep(name)
	return "", sep, err
}

func toHex(_ context.Context, in []byte, args operation.Args) (string, error) {
	name, err := args.String(0)
	if err != nil {
		return "", err
	}
	perLine, err := args.Int(1)
	if err != nil {
		return "", err
	}
	prefix, sep, err := hexStyle(name)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, c := range in {
		if i > 0 {
			if perLine > 0 && int64(i)%perLine == 0 {
				b.WriteByte('\n')
			} else {
				b.WriteString(sep)
			}
		}
		b.WriteString(prefix)
		b.WriteString(hex.EncodeToString([]byte{c}))
	}
	return b.String(), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func fromHex(_ context.Context, in string, args operation.Args) ([]byte, error) {
	name, err := args.String(0)
	if err != nil {
		return nil, err
	}
	if name == "Auto" {
		cleaned := strings.NewReplacer("0x", "", "0X", "", `\x`, "").Replace(in)
		cleaned = strings.Map(func(r rune) rune {
			if isHexDigit(r) {
				return r
			}
			return -1
		}, cleaned)
		if len(cleaned)%2 == 1 {
			cleaned = cleaned[:len(cleaned)-1]
		}
		out, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, operation.Wrap(err, "invalid hex")
		}
		return out, nil
	}

	prefix, sep, err := hexStyle(name)
	if err != nil {
		return nil, err
	}
	var tokens []string
	switch {
	case sep != "":
		tokens = strings.Split(strings.TrimSpace(in), sep)
	case prefix != "":
		tokens = strings.Split(in, prefix)
	default:
		for i := 0; i < len(in); i += 2 {
			tokens = append(tokens, in[i:min(i+2, len(in))])
		}
	}
	out := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tok), prefix))
		if tok == "" {
			continue
		}
		b, err := hex.DecodeString(tok)
		if err != nil || len(b) != 1 {
			return nil, operation.Errorf("invalid hex byte %q", tok)
		}
		out = append(out, b[0])
	}
	return out, nil
}

func encodeText(_ context.Context, in string, args operation.Args) ([]byte, error) {
	enc, err := codePage(args)
	if err != nil {
		return nil, err
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(in))
	if err != nil {
		return nil, operation.Wrap(err, "encode failed")
	}
	return out, nil
}

func decodeText(_ context.Context, in []byte, args operation.Args) (string, error) {
	enc, err := codePage(args)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(in)
	if err != nil {
		return "", operation.Wrap(err, "decode failed")
	}
	return string(out), nil
}
