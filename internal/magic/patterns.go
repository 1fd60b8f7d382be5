package magic

import (
	"bytes"

	"github.com/dlclark/regexp2"

	"github.com/roach88/bake/internal/ir"
)

// Pattern recognizes input an operation can probably decode.
type Pattern struct {
	Op    string
	Args  ir.IRArray
	Match *regexp2.Regexp

	// Prefix, when set, matches raw bytes instead of text.
	Prefix []byte
}

func mustPattern(op string, args ir.IRArray, expr string) Pattern {
	return Pattern{Op: op, Args: args, Match: regexp2.MustCompile(expr, regexp2.IgnoreCase)}
}

// DefaultPatterns are the detection rules of the built-in catalogue.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Op: "Gunzip", Prefix: []byte{0x1f, 0x8b, 0x08}},
		mustPattern("From Base64", ir.IRArray{ir.IRString("A-Za-z0-9+/="), ir.IRBool(true), ir.IRBool(false)},
			`^\s*(?:[A-Z\d+/]{4})+(?:[A-Z\d+/]{2}==|[A-Z\d+/]{3}=)?\s*$`),
		mustPattern("From Base64", ir.IRArray{ir.IRString("A-Za-z0-9-_"), ir.IRBool(true), ir.IRBool(false)},
			`^\s*(?=[A-Z\d\-_]*[\-_])(?:[A-Z\d\-_]{4})+(?:[A-Z\d\-_]{2,3})?\s*$`),
		mustPattern("From Base32", ir.IRArray{ir.IRString("A-Z2-7="), ir.IRBool(true)},
			`^(?:[A-Z2-7]{8})+(?:[A-Z2-7]{2}={6}|[A-Z2-7]{4}={4}|[A-Z2-7]{5}={3}|[A-Z2-7]{7}=)?$`),
		mustPattern("From Hex", ir.IRArray{ir.IRString("None")}, `^(?:[\dA-F]{2})+$`),
		mustPattern("From Hex", ir.IRArray{ir.IRString("Space")}, `^[\dA-F]{2}(?: [\dA-F]{2})+$`),
		mustPattern("From Hex", ir.IRArray{ir.IRString(`\x`)}, `^(?:\\x[\dA-F]{2})+$`),
		mustPattern("From Decimal", ir.IRArray{ir.IRString("Space"), ir.IRBool(false)}, `^\d{1,3}(?: \d{1,3})+$`),
		mustPattern("URL Decode", nil, `^[^%\s]*(?:%[\dA-F]{2}[^%\s]*)+$`),
	}
}

// matches reports whether p recognizes buf. text is buf as a string, or
// empty when buf is not UTF-8.
func (p Pattern) matches(buf []byte, text string, isText bool) bool {
	if p.Prefix != nil {
		return bytes.HasPrefix(buf, p.Prefix)
	}
	if !isText || text == "" {
		return false
	}
	ok, err := p.Match.MatchString(text)
	return err == nil && ok
}

type signature struct {
	magic []byte
	ft    FileType
}

var signatures = []signature{
	{[]byte{0x1f, 0x8b, 0x08}, FileType{Name: "Gzip", Extension: "gz", MIME: "application/gzip"}},
	{[]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, FileType{Name: "Portable Network Graphics image", Extension: "png", MIME: "image/png"}},
	{[]byte{0xff, 0xd8, 0xff}, FileType{Name: "JPEG image", Extension: "jpg", MIME: "image/jpeg"}},
	{[]byte("%PDF-"), FileType{Name: "Portable Document Format", Extension: "pdf", MIME: "application/pdf"}},
	{[]byte{'P', 'K', 0x03, 0x04}, FileType{Name: "PKZIP archive", Extension: "zip", MIME: "application/zip"}},
}

// DetectFileType returns the signature buf starts with, if any.
func DetectFileType(buf []byte) *FileType {
	for _, sig := range signatures {
		if bytes.HasPrefix(buf, sig.magic) {
			ft := sig.ft
			return &ft
		}
	}
	return nil
}
