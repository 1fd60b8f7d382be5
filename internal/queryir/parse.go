package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/bake/internal/ir"
)

// ParseEquals parses a "field=value" filter. Values that look like
// integers or booleans become IRInt and IRBool; quote a value ("3") to keep
// it a string.
func ParseEquals(s string) (Equals, error) {
	field, value, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return Equals{}, fmt.Errorf("filter %q: want field=value", s)
	}
	return Equals{Field: field, Value: parseLiteral(value)}, nil
}

func parseLiteral(s string) ir.IRValue {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return ir.IRString(s[1 : len(s)-1])
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ir.IRInt(n)
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return ir.IRBool(b)
	}
	return ir.IRString(s)
}
