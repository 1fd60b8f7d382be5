package dish

import (
	"fmt"
	"strings"
)

// Kind tags the representation a Dish payload currently holds.
// The set is closed; every Kind has an entry in the coercion table.
type Kind int

const (
	ByteArray Kind = iota
	ArrayBuffer
	String
	Number
	BigNumber
	JSON
	HTML

	numKinds
)

// kindNames are the tag spellings used in recipe documents and operation
// descriptors.
var kindNames = [numKinds]string{
	ByteArray:   "byteArray",
	ArrayBuffer: "ArrayBuffer",
	String:      "string",
	Number:      "number",
	BigNumber:   "BigNumber",
	JSON:        "JSON",
	HTML:        "html",
}

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// String returns the tag spelling of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// ParseKind resolves a tag spelling, ignoring case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown dish kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid dish kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
