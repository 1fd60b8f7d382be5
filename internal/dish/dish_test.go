package dish

import (
	"math"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoercionTableIsExhaustive(t *testing.T) {
	for _, k := range Kinds() {
		assert.NotNil(t, toBytes[k], "toBytes[%s]", k)
		assert.NotNil(t, fromBytes[k], "fromBytes[%s]", k)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"byteArray", ByteArray},
		{"arraybuffer", ArrayBuffer},
		{"string", String},
		{"Number", Number},
		{"bignumber", BigNumber},
		{"json", JSON},
		{"HTML", HTML},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("float")
	assert.Error(t, err)
}

func TestKindText(t *testing.T) {
	text, err := BigNumber.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "BigNumber", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("ArrayBuffer")))
	assert.Equal(t, ArrayBuffer, k)
}

func TestGetSameKindReturnsValueUnchanged(t *testing.T) {
	buf := []byte{1, 2, 3}
	d, err := New(buf, ByteArray)
	require.NoError(t, err)

	v, err := d.Get(ByteArray)
	require.NoError(t, err)
	assert.Equal(t, buf, v)
	assert.Equal(t, ByteArray, d.Kind())
}

func TestLosslessRoundTrips(t *testing.T) {
	tests := []struct {
		name  string
		value any
		a, b  Kind
	}{
		{"bytes via string", []byte("hello, world"), ByteArray, String},
		{"array buffer via byte array", []byte{0, 255, 7}, ArrayBuffer, ByteArray},
		{"string via bytes", "héllo", String, ArrayBuffer},
		{"number via string", float64(42), Number, String},
		{"fraction via string", 0.125, Number, String},
		{"big number via string", ParseBigNumber("12.50"), BigNumber, String},
		{"json via string", map[string]any{"a": []any{float64(1), "x", true, nil}}, JSON, String},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.value, tt.a)
			require.NoError(t, err)

			orig, err := d.Get(tt.a)
			require.NoError(t, err)

			mid, err := d.Get(tt.b)
			require.NoError(t, err)
			require.NoError(t, d.Set(mid, tt.b))

			back, err := d.Get(tt.a)
			require.NoError(t, err)

			if dec, ok := orig.(*apd.Decimal); ok {
				assert.Equal(t, 0, dec.Cmp(back.(*apd.Decimal)))
				return
			}
			assert.Equal(t, orig, back)
		})
	}
}

func TestInvalidUTF8IsDataTypeError(t *testing.T) {
	d := FromBytes([]byte{0xff, 0xfe})
	_, err := d.Get(String)
	require.Error(t, err)
	assert.True(t, IsDataTypeError(err))
	assert.Equal(t, ArrayBuffer, d.Kind(), "failed coercion leaves the dish untouched")
}

func TestNumberParseFailureYieldsNaN(t *testing.T) {
	d := FromString("not a number")
	n, err := d.Number()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(n))

	d = FromString("nope")
	big, err := d.BigNumber()
	require.NoError(t, err)
	assert.Equal(t, apd.NaN, big.Form)
}

func TestNumberFormatting(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{42, "42"},
		{-0.5, "-0.5"},
		{1e21, "1e+21"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in))
	}
}

func TestJSONCoercion(t *testing.T) {
	d := FromString(`{"b":[1,2],"a":"<x>"}`)
	v, err := d.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "<x>", "b": []any{float64(1), float64(2)}}, v)

	s, err := d.String()
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": \"<x>\",\n    \"b\": [\n        1,\n        2\n    ]\n}", s)

	_, err = FromString("{broken").JSON()
	assert.True(t, IsDataTypeError(err))
}

func TestHTMLIsWriteOnly(t *testing.T) {
	d := FromString("<b>")
	v, err := d.Get(HTML)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;", v)

	_, err = d.Get(String)
	require.Error(t, err)
	assert.True(t, IsDataTypeError(err))

	out, err := d.Output()
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;", string(out))
}

func TestSetRejectsMismatchedValue(t *testing.T) {
	d := FromString("x")
	err := d.Set(42, String)
	require.Error(t, err)
	assert.True(t, IsDataTypeError(err))
	assert.Equal(t, "x", d.Value(), "rejected Set keeps the old payload")

	require.NoError(t, d.Set(7, Number))
	assert.Equal(t, float64(7), d.Value())
}

func TestCloneIsIndependent(t *testing.T) {
	d := FromBytes([]byte("abc"))
	c := d.Clone()
	c.Value().([]byte)[0] = 'z'
	assert.Equal(t, []byte("abc"), d.Value())

	j, err := New(map[string]any{"k": []any{"v"}}, JSON)
	require.NoError(t, err)
	jc := j.Clone()
	jc.Value().(map[string]any)["k"].([]any)[0] = "changed"
	assert.Equal(t, "v", j.Value().(map[string]any)["k"].([]any)[0])
}

func TestSize(t *testing.T) {
	assert.Equal(t, 3, FromBytes([]byte("abc")).Size())
	assert.Equal(t, 4, FromString("héy").Size())

	n, err := New(1234.0, Number)
	require.NoError(t, err)
	assert.Equal(t, 4, n.Size())
}
