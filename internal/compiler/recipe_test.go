package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/ir"
)

var wantSteps = []ir.StepConfig{
	{Op: "From Base64", Args: ir.IRArray{ir.IRString("A-Za-z0-9+/="), ir.IRBool(true)}},
	{Op: "Find / Replace", Args: ir.IRArray{ir.Toggle("a", "Simple string"), ir.IRString("b")}, Disabled: true},
	{Op: "Head", Args: ir.IRArray{ir.IRString("Line feed"), ir.IRInt(3)}, Breakpoint: true},
}

func TestParseJSON(t *testing.T) {
	doc := `[
		{"op": "From Base64", "args": ["A-Za-z0-9+/=", true]},
		{"op": "Find / Replace", "args": [{"string": "a", "option": "Simple string"}, "b"], "disabled": true},
		{"op": "Head", "args": ["Line feed", 3], "breakpoint": true}
	]`
	steps, err := ParseJSON([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, wantSteps, steps)
}

func TestParseJSON_WrappedAndScalarArgs(t *testing.T) {
	steps, err := ParseJSON([]byte(`{"recipe": [{"op": "Head", "args": 5}, {"op": "Reverse"}]}`))
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, ir.IRArray{ir.IRInt(5)}, steps[0].Args)
	assert.Nil(t, steps[1].Args)
}

func TestParseJSON_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":      "  ",
		"malformed":  `[{"op": }]`,
		"not a list": `"From Base64"`,
		"missing op": `[{"args": []}]`,
		"float arg":  `[{"op": "Head", "args": [1.5]}]`,
		"bad flag":   `[{"op": "Head", "disabled": "yes"}]`,
		"no recipe":  `{"steps": []}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON([]byte(doc))
			require.Error(t, err)
			var ce *CompileError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
- op: From Base64
  args: ["A-Za-z0-9+/=", true]
- op: Find / Replace
  args:
    - {string: a, option: Simple string}
    - b
  disabled: true
- op: Head
  args: [Line feed, 3]
  breakpoint: true
`
	steps, err := ParseYAML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, wantSteps, steps)
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte(""))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("- op: [unclosed"))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("- op: Head\n  args: [0.5]\n"))
	assert.Error(t, err)
}

func TestParseCUE(t *testing.T) {
	doc := `
#Base64: {op: "From Base64", args: ["A-Za-z0-9+/=", true]}

_lines: 1 + 2

recipe: [
	#Base64,
	{op: "Find / Replace", args: [{string: "a", option: "Simple string"}, "b"], disabled: true},
	{op: "Head", args: ["Line feed", _lines], breakpoint: true},
]
`
	steps, err := ParseCUE("recipe.cue", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, wantSteps, steps)
}

func TestParseCUE_Errors(t *testing.T) {
	_, err := ParseCUE("r.cue", []byte(`steps: []`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipe field is required")

	_, err = ParseCUE("r.cue", []byte(`recipe: [{op: "Head", args: [1.5]}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fractional")

	_, err = ParseCUE("r.cue", []byte(`recipe: [{op: string}]`))
	require.Error(t, err)

	_, err = ParseCUE("r.cue", []byte(`recipe: [{op: "Head"`))
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("a/b.yml"))
	assert.Equal(t, FormatYAML, DetectFormat("b.YAML"))
	assert.Equal(t, FormatCUE, DetectFormat("b.cue"))
	assert.Equal(t, FormatJSON, DetectFormat("b.json"))
	assert.Equal(t, FormatJSON, DetectFormat("recipe"))

	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("toml")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- op: Reverse\n  args: [Line]\n"), 0o644))

	steps, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []ir.StepConfig{{Op: "Reverse", Args: ir.IRArray{ir.IRString("Line")}}}, steps)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML, FormatCUE} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(wantSteps, format)
			require.NoError(t, err)
			steps, err := Parse("r", format, data)
			require.NoError(t, err)
			assert.Equal(t, wantSteps, steps)
		})
	}

	data, err := Marshal(nil, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
