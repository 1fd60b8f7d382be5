package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
)

func TestRegister_Substitution(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	e := New(reg)
	extract := op("Register", ir.IRString("(.*)"))

	assert.Equal(t, "Test", mustBake(t, e, "Test", extract, op("Echo", ir.IRString("$R0"))))
	assert.Equal(t, "$R0", mustBake(t, e, "Test", extract, op("Echo", ir.IRString(`\$R0`))))
	assert.Equal(t, `\\Test`, mustBake(t, e, "Test", extract, op("Echo", ir.IRString(`\\$R0`))))
	assert.Equal(t, "[Test|Test]", mustBake(t, e, "Test", extract, op("Echo", ir.IRString("[$R0|$R0]"))))
}

func TestRegister_KeepsDishAndRecordsRegisters(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	r, err := NewRecipe(reg, op("Register", ir.IRString(`(\w+)@(\w+)`)))
	require.NoError(t, err)

	res, err := r.Bake(context.Background(), dish.FromString("mail bob@example now"))
	require.NoError(t, err)
	out, _ := res.Dish.String()
	assert.Equal(t, "mail bob@example now", out)
	assert.Equal(t, []string{"bob", "example"}, res.Registers)
}

func TestRegister_NoMatchIsNoop(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "abc", op("Register", ir.IRString(`(\d+)`)), op("Echo", ir.IRString("$R0")))
	assert.Equal(t, "$R0", out)
}

func TestRegister_UnmatchedGroupIsEmpty(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "ac", op("Register", ir.IRString("(a)(b)?(c)")), op("Echo", ir.IRString("$R0|$R1|$R2")))
	assert.Equal(t, "a||c", out)
}

func TestRegister_WindowAcrossSteps(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "ab",
		op("Register", ir.IRString("(a)")),
		op("Register", ir.IRString("(b)")),
		op("Echo", ir.IRString("$R0$R1$R2")),
	)
	// $R2 is beyond every captured register and stays literal.
	assert.Equal(t, "ab$R2", out)
}

func TestRegister_SkipsEarlierAndDisabledSteps(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	disabled := op("Echo", ir.IRString("$R0"))
	disabled.Disabled = true
	r, err := NewRecipe(reg,
		op("Echo", ir.IRString("keep $R0")),
		op("Register", ir.IRString("(keep)")),
		disabled,
	)
	require.NoError(t, err)

	res, err := r.Bake(context.Background(), dish.FromString("x"))
	require.NoError(t, err)
	out, _ := res.Dish.String()
	assert.Equal(t, "keep $R0", out)
}

func TestRegister_SubstitutesToggleStrings(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "hello",
		op("Register", ir.IRString("^(h)")),
		op("Find / Replace", ir.Toggle("$R0", "Simple string"), ir.IRString("J")),
	)
	assert.Equal(t, "Jello", out)
}

func TestRegister_SubstitutedNumbersParse(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "2\nline a\nline b\nline c",
		op("Register", ir.IRString(`^(\d+)`)),
		op("Head", ir.IRString("Line feed"), ir.IRString("$R0")),
	)
	assert.Equal(t, "2\nline a", out)
}

func TestRegister_CaseInsensitiveFlag(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	e := New(reg)
	steps := func(ci bool) []ir.StepConfig {
		return []ir.StepConfig{
			op("Register", ir.IRString("(ABC)"), ir.IRBool(ci)),
			op("Echo", ir.IRString("$R0")),
		}
	}
	assert.Equal(t, "abc", mustBake(t, e, "abc", steps(true)...))
	assert.Equal(t, "$R0", mustBake(t, e, "abc", steps(false)...))
}

func TestRegister_InvalidExtractor(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	_, err := bakeString(t, New(reg), "abc", op("Register", ir.IRString("(")))
	assert.True(t, IsOperationError(err))
}

func TestSubstituteRegisters(t *testing.T) {
	registers := []string{"whole", "one", "two"}
	tests := []struct {
		name    string
		in      string
		num     int
		want    string
		changed bool
	}{
		{"plain", "no refs", 0, "no refs", false},
		{"first", "$R0", 0, "one", true},
		{"second", "$R1", 0, "two", true},
		{"past window", "$R2", 0, "$R2", false},
		{"escaped", `\$R0`, 0, "$R0", true},
		{"double backslash", `\\$R0`, 0, `\\one`, true},
		{"offset window", "$R3", 2, "two", true},
		{"before window", "$R1", 2, "$R1", false},
		{"two digits", "$R10", 9, "two", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := substituteRegisters(tt.in, registers, tt.num)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}
