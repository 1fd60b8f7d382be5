package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/ops"
)

var testRegistry = ops.NewRegistry()

func step(op string, args ...ir.IRValue) ir.StepConfig {
	return ir.StepConfig{Op: op, Args: ir.IRArray(args)}
}

func codes(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestValidate_ValidRecipe(t *testing.T) {
	diags := Validate(testRegistry, []ir.StepConfig{
		step("From Base64"),
		step(ops.Fork, ir.IRString(`\n`), ir.IRString(`\n`), ir.IRBool(false)),
		step("To Upper case", ir.IRString("Word")),
		step(ops.Merge),
		step(ops.Label, ir.IRString("top")),
		step(ops.ConditionalJump, ir.IRString("x"), ir.IRBool(false), ir.IRString("top"), ir.IRInt(3)),
	})
	assert.Empty(t, diags)
	assert.False(t, HasErrors(diags))
}

func TestValidate_UnknownOperation(t *testing.T) {
	diags := Validate(testRegistry, []ir.StepConfig{step("Reverse"), step("Frobnicate")})
	assert.Equal(t, []string{ErrUnknownOperation}, codes(diags))
	assert.Equal(t, 1, diags[0].Step)
	assert.True(t, HasErrors(diags))
}

func TestValidate_Arguments(t *testing.T) {
	diags := Validate(testRegistry, []ir.StepConfig{
		step("Reverse", ir.IRString("Byte"), ir.IRString("extra")),
		step("Head", ir.IRString("Line feed"), ir.IRBool(true)),
		step("To Upper case", ir.IRString("Everything")),
		step("Remove whitespace", ir.IRString("yes")),
		step("Find / Replace", ir.Toggle("a", "Morse")),
	})
	assert.Equal(t, []string{ErrTooManyArgs, ErrArgType, ErrArgOption, ErrArgType, ErrArgType}, codes(diags))
}

func TestValidate_RegisterReferencesSkipTypeChecks(t *testing.T) {
	diags := Validate(testRegistry, []ir.StepConfig{
		step(ops.Register, ir.IRString(`(\d+)`)),
		step("Head", ir.IRString("$R1"), ir.IRString("$R0")),
	})
	assert.Empty(t, diags)
}

func TestValidate_Blocks(t *testing.T) {
	diags := Validate(testRegistry, []ir.StepConfig{
		step(ops.Merge),
		step(ops.Fork),
		step(ops.Subsection),
		step(ops.Merge, ir.IRBool(false)),
	})
	assert.Equal(t, []string{WarnStrayMerge, WarnUnclosedBlock}, codes(diags))
	assert.Equal(t, 1, diags[1].Step)
	assert.False(t, HasErrors(diags))

	diags = Validate(testRegistry, []ir.StepConfig{
		step(ops.Fork),
		step(ops.Fork),
		step(ops.Merge, ir.IRBool(true)),
	})
	assert.Empty(t, diags, "merge all closes both blocks")
}

func TestValidate_Labels(t *testing.T) {
	disabled := step(ops.Label, ir.IRString("gone"))
	disabled.Disabled = true
	diags := Validate(testRegistry, []ir.StepConfig{
		step(ops.Label, ir.IRString("a")),
		step(ops.Label, ir.IRString("a")),
		disabled,
		step(ops.Jump, ir.IRString("a"), ir.IRInt(2)),
		step(ops.Jump, ir.IRString("gone"), ir.IRInt(2)),
		step(ops.ConditionalJump, ir.IRString("."), ir.IRBool(false), ir.IRString("b"), ir.IRInt(2)),
		step(ops.Jump, ir.IRString("$R0"), ir.IRInt(2)),
	})
	assert.Equal(t, []string{WarnDuplicateLabel, ErrUnknownLabel, ErrUnknownLabel, WarnDynamicLabel}, codes(diags))
	assert.Equal(t, []int{1, 4, 5, 6}, []int{diags[0].Step, diags[1].Step, diags[2].Step, diags[3].Step})
}

func TestDiagnostic_Error(t *testing.T) {
	d := Diagnostic{Severity: SeverityError, Step: 2, Op: "Jump", Code: ErrUnknownLabel, Message: `no label named "x"`}
	assert.Equal(t, `[E105] step 2 (Jump): no label named "x"`, d.Error())
}
