package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/ops"
)

func fork(split, merge string, ignoreErrors bool) ir.StepConfig {
	return op(ops.Fork, ir.IRString(split), ir.IRString(merge), ir.IRBool(ignoreErrors))
}

func merge(all bool) ir.StepConfig {
	return op(ops.Merge, ir.IRBool(all))
}

func TestFork_Ordering(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	steps := []ir.StepConfig{fork(`\n`, ",", false), op("To Upper case"), merge(true)}

	for _, par := range []int{1, 2, 8} {
		out := mustBake(t, New(reg, WithForkParallelism(par)), "a\nb\nc", steps...)
		assert.Equal(t, "A,B,C", out, "parallelism %d", par)
	}
}

func TestFork_ParallelOrderingManyBranches(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	letters := strings.Split("abcdefghijklmnopqrstuvwxyz", "")
	out := mustBake(t, New(reg, WithForkParallelism(6)), strings.Join(letters, " "),
		fork(" ", "", false), op("To Upper case"), op("Sleep", ir.IRInt(1)), merge(true))
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", out)
}

func TestFork_EmptyInputHasNoBranches(t *testing.T) {
	reg, count := setupTestRegistry(t)
	out := mustBake(t, New(reg), "", fork(`\n`, `\n`, false), op("Count"), merge(true))
	assert.Equal(t, "", out)
	assert.Equal(t, int64(0), count.Load())
}

func TestFork_WithoutMergeRunsToEnd(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "a,b", fork(",", "-", false), op("To Upper case"))
	assert.Equal(t, "A-B", out)
}

func TestFork_ContinuesAfterMerge(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "ab,cd", fork(",", ",", false), op("To Upper case"), merge(true), op("Reverse"))
	assert.Equal(t, "DC,BA", out)
}

func TestFork_NestedMergeDoesNotEndOuterBlock(t *testing.T) {
	reg, count := setupTestRegistry(t)
	out := mustBake(t, New(reg), "1,2\n3,4",
		fork(`\n`, `\n`, false),
		fork(",", ",", false),
		op("Count"),
		merge(false),
		merge(true),
	)
	assert.Equal(t, "1,2\n3,4", out)
	assert.Equal(t, int64(4), count.Load(), "outer 2 branches x inner 2 branches")
}

func TestFork_MergeAllClosesEveryBlock(t *testing.T) {
	reg, count := setupTestRegistry(t)
	out := mustBake(t, New(reg), "1;2,3",
		fork(",", ",", false),
		fork(";", ";", false),
		op("Count"),
		merge(true),
		op("Reverse"),
	)
	assert.Equal(t, int64(3), count.Load())
	assert.Equal(t, "3,2;1", out)
}

func TestFork_DisabledMergeIsIgnored(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	disabled := merge(true)
	disabled.Disabled = true
	out := mustBake(t, New(reg), "a,b", fork(",", "+", false), disabled, op("To Upper case"))
	assert.Equal(t, "A+B", out)
}

func TestFork_Isolation(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	r, err := New(reg).NewRecipe(
		fork(`\n`, `\n`, false),
		op("Register", ir.IRString("^(.)")),
		op("Find / Replace", ir.Toggle(".+", "Regex"), ir.IRString("$R0$R0")),
		merge(true),
	)
	require.NoError(t, err)
	before := r.Config()

	for _, par := range []int{1, 2} {
		r.eng.forkParallelism = par
		res, err := r.Bake(t.Context(), dish.FromString("ab\ncd"))
		require.NoError(t, err)
		out, _ := res.Dish.String()
		assert.Equal(t, "aa\ncc", out)
		assert.Empty(t, res.Registers, "branch registers stay in the branch")
	}
	assert.Equal(t, before, r.Config(), "recipe config is never rewritten")
}

func TestFork_BranchesSeeEarlierRegisters(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "a,b",
		op("Register", ir.IRString("(a)")),
		fork(",", ",", false),
		op("Register", ir.IRString("(.)")),
		op("Echo", ir.IRString("$R0-$R1")),
		merge(true),
	)
	assert.Equal(t, "a-a,a-b", out)
}

func TestFork_IgnoreErrors(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "1,bad,3", fork(",", ",", true), op("Double"), merge(true))
	assert.Equal(t, "2,bad,6", out)
}

func TestFork_ErrorAbortsWithAbsoluteStep(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	_, err := bakeString(t, New(reg), "1,bad,3", fork(",", ",", false), op("Double"), merge(true))

	require.Error(t, err)
	assert.True(t, IsOperationError(err))
	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, 1, step)
	assert.Equal(t, `Double - "bad" is not a number (step 1)`, err.Error())
}

func TestFork_NestedErrorReportsAbsoluteStep(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	_, err := bakeString(t, New(reg), "1;2\n3;x",
		op("To Lower case"),
		fork(`\n`, `\n`, false),
		fork(";", ";", false),
		op("Double"),
		merge(false),
		merge(true),
	)
	require.Error(t, err)
	step, ok := FailedStep(err)
	require.True(t, ok)
	assert.Equal(t, 3, step)
}

func TestFork_ParallelReturnsLowestIndexError(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	for range 5 {
		_, err := bakeString(t, New(reg, WithForkParallelism(4)), "1,x,3,y", fork(",", ",", false), op("Double"), merge(true))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"x"`)
	}
}

func TestSubsection_ReplacesEachMatch(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	sub := func(pattern string, caseSensitive, global, ignoreErrors bool) ir.StepConfig {
		return op(ops.Subsection, ir.IRString(pattern), ir.IRBool(caseSensitive), ir.IRBool(global), ir.IRBool(ignoreErrors))
	}
	e := New(reg)

	assert.Equal(t, "a2b4", mustBake(t, e, "a1b2", sub("[0-9]", true, true, false), op("Double"), merge(true)))
	assert.Equal(t, "a2b2", mustBake(t, e, "a1b2", sub("[0-9]", true, false, false), op("Double"), merge(true)))
	assert.Equal(t, "k=10;j=14", mustBake(t, e, "k=5;j=7", sub("=([0-9])", true, true, false), op("Double"), merge(true)))
	assert.Equal(t, "xAyA", mustBake(t, e, "xaya", sub("A", false, true, false), op("To Upper case"), merge(true)))
	assert.Equal(t, "xaya", mustBake(t, e, "xaya", sub("A", true, true, false), op("To Upper case"), merge(true)))
	assert.Equal(t, "\u00e92\u00e94", mustBake(t, e, "\u00e91\u00e92", sub("[0-9]", true, true, false), op("Double"), merge(true)))
}

func TestSubsection_EmptyPatternRunsBlockOnWholeInput(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	out := mustBake(t, New(reg), "abc", op(ops.Subsection), op("To Upper case"), merge(true))
	assert.Equal(t, "ABC", out)
}

func TestSubsection_IgnoreErrors(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	steps := func(ignore bool) []ir.StepConfig {
		return []ir.StepConfig{
			op(ops.Subsection, ir.IRString("[0-9x]"), ir.IRBool(true), ir.IRBool(true), ir.IRBool(ignore)),
			op("Double"),
			merge(true),
		}
	}
	assert.Equal(t, "a2bx", mustBake(t, New(reg), "a1bx", steps(true)...))

	_, err := bakeString(t, New(reg), "a1bx", steps(false)...)
	require.Error(t, err)
	step, _ := FailedStep(err)
	assert.Equal(t, 1, step)
}

func TestSubsection_InvalidRegex(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	_, err := bakeString(t, New(reg), "abc", op(ops.Subsection, ir.IRString("(")), merge(true))
	assert.True(t, IsOperationError(err))
}
