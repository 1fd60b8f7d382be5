package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/store"
)

type jsonBake struct {
	Status string      `json:"status"`
	Data   bakeSummary `json:"data"`
	Error  *struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details bakeSummary `json:"details"`
	} `json:"error"`
}

func TestRunWritesOutput(t *testing.T) {
	dir := t.TempDir()
	recipe := writeFile(t, dir, "recipe.json", upperReverseRecipe)
	input := writeFile(t, dir, "input.txt", "abc")

	stdout, stderr, err := execute(NewRunCommand(testRoot(t, "text")), "", recipe, "--input", input)
	require.NoError(t, err)
	assert.Equal(t, "CBA", stdout)
	assert.Empty(t, stderr)
}

func TestRunYAMLRecipeFromStdinInput(t *testing.T) {
	dir := t.TempDir()
	recipe := writeFile(t, dir, "recipe.yaml", "- op: To Base64\n")

	stdout, _, err := execute(NewRunCommand(testRoot(t, "text")), "hello", recipe, "--input", "-")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", stdout)
}

func TestRunRecipeFormatOverride(t *testing.T) {
	dir := t.TempDir()
	recipe := writeFile(t, dir, "recipe.txt", `[{"op": "To Upper case"}]`)

	stdout, _, err := execute(NewRunCommand(testRoot(t, "text")), "abc", recipe, "--input", "-", "--recipe-format", "json")
	require.NoError(t, err)
	assert.Equal(t, "ABC", stdout)

	_, _, err = execute(NewRunCommand(testRoot(t, "text")), "abc", recipe, "--recipe-format", "toml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunBothFromStdin(t *testing.T) {
	_, _, err := execute(NewRunCommand(testRoot(t, "text")), "", "-", "--input", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both be read from stdin")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	recipe := writeFile(t, dir, "recipe.json", upperReverseRecipe)

	cmd := newRunCommand(&RunOptions{
		RootOptions: testRoot(t, "json"),
		IDGenerator: engine.NewFixedGenerator("bake-json"),
	})
	stdout, _, err := execute(cmd, "abc", recipe, "--input", "-")
	require.NoError(t, err)

	var resp jsonBake
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "bake-json", resp.Data.BakeID)
	assert.Equal(t, "CBA", resp.Data.Output)
	assert.Equal(t, "byteArray", resp.Data.OutputKind)
	assert.Equal(t, int64(-1), resp.Data.ErrorStep)
	assert.False(t, resp.Data.Logged)
}

func TestRunFailingRecipe(t *testing.T) {
	dir := t.TempDir()
	recipe := writeFile(t, dir, "recipe.json", failRecipe)

	stdout, stderr, err := execute(NewRunCommand(testRoot(t, "text")), "abc", recipe, "--input", "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "ABC", stdout, "partial dish is still written")
	assert.Contains(t, stderr, "✗ Fail - boom (step 1)")
}

func TestRunFailingRecipeJSON(t *testing.T) {
	dir := t.TempDir()
	recipe := writeFile(t, dir, "recipe.json", failRecipe)

	stdout, _, err := execute(NewRunCommand(testRoot(t, "json")), "abc", recipe, "--input", "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp jsonBake
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeBakeFailed, resp.Error.Code)
	assert.Equal(t, int64(1), resp.Error.Details.ErrorStep)
	assert.Equal(t, "error", resp.Error.Details.Status)
}

func TestRunUnknownOperation(t *testing.T) {
	dir := t.TempDir()
	recipe := writeFile(t, dir, "recipe.json", `[{"op": "Frobnicate"}]`)

	_, _, err := execute(NewRunCommand(testRoot(t, "text")), "", recipe)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid recipe")
	assert.Contains(t, err.Error(), "Frobnicate")
}

func TestRunMissingRecipe(t *testing.T) {
	_, _, err := execute(NewRunCommand(testRoot(t, "text")), "", "/nonexistent/recipe.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load recipe")
}

func TestRunMissingInput(t *testing.T) {
	recipe := writeFile(t, t.TempDir(), "recipe.json", upperReverseRecipe)
	_, _, err := execute(NewRunCommand(testRoot(t, "text")), "", recipe, "--input", "/nonexistent/input")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to read input")
}

func TestRunOutputKind(t *testing.T) {
	recipe := writeFile(t, t.TempDir(), "recipe.json", upperReverseRecipe)

	stdout, _, err := execute(NewRunCommand(testRoot(t, "json")), "abc", recipe, "--input", "-", "--output-kind", "string")
	require.NoError(t, err)
	var resp jsonBake
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "string", resp.Data.OutputKind)
	assert.Equal(t, "CBA", resp.Data.Output)

	_, _, err = execute(NewRunCommand(testRoot(t, "text")), "abc", recipe, "--input", "-", "--output-kind", "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunBreakpoint(t *testing.T) {
	recipe := writeFile(t, t.TempDir(), "recipe.json", `[
  {"op": "To Upper case", "args": ["All"]},
  {"op": "Reverse", "args": ["Character"], "breakpoint": true}
]`)

	stdout, _, err := execute(NewRunCommand(testRoot(t, "text")), "abc", recipe, "--input", "-")
	require.NoError(t, err)
	assert.Equal(t, "CBA", stdout, "breakpoints are off by default")

	stdout, stderr, err := execute(NewRunCommand(testRoot(t, "text")), "abc", recipe, "--input", "-", "--breakpoints")
	require.NoError(t, err)
	assert.Equal(t, "ABC", stdout)
	assert.Contains(t, stderr, "paused at step 1")
}

func TestRunLogsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bake.db")

	require.NoError(t, bakeInto(t, dbPath, upperReverseRecipe, "abc", "bake-1"))
	err := bakeInto(t, dbPath, failRecipe, "abc", "bake-2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ok, err := st.ReadBake(t.Context(), "bake-1")
	require.NoError(t, err)
	assert.Equal(t, ir.BakeStatusOK, ok.Status)
	assert.Equal(t, []byte("CBA"), ok.Output)
	assert.Equal(t, ir.InputHash([]byte("abc")), ok.InputHash)

	failed, err := st.ReadBake(t.Context(), "bake-2")
	require.NoError(t, err)
	assert.Equal(t, ir.BakeStatusError, failed.Status)
	assert.Equal(t, int64(1), failed.ErrorStep)
	assert.Greater(t, failed.Seq, ok.Seq, "the clock continues from the log")

	steps, err := st.ReadSteps(t.Context(), "bake-2")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "Fail", steps[1].Op)
	assert.Equal(t, "boom", steps[1].Message)
	assert.Greater(t, steps[0].Seq, ok.Seq)
}

func TestRunDatabaseFromConfig(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bake.db")
	cfgPath := writeFile(t, dir, "bake.toml", "[store]\ndatabase = \""+filepath.ToSlash(dbPath)+"\"\n")
	recipe := writeFile(t, dir, "recipe.json", upperReverseRecipe)

	opts := testRoot(t, "json")
	opts.ConfigPath = cfgPath
	stdout, _, err := execute(NewRunCommand(opts), "abc", recipe, "--input", "-")
	require.NoError(t, err)

	var resp jsonBake
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.True(t, resp.Data.Logged)
}

func TestRunHelpText(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{})
	assert.Equal(t, "run <recipe>", cmd.Use)
	assert.Contains(t, cmd.Long, "--db")
	assert.Contains(t, cmd.Long, "Examples:")
}
