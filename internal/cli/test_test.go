package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/harness"
)

const passingScenario = `name: upper
description: "Upper-cases the input"
recipe:
  - op: To Upper case
    args: [All]
input: "abc"
expect:
  output: "ABC"
  output_kind: string
`

const failingScenario = `name: wrong_output
description: "Expects the wrong output"
recipe:
  - op: To Upper case
input: "abc"
expect:
  output: "nope"
`

func TestTestCommandPasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "upper.yaml", passingScenario)

	stdout, _, err := execute(NewTestCommand(testRoot(t, "text")), "", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGoldenFiles(t *testing.T) {
	scenario := filepath.Join("..", "harness", "testdata", "scenarios", "upper_reverse.yaml")
	golden := filepath.Join("..", "harness", "testdata", "golden")

	stdout, _, err := execute(NewTestCommand(testRoot(t, "text")), "", scenario, "--golden", golden)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestTestCommandUpdate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "upper.yaml", passingScenario)
	golden := filepath.Join(dir, "golden")

	stdout, _, err := execute(NewTestCommand(testRoot(t, "text")), "", dir, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(1 golden files updated)")

	data, err := os.ReadFile(filepath.Join(golden, "upper.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"upper"`)

	// The freshly written golden now matches.
	_, _, err = execute(NewTestCommand(testRoot(t, "text")), "", dir, "--golden", golden)
	require.NoError(t, err)
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", passingScenario)
	writeFile(t, dir, "b.yaml", failingScenario)

	stdout, _, err := execute(NewTestCommand(testRoot(t, "text")), "", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ wrong_output")
	assert.Contains(t, stdout, "1 passed, 1 failed, 2 total")
	assert.Contains(t, err.Error(), "1 of 2 scenarios failed")
}

func TestTestCommandFailureJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", failingScenario)

	stdout, _, err := execute(NewTestCommand(testRoot(t, "json")), "", dir)
	require.Error(t, err)

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string              `json:"code"`
			Details harness.SuiteResult `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeScenarioFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Error.Details.Failed)
	require.Len(t, resp.Error.Details.Failures, 1)
	assert.Equal(t, "wrong_output", resp.Error.Details.Failures[0].Scenario)
}

func TestTestCommandEmptyDir(t *testing.T) {
	stdout, _, err := execute(NewTestCommand(testRoot(t, "text")), "", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommandErrors(t *testing.T) {
	_, _, err := execute(NewTestCommand(testRoot(t, "text")), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")

	_, _, err = execute(NewTestCommand(testRoot(t, "text")), "", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(NewTestCommand(testRoot(t, "text")), "", t.TempDir(), "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--update requires --golden")
}
