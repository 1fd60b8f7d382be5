package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/config"
	"github.com/roach88/bake/internal/engine"
)

const upperReverseRecipe = `[
  {"op": "To Upper case", "args": ["All"]},
  {"op": "Reverse", "args": ["Character"]}
]`

const failRecipe = `[
  {"op": "To Upper case", "args": ["All"]},
  {"op": "Fail", "args": ["boom"]}
]`

// testRoot returns root options that ignore any $BAKE_CONFIG on the host.
func testRoot(t *testing.T, format string) *RootOptions {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")
	return &RootOptions{Format: format}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns its stdout and stderr.
func execute(cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// bakeInto runs recipe over input with a fixed bake ID, logging to dbPath.
func bakeInto(t *testing.T, dbPath, recipe, input, bakeID string) error {
	t.Helper()
	dir := t.TempDir()
	recipePath := writeFile(t, dir, "recipe.json", recipe)
	inputPath := writeFile(t, dir, "input.txt", input)

	cmd := newRunCommand(&RunOptions{
		RootOptions: testRoot(t, "text"),
		IDGenerator: engine.NewFixedGenerator(bakeID),
	})
	_, _, err := execute(cmd, "", recipePath, "--input", inputPath, "--db", dbPath)
	return err
}
