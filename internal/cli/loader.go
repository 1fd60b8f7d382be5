package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/bake/internal/compiler"
	"github.com/roach88/bake/internal/ir"
)

// stdinPath names standard input for --input and recipe arguments.
const stdinPath = "-"

// loadRecipe reads a recipe document from path ("-" for stdin). The format
// comes from formatName when set, else from the file extension.
func loadRecipe(path, formatName string, stdin io.Reader) ([]ir.StepConfig, error) {
	format := compiler.DetectFormat(path)
	if formatName != "" {
		f, err := compiler.ParseFormat(formatName)
		if err != nil {
			return nil, err
		}
		format = f
	}

	data, err := readSource(path, stdin)
	if err != nil {
		return nil, err
	}
	steps, err := compiler.Parse(path, format, data)
	if err != nil {
		return nil, err
	}
	slog.Debug("recipe loaded", "path", path, "format", format, "steps", len(steps))
	return steps, nil
}

// loadInput reads the bake input. An empty path means no input; "-" reads
// stdin.
func loadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return []byte{}, nil
	}
	return readSource(path, stdin)
}

func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path == stdinPath {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
