package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// SuiteOptions configures RunSuite.
type SuiteOptions struct {
	// GoldenDir, when set, compares each scenario's snapshot against
	// GoldenDir/{name}.golden. A missing golden file is a failure.
	GoldenDir string

	// Update rewrites golden files instead of comparing them.
	Update bool
}

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Updated        int               `json:"updated,omitempty"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents one failed scenario.
type ScenarioFailure struct {
	Scenario     string `json:"scenario,omitempty"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

func (r *SuiteResult) fail(name, path, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{Scenario: name, ScenarioPath: path, Error: msg})
}

// ExpandScenarioPaths resolves files and directories into a sorted list of
// scenario files. Directories contribute their *.yaml and *.yml entries.
func ExpandScenarioPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			out = append(out, matches...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// RunSuite loads and runs every scenario under paths.
//
// For each scenario:
// 1. Load and validate the scenario file
// 2. Run it via harness.Run
// 3. Compare (or update) its golden snapshot when GoldenDir is set
// 4. Collect and report results
//
// Scenario failures are collected in the result; the error return is
// reserved for unreadable paths and cancellation.
func RunSuite(ctx context.Context, paths []string, opts SuiteOptions) (*SuiteResult, error) {
	files, err := ExpandScenarioPaths(paths)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail("", path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		runResult, err := RunContext(ctx, scenario)
		if err != nil {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}

		if !runResult.Pass {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario assertions failed: %v", runResult.Errors))
			continue
		}

		if opts.GoldenDir != "" {
			updated, err := checkGoldenFile(opts, scenario.Name, runResult)
			if err != nil {
				result.fail(scenario.Name, path, err.Error())
				continue
			}
			if updated {
				result.Updated++
			}
		}

		result.Passed++
	}

	return result, nil
}

// checkGoldenFile compares a snapshot with its golden file, or rewrites the
// file when opts.Update is set. It mirrors goldie's file layout so the CLI
// and package tests share golden files.
func checkGoldenFile(opts SuiteOptions, name string, result *Result) (updated bool, err error) {
	data, err := Snapshot(name, result)
	if err != nil {
		return false, fmt.Errorf("snapshot: %w", err)
	}
	path := filepath.Join(opts.GoldenDir, name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return false, fmt.Errorf("golden dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return false, fmt.Errorf("write golden: %w", err)
		}
		return true, nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read golden: %w", err)
	}
	if !bytes.Equal(want, data) {
		return false, fmt.Errorf("golden mismatch for %s:\n  want: %s\n  got:  %s", name, want, data)
	}
	return false, nil
}
