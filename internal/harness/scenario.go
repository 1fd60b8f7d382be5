package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bake/internal/compiler"
	"github.com/roach88/bake/internal/ir"
)

// Scenario defines a recipe conformance scenario: a recipe, an input, and
// what baking one with the other must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Recipe is an inline recipe document in the YAML recipe shape.
	Recipe yaml.Node `yaml:"recipe,omitempty"`

	// RecipeFile points at a JSON, YAML, or CUE recipe document.
	// Relative paths resolve against the scenario file's directory.
	RecipeFile string `yaml:"recipe_file,omitempty"`

	// Input is the raw input as text. InputHex gives it as hex instead.
	Input    string `yaml:"input,omitempty"`
	InputHex string `yaml:"input_hex,omitempty"`

	Engine EngineOverrides `yaml:"engine,omitempty"`

	// Expect checks the bake outcome. If nil, the bake must merely succeed.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Assertions validate the logged trace and rows.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// BakeID is an optional fixed bake ID for deterministic tests.
	// If empty, defaults to "test-bake-default".
	BakeID string `yaml:"bake_id,omitempty"`

	// Steps is the resolved recipe. LoadScenario fills it from Recipe or
	// RecipeFile; scenarios built in code set it directly.
	Steps []ir.StepConfig `yaml:"-"`
}

// EngineOverrides adjusts engine limits for one scenario.
type EngineOverrides struct {
	// ForkParallelism defaults to 1 so fork traces are deterministic.
	ForkParallelism int  `yaml:"fork_parallelism,omitempty"`
	MaxJumps        int  `yaml:"max_jumps,omitempty"`
	Breakpoints     bool `yaml:"breakpoints,omitempty"`
}

// Expectation specifies the expected bake outcome. Unset fields are not
// checked, except that a bake error fails the scenario unless Error is set.
type Expectation struct {
	Output     *string `yaml:"output,omitempty"`
	OutputHex  string  `yaml:"output_hex,omitempty"`
	OutputKind string  `yaml:"output_kind,omitempty"`

	// Error is a substring the bake error must contain.
	Error     string `yaml:"error,omitempty"`
	ErrorStep *int   `yaml:"error_step,omitempty"`

	Paused    bool     `yaml:"paused,omitempty"`
	Registers []string `yaml:"registers,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check op appears in trace (with Status, if set)
	// - "trace_order": Check ops appear in order
	// - "trace_count": Check op appears exactly N times
	// - "final_state": Query the bake log and verify expected values
	Type string `yaml:"type"`

	// Op is the operation name (used by trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Status narrows trace_contains to rows with this status.
	Status string `yaml:"status,omitempty"`

	// Ops is the expected op order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Table is bakes or bake_steps (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies column filters (used by final_state).
	// All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.resolveRecipe(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// resolveRecipe fills Steps from the inline recipe or the recipe file.
func (s *Scenario) resolveRecipe(baseDir string) error {
	inline := s.Recipe.Kind != 0
	switch {
	case inline && s.RecipeFile != "":
		return fmt.Errorf("recipe and recipe_file are mutually exclusive")
	case inline:
		doc, err := yaml.Marshal(&s.Recipe)
		if err != nil {
			return fmt.Errorf("recipe: %w", err)
		}
		steps, err := compiler.ParseYAML(doc)
		if err != nil {
			return err
		}
		s.Steps = steps
	case s.RecipeFile != "":
		path := s.RecipeFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		steps, err := compiler.LoadFile(path)
		if err != nil {
			return fmt.Errorf("recipe_file %s: %w", s.RecipeFile, err)
		}
		s.Steps = steps
	default:
		return fmt.Errorf("recipe or recipe_file is required")
	}
	return nil
}

// InputBytes returns the scenario input.
func (s *Scenario) InputBytes() ([]byte, error) {
	if s.InputHex != "" {
		b, err := hex.DecodeString(s.InputHex)
		if err != nil {
			return nil, fmt.Errorf("input_hex: %w", err)
		}
		return b, nil
	}
	return []byte(s.Input), nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input != "" && s.InputHex != "" {
		return fmt.Errorf("input and input_hex are mutually exclusive")
	}
	if _, err := s.InputBytes(); err != nil {
		return err
	}

	if s.Engine.ForkParallelism < 0 {
		return fmt.Errorf("engine.fork_parallelism must be non-negative")
	}
	if s.Engine.MaxJumps < 0 {
		return fmt.Errorf("engine.max_jumps must be non-negative")
	}

	if e := s.Expect; e != nil {
		if e.Output != nil && e.OutputHex != "" {
			return fmt.Errorf("expect: output and output_hex are mutually exclusive")
		}
		if _, err := hex.DecodeString(e.OutputHex); err != nil {
			return fmt.Errorf("expect.output_hex: %w", err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
