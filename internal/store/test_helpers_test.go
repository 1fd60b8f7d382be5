package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/ops"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestBake creates a bake record with minimal required fields.
func createTestBake(id, status string, seq int64) ir.BakeRecord {
	recipe := []ir.StepConfig{{Op: "To Upper case", Args: ir.IRArray{ir.IRString("All")}}}
	return ir.BakeRecord{
		ID:         id,
		RecipeHash: ir.MustRecipeHash(recipe),
		InputHash:  ir.InputHash([]byte("abc")),
		Recipe:     recipe,
		Status:     status,
		ErrorStep:  -1,
		OutputKind: "string",
		Output:     []byte("ABC"),
		Seq:        seq,
	}
}

// createTestStep creates a step row for a bake.
func createTestStep(index, seq int64, op string) ir.StepRecord {
	return ir.StepRecord{
		Seq:       seq,
		StepIndex: index,
		Op:        op,
		ElapsedNS: 1000,
		Status:    ir.BakeStatusOK,
	}
}

// setupTestEngine returns an engine over the built-in catalogue.
// Failing bakes use the catalogue's "Fail" operation; see failStep.
func setupTestEngine(t *testing.T, opts ...engine.EngineOption) *engine.Engine {
	t.Helper()
	return engine.New(ops.NewRegistry(), opts...)
}

// bakeAndRecord runs steps on input through a Recorder and writes the
// result to s, the way the CLI does.
func bakeAndRecord(t *testing.T, s *Store, id, input string, steps ...ir.StepConfig) ir.BakeRecord {
	t.Helper()
	rec := NewRecorder()
	eng := setupTestEngine(t, engine.WithReporter(rec))
	recipe, err := eng.NewRecipe(steps...)
	if err != nil {
		t.Fatalf("NewRecipe() failed: %v", err)
	}
	res, bakeErr := recipe.Bake(context.Background(), dish.FromString(input))

	bake, err := NewBakeRecord(id, steps, []byte(input), res, bakeErr, eng.Clock().Next())
	if err != nil {
		t.Fatalf("NewBakeRecord() failed: %v", err)
	}
	if _, err := s.WriteBake(context.Background(), bake, rec.Steps(id)); err != nil {
		t.Fatalf("WriteBake() failed: %v", err)
	}
	return bake
}

// failStep is a step that always fails with the message "boom".
func failStep() ir.StepConfig {
	return step("Fail", ir.IRString("boom"))
}

func step(op string, args ...ir.IRValue) ir.StepConfig {
	return ir.StepConfig{Op: op, Args: ir.IRArray(args)}
}
