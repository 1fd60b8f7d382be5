package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ir"
)

// ReplayResult compares a logged bake with a fresh run of the same recipe
// on the same input.
type ReplayResult struct {
	Bake ir.BakeRecord

	// Status, ErrorStep, and Output describe the fresh run.
	Status    string
	ErrorStep int64
	Output    []byte

	// Drift lists every field that differs from the log. Empty means the
	// replay reproduced the logged bake exactly.
	Drift []string
}

// Identical reports whether the replay reproduced the logged bake.
func (r ReplayResult) Identical() bool {
	return len(r.Drift) == 0
}

// InputMismatchError reports a replay input whose hash differs from the
// logged one.
type InputMismatchError struct {
	BakeID string
	Want   string
	Got    string
}

func (e *InputMismatchError) Error() string {
	return fmt.Sprintf("replay %s: input hash %s does not match logged %s", e.BakeID, e.Got, e.Want)
}

// Replay re-runs a logged bake's recipe on input and reports drift in
// status, failing step, output kind, or output bytes. The input must hash
// to the logged input_hash. Nothing is written to the log.
func (s *Store) Replay(ctx context.Context, eng *engine.Engine, bakeID string, input []byte) (ReplayResult, error) {
	bake, err := s.ReadBake(ctx, bakeID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", bakeID, err)
	}
	if got := ir.InputHash(input); got != bake.InputHash {
		return ReplayResult{}, &InputMismatchError{BakeID: bakeID, Want: bake.InputHash, Got: got}
	}

	recipe, err := eng.NewRecipe(bake.Recipe...)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", bakeID, err)
	}
	res, bakeErr := recipe.Bake(ctx, dish.FromBytes(input))
	if bakeErr != nil && ctx.Err() != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", bakeID, bakeErr)
	}

	fresh, err := NewBakeRecord(bake.ID, bake.Recipe, input, res, bakeErr, bake.Seq)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", bakeID, err)
	}

	result := ReplayResult{
		Bake:      bake,
		Status:    fresh.Status,
		ErrorStep: fresh.ErrorStep,
		Output:    fresh.Output,
		Drift:     []string{},
	}
	if fresh.RecipeHash != bake.RecipeHash {
		result.Drift = append(result.Drift, "recipe_hash")
	}
	if fresh.Status != bake.Status {
		result.Drift = append(result.Drift, "status")
	}
	if fresh.ErrorStep != bake.ErrorStep {
		result.Drift = append(result.Drift, "error_step")
	}
	if fresh.OutputKind != bake.OutputKind {
		result.Drift = append(result.Drift, "output_kind")
	}
	if !bytes.Equal(fresh.Output, bake.Output) {
		result.Drift = append(result.Drift, "output")
	}

	slog.Debug("replay finished", "bake", bakeID, "status", fresh.Status, "drift", result.Drift)
	return result, nil
}
