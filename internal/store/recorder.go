package store

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ir"
)

// Recorder is an engine.Reporter that buffers one StepRecord per finished
// step. The rows are written together with their bake by WriteBake, so a
// crashed run leaves nothing half-logged.
//
// Thread-safety: parallel fork branches report concurrently; Recorder
// serializes them with a mutex. Rows are kept in seq order on read.
type Recorder struct {
	mu    sync.Mutex
	steps []ir.StepRecord
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// StepStarted implements engine.Reporter. Nothing is recorded until the
// step finishes.
func (r *Recorder) StepStarted(engine.StepEvent) {}

// StepFinished implements engine.Reporter.
func (r *Recorder) StepFinished(ev engine.StepEvent) {
	rec := ir.StepRecord{
		Seq:       ev.Seq,
		StepIndex: int64(ev.Index),
		Op:        ev.Op,
		Depth:     int64(ev.Depth),
		ElapsedNS: ev.Elapsed.Nanoseconds(),
		Status:    ir.BakeStatusOK,
	}
	switch {
	case ev.Paused:
		rec.Status = ir.BakeStatusPaused
	case ev.Err != nil:
		rec.Status = ir.BakeStatusError
		rec.Message = stepMessage(ev.Err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, rec)
}

// BranchFinished implements engine.Reporter. Branch progress is not logged.
func (r *Recorder) BranchFinished(engine.BranchEvent) {}

// Steps returns the recorded rows ordered by seq, each attached to bakeID.
func (r *Recorder) Steps(bakeID string) []ir.StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ir.StepRecord, len(r.steps))
	copy(out, r.steps)
	for i := range out {
		out[i].BakeID = bakeID
	}
	slices.SortStableFunc(out, func(a, b ir.StepRecord) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return out
}

// Reset drops all recorded rows so the recorder can serve another bake.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = nil
}

// stepMessage strips the step annotation from a step's error; the row
// already carries the index and operation.
func stepMessage(err error) string {
	var se *engine.StepError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

// NewBakeRecord assembles the log row for a finished bake. res may be nil
// when the recipe never ran; bakeErr is the error Bake returned.
func NewBakeRecord(id string, recipe []ir.StepConfig, input []byte, res *engine.Result, bakeErr error, seq int64) (ir.BakeRecord, error) {
	recipeHash, err := ir.RecipeHash(recipe)
	if err != nil {
		return ir.BakeRecord{}, err
	}
	rec := ir.BakeRecord{
		ID:         id,
		RecipeHash: recipeHash,
		InputHash:  ir.InputHash(input),
		Recipe:     ir.CloneSteps(recipe),
		Status:     ir.BakeStatusOK,
		ErrorStep:  -1,
		OutputKind: dish.ArrayBuffer.String(),
		Seq:        seq,
	}

	switch {
	case bakeErr != nil:
		rec.Status = ir.BakeStatusError
		rec.ErrorMessage = bakeErr.Error()
		if idx, ok := engine.FailedStep(bakeErr); ok {
			rec.ErrorStep = int64(idx)
		}
	case res != nil && res.Paused:
		rec.Status = ir.BakeStatusPaused
	}

	if res != nil && res.Dish != nil {
		out, err := res.Dish.Output()
		if err != nil {
			return ir.BakeRecord{}, fmt.Errorf("render output: %w", err)
		}
		rec.Output = out
		rec.OutputKind = res.Dish.Kind().String()
	}
	return rec, nil
}
