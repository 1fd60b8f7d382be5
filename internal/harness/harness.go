package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ops"
	"github.com/roach88/bake/internal/store"
	"github.com/roach88/bake/internal/testutil"
)

// Harness holds the per-scenario execution fixtures.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	recorder *store.Recorder
	ids      *testutil.FixedIDGenerator
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory bake log
// 2. Build an engine with a fresh clock and the scenario's limits
// 3. Bake the recipe on the scenario input
// 4. Write the bake and its steps to the log
// 5. Read the trace back and evaluate expectations and assertions
//
// The returned error reports harness failures (bad recipe, store errors);
// a bake that misbehaves is reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	input, err := scenario.InputBytes()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := newHarness(st, scenario)

	recipe, err := h.engine.NewRecipe(scenario.Steps...)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	bakeID := h.ids.Generate()
	res, bakeErr := recipe.Bake(ctx, dish.FromBytes(input))
	if bakeErr != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, bakeErr)
	}

	bake, err := store.NewBakeRecord(bakeID, scenario.Steps, input, res, bakeErr, h.engine.Clock().Next())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if _, err := st.WriteBake(ctx, bake, h.recorder.Steps(bakeID)); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	steps, err := st.ReadSteps(ctx, bakeID)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.BakeID = bakeID
	result.Status = bake.Status
	result.Output = bake.Output
	result.OutputKind = bake.OutputKind
	result.ErrorStep = int(bake.ErrorStep)
	result.Paused = res.Paused
	result.Registers = res.Registers
	result.Trace = traceFromSteps(steps)
	if bakeErr != nil {
		result.Error = bakeErr.Error()
	}

	for _, msg := range checkExpectation(scenario.Expect, result) {
		result.AddError(msg)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"bake", bakeID,
		"status", result.Status,
		"pass", result.Pass,
	)
	return result, nil
}

func newHarness(st *store.Store, scenario *Scenario) *Harness {
	recorder := store.NewRecorder()
	wall := testutil.NewDeterministicClock(time.Millisecond)

	parallelism := scenario.Engine.ForkParallelism
	if parallelism == 0 {
		parallelism = 1
	}
	opts := []engine.EngineOption{
		engine.WithReporter(recorder),
		engine.WithClock(engine.NewClock()),
		engine.WithNow(wall.Now),
		engine.WithForkParallelism(parallelism),
		engine.WithBreakpoints(scenario.Engine.Breakpoints),
	}
	if scenario.Engine.MaxJumps > 0 {
		opts = append(opts, engine.WithMaxJumps(scenario.Engine.MaxJumps))
	}

	return &Harness{
		store:    st,
		engine:   engine.New(ops.NewRegistry(), opts...),
		recorder: recorder,
		ids:      testutil.NewFixedIDGenerator(scenario.BakeID),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
}
