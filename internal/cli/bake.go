package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/bake/internal/config"
	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/engine"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/ops"
	"github.com/roach88/bake/internal/store"
)

// bakeRequest is one CLI bake: a recipe, its input, and where to log it.
type bakeRequest struct {
	Steps    []ir.StepConfig
	Input    []byte
	Database string // empty disables logging
	IDs      engine.IDGenerator

	// OutputKind, when set, converts the final dish before it is rendered.
	OutputKind *dish.Kind
}

// bakeOutcome is the logged record of a finished bake plus its step rows.
type bakeOutcome struct {
	Bake   ir.BakeRecord
	Steps  []ir.StepRecord
	Result *engine.Result
	Err    error
	Logged bool
}

// bakeContext derives the context for one bake: cancelled on SIGINT or
// SIGTERM and bounded by the configured timeout.
func bakeContext(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if cfg.Engine.Timeout.Duration <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Engine.Timeout.Duration)
	return ctx, func() {
		cancel()
		stop()
	}
}

// executeBake runs req under the engine settings of cfg and logs it when a
// database is given. A failing recipe is not an error here; it is reported
// in bakeOutcome.Err and the bake is still logged.
func executeBake(ctx context.Context, cfg *config.Config, req bakeRequest, extra ...engine.EngineOption) (*bakeOutcome, error) {
	var st *store.Store
	var seqStart int64
	if req.Database != "" {
		var err error
		st, err = store.Open(req.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		seqStart, err = st.MaxSeq(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read bake log", err)
		}
	}

	recorder := store.NewRecorder()
	opts := append(cfg.EngineOptions(),
		engine.WithClock(engine.NewClockAt(seqStart)),
		engine.WithReporter(engine.MultiReporter{recorder, engine.LogReporter{Logger: slog.Default()}}),
	)
	eng := engine.New(ops.NewRegistry(), append(opts, extra...)...)

	recipe, err := eng.NewRecipe(req.Steps...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid recipe", err)
	}

	ids := req.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	id := ids.Generate()

	slog.Info("bake started", "bake", id, "steps", len(req.Steps), "input_bytes", len(req.Input))
	res, bakeErr := recipe.Bake(ctx, dish.FromBytes(req.Input))
	if bakeErr != nil && ctx.Err() != nil {
		return nil, WrapExitError(ExitFailure, "bake cancelled", ctx.Err())
	}
	if bakeErr == nil && req.OutputKind != nil && res != nil && res.Dish != nil {
		if _, err := res.Dish.Get(*req.OutputKind); err != nil {
			bakeErr = fmt.Errorf("convert output to %s: %w", *req.OutputKind, err)
		}
	}

	rec, err := store.NewBakeRecord(id, req.Steps, req.Input, res, bakeErr, eng.Clock().Next())
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to render output", err)
	}
	out := &bakeOutcome{Bake: rec, Steps: recorder.Steps(id), Result: res, Err: bakeErr}
	slog.Info("bake finished", "bake", id, "status", rec.Status, "seq", rec.Seq)

	if st != nil {
		// A cancelled bake never gets here, so the write uses the parent context.
		if _, err := st.WriteBake(context.WithoutCancel(ctx), rec, out.Steps); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to log bake", err)
		}
		out.Logged = true
	}
	return out, nil
}

// bakeSummary is the JSON payload of run and invoke.
type bakeSummary struct {
	BakeID       string   `json:"bake_id"`
	Status       string   `json:"status"`
	OutputKind   string   `json:"output_kind"`
	Output       string   `json:"output"`
	ErrorStep    int64    `json:"error_step"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Registers    []string `json:"registers,omitempty"`
	Logged       bool     `json:"logged"`
}

func summarize(out *bakeOutcome) bakeSummary {
	s := bakeSummary{
		BakeID:       out.Bake.ID,
		Status:       out.Bake.Status,
		OutputKind:   out.Bake.OutputKind,
		Output:       string(out.Bake.Output),
		ErrorStep:    out.Bake.ErrorStep,
		ErrorMessage: out.Bake.ErrorMessage,
		Logged:       out.Logged,
	}
	if out.Result != nil {
		s.Registers = out.Result.Registers
	}
	return s
}

// reportBake writes a bake outcome in the requested format. Text mode
// writes the output bytes to stdout and status lines to stderr. A failed
// bake becomes an ExitFailure error.
func reportBake(format string, stdout, stderr io.Writer, out *bakeOutcome) error {
	if format == "json" {
		if out.Err != nil {
			if err := writeFailure(stdout, CodeBakeFailed, out.Err.Error(), summarize(out)); err != nil {
				return err
			}
		} else if err := writeOK(stdout, summarize(out)); err != nil {
			return err
		}
	} else {
		if err := writeOutput(stdout, out.Bake.Output); err != nil {
			return err
		}
		switch out.Bake.Status {
		case ir.BakeStatusError:
			fmt.Fprintf(stderr, "✗ %s\n", out.Err)
		case ir.BakeStatusPaused:
			fmt.Fprintf(stderr, "⏸ paused at step %d\n", out.Result.Progress)
		}
	}
	if out.Err != nil {
		return WrapExitError(ExitFailure, "bake failed", out.Err)
	}
	return nil
}
