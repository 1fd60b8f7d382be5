package engine

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

// blockEnd finds the Merge closing the block opened at step i and returns
// its index, or len(steps) when the block runs to the end of the recipe.
//
// Nested Fork and Subsection steps open further blocks. A Merge with
// "Merge all" set closes every open block at once. Disabled Merges do not
// count, but disabled openers do.
func blockEnd(st *State, i int) int {
	depth := 1
	for j := i + 1; j < len(st.steps); j++ {
		s := st.steps[j]
		switch {
		case s.name() == ops.Merge && !s.config.Disabled:
			depth--
			mergeAll, err := st.Args(j).Bool(0)
			if depth == 0 || err != nil || mergeAll {
				return j
			}
		case ops.OpensBlock(s.name()):
			depth++
		}
	}
	return len(st.steps)
}

// branchResult is the outcome of running a block on one piece of input.
type branchResult struct {
	output string
	err    error
}

// runBranch runs sub on input in a child state. With ignoreErrors a failing
// branch still yields whatever its dish holds, except on cancellation.
func (e *Engine) runBranch(ctx context.Context, st *State, sub []step, input string, offset int, outKind dish.Kind, ignoreErrors bool) branchResult {
	child := st.branch(sub, dish.FromString(input), offset)
	if err := e.run(ctx, child); err != nil {
		if !ignoreErrors || isCancellation(err) {
			return branchResult{err: err}
		}
		slog.Debug("ignoring branch error", "offset", offset, "error", err)
	}
	out, err := child.Dish.Get(outKind)
	if err != nil {
		if ignoreErrors {
			return branchResult{output: input}
		}
		return branchResult{err: err}
	}
	return branchResult{output: out.(string)}
}

// fork splits the input, runs the block up to the matching Merge on each
// piece, and joins the outputs. Execution resumes at the Merge.
func (e *Engine) fork(ctx context.Context, st *State, i int) error {
	desc := st.steps[i].desc
	args := st.Args(i)
	splitDelim, err := args.Binary(0)
	if err != nil {
		return err
	}
	mergeDelim, err := args.Binary(1)
	if err != nil {
		return err
	}
	ignoreErrors, err := args.Bool(2)
	if err != nil {
		return err
	}
	in, err := st.Dish.Get(desc.InputType)
	if err != nil {
		return err
	}
	input := in.(string)

	end := blockEnd(st, i)
	sub := st.flatten(i+1, end)
	offset := st.ForkOffset + i + 1

	var inputs []string
	if input != "" {
		inputs = strings.Split(input, splitDelim)
	}
	results := make([]branchResult, len(inputs))
	report := func(j int) {
		e.reporter.BranchFinished(BranchEvent{
			Seq:    e.clock.Next(),
			Index:  st.ForkOffset + i,
			Op:     desc.Name,
			Branch: j,
			Total:  len(inputs),
			Err:    results[j].err,
		})
	}

	if e.forkParallelism > 1 && len(inputs) > 1 {
		var g errgroup.Group
		g.SetLimit(e.forkParallelism)
		for j := range inputs {
			g.Go(func() error {
				results[j] = e.runBranch(ctx, st, sub, inputs[j], offset, desc.OutputType, ignoreErrors)
				report(j)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for j := range inputs {
			results[j] = e.runBranch(ctx, st, sub, inputs[j], offset, desc.OutputType, ignoreErrors)
			report(j)
			if results[j].err != nil {
				break
			}
		}
	}

	outputs := make([]string, len(results))
	for j, r := range results {
		if r.err != nil {
			return r.err
		}
		outputs[j] = r.output
	}
	if err := st.Dish.Set(strings.Join(outputs, mergeDelim), desc.OutputType); err != nil {
		return err
	}
	st.Progress = end
	return nil
}

type span struct {
	start, length int
}

// subsection runs the block up to the matching Merge on each regex match of
// the input (the first capture group when the pattern has one) and splices
// the outputs back in place. An empty pattern makes it a no-op, so the
// block runs on the whole input.
func (e *Engine) subsection(ctx context.Context, st *State, i int) error {
	desc := st.steps[i].desc
	args := st.Args(i)
	pattern, err := args.String(0)
	if err != nil {
		return err
	}
	caseSensitive, err := args.Bool(1)
	if err != nil {
		return err
	}
	global, err := args.Bool(2)
	if err != nil {
		return err
	}
	ignoreErrors, err := args.Bool(3)
	if err != nil {
		return err
	}
	if pattern == "" {
		st.Progress = i + 1
		return nil
	}
	in, err := st.Dish.Get(desc.InputType)
	if err != nil {
		return err
	}
	input := in.(string)

	re, err := ops.CompileRegex(pattern, !caseSensitive, false, false)
	if err != nil {
		return operation.Wrap(err, "invalid section regex")
	}
	var sections []span
	m, err := re.FindStringMatch(input)
	for err == nil && m != nil {
		if m.Length > 0 {
			sp := span{m.Index, m.Length}
			if groups := m.Groups(); len(groups) > 1 && len(groups[1].Captures) > 0 {
				sp = span{groups[1].Index, groups[1].Length}
			}
			sections = append(sections, sp)
			if !global {
				break
			}
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return operation.Wrap(err, "section regex failed")
	}

	end := blockEnd(st, i)
	sub := st.flatten(i+1, end)
	offset := st.ForkOffset + i + 1

	// regexp2 reports positions in runes.
	runes := []rune(input)
	var b strings.Builder
	prev := 0
	for j, sp := range sections {
		if sp.start < prev {
			continue
		}
		b.WriteString(string(runes[prev:sp.start]))
		r := e.runBranch(ctx, st, sub, string(runes[sp.start:sp.start+sp.length]), offset, desc.OutputType, ignoreErrors)
		e.reporter.BranchFinished(BranchEvent{
			Seq:    e.clock.Next(),
			Index:  st.ForkOffset + i,
			Op:     desc.Name,
			Branch: j,
			Total:  len(sections),
			Err:    r.err,
		})
		if r.err != nil {
			return r.err
		}
		b.WriteString(r.output)
		prev = sp.start + sp.length
	}
	b.WriteString(string(runes[prev:]))

	if err := st.Dish.Set(b.String(), desc.OutputType); err != nil {
		return err
	}
	st.Progress = end
	return nil
}
