package store

import (
	"context"
	"fmt"

	"github.com/roach88/bake/internal/ir"
)

// WriteBake atomically writes a bake and its step rows in a single
// transaction.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: if a bake with the same
// ID already exists, nothing is written and inserted is false. The step
// rows' BakeID fields are ignored; every row is attached to bake.ID.
func (s *Store) WriteBake(ctx context.Context, bake ir.BakeRecord, steps []ir.StepRecord) (inserted bool, err error) {
	recipeJSON, err := marshalRecipe(bake.Recipe)
	if err != nil {
		return false, fmt.Errorf("write bake: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write bake: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO bakes
		(id, recipe_hash, input_hash, recipe, status, error_step, error_message, output_kind, output, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		bake.ID,
		bake.RecipeHash,
		bake.InputHash,
		recipeJSON,
		bake.Status,
		bake.ErrorStep,
		bake.ErrorMessage,
		bake.OutputKind,
		bake.Output,
		bake.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("write bake: insert bake: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write bake: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Bake already logged; its steps are already there too.
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bake_steps
		(bake_id, seq, step_index, op, depth, elapsed_ns, status, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("write bake: prepare steps: %w", err)
	}
	defer stmt.Close()

	for _, st := range steps {
		if _, err := stmt.ExecContext(ctx,
			bake.ID,
			st.Seq,
			st.StepIndex,
			st.Op,
			st.Depth,
			st.ElapsedNS,
			st.Status,
			st.Message,
		); err != nil {
			return false, fmt.Errorf("write bake: insert step %d: %w", st.StepIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write bake: commit: %w", err)
	}
	return true, nil
}
