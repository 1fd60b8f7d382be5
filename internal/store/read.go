package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/bake/internal/ir"
)

const bakeColumns = `id, recipe_hash, input_hash, recipe, status, error_step, error_message, output_kind, output, seq`

const stepColumns = `id, bake_id, seq, step_index, op, depth, elapsed_ns, status, message`

// ReadBake retrieves a single bake by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadBake(ctx context.Context, id string) (ir.BakeRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bakeColumns+` FROM bakes WHERE id = ?`, id)
	return scanBake(row)
}

// ReadSteps returns the step rows of a bake in event order.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC.
//
// Returns an empty slice (not nil) if the bake has no steps.
func (s *Store) ReadSteps(ctx context.Context, bakeID string) ([]ir.StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+stepColumns+`
		FROM bake_steps
		WHERE bake_id = ?
		ORDER BY seq ASC, id ASC
	`, bakeID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	return collectSteps(rows)
}

// ReadAllBakes returns every bake with deterministic ordering.
func (s *Store) ReadAllBakes(ctx context.Context) ([]ir.BakeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bakeColumns+`
		FROM bakes
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all bakes: %w", err)
	}
	return collectBakes(rows)
}

// MaxSeq returns the highest seq in the log, or 0 for an empty log.
// The CLI continues the engine clock from here.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM bakes), 0),
			COALESCE((SELECT MAX(seq) FROM bake_steps), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBake(row rowScanner) (ir.BakeRecord, error) {
	var b ir.BakeRecord
	var recipeJSON string
	if err := row.Scan(
		&b.ID, &b.RecipeHash, &b.InputHash, &recipeJSON, &b.Status,
		&b.ErrorStep, &b.ErrorMessage, &b.OutputKind, &b.Output, &b.Seq,
	); err != nil {
		if err == sql.ErrNoRows {
			return ir.BakeRecord{}, err
		}
		return ir.BakeRecord{}, fmt.Errorf("scan bake: %w", err)
	}

	recipe, err := unmarshalRecipe(recipeJSON)
	if err != nil {
		return ir.BakeRecord{}, fmt.Errorf("bake %s: %w", b.ID, err)
	}
	b.Recipe = recipe
	return b, nil
}

func scanStep(row rowScanner) (ir.StepRecord, error) {
	var st ir.StepRecord
	if err := row.Scan(
		&st.ID, &st.BakeID, &st.Seq, &st.StepIndex, &st.Op,
		&st.Depth, &st.ElapsedNS, &st.Status, &st.Message,
	); err != nil {
		return ir.StepRecord{}, fmt.Errorf("scan step: %w", err)
	}
	return st, nil
}

func collectBakes(rows *sql.Rows) ([]ir.BakeRecord, error) {
	defer rows.Close()

	bakes := []ir.BakeRecord{}
	for rows.Next() {
		b, err := scanBake(rows)
		if err != nil {
			return nil, err
		}
		bakes = append(bakes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bakes: %w", err)
	}
	return bakes, nil
}

func collectSteps(rows *sql.Rows) ([]ir.StepRecord, error) {
	defer rows.Close()

	steps := []ir.StepRecord{}
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}
