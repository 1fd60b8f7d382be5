package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/queryir"
	"github.com/roach88/bake/internal/querysql"
)

// Table names accepted by history queries.
const (
	TableBakes = "bakes"
	TableSteps = "bake_steps"
)

// HistorySchema lists the columns history filters may reference.
var HistorySchema = queryir.Schema{
	TableBakes: columnList(bakeColumns),
	TableSteps: columnList(stepColumns),
}

func columnList(cols string) []string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// History returns bakes matching filter (nil for all), oldest first.
// limit <= 0 returns every match.
func (s *Store) History(ctx context.Context, filter queryir.Predicate, limit int) ([]ir.BakeRecord, error) {
	query, params, err := compileHistory(TableBakes, filter, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return collectBakes(rows)
}

// StepHistory returns step rows matching filter across all bakes, in event
// order. limit <= 0 returns every match.
func (s *Store) StepHistory(ctx context.Context, filter queryir.Predicate, limit int) ([]ir.StepRecord, error) {
	query, params, err := compileHistory(TableSteps, filter, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("step history: %w", err)
	}
	return collectSteps(rows)
}

// compileHistory validates the filter against HistorySchema and compiles
// it. The SELECT list is the table's column list in declaration order so
// rows scan with scanBake and scanStep.
func compileHistory(table string, filter queryir.Predicate, limit int) (string, []any, error) {
	sel := queryir.Select{From: table, Filter: filter, Columns: HistorySchema[table], Limit: limit}
	if limit < 0 {
		sel.Limit = 0
	}
	if err := queryir.Validate(sel, HistorySchema).Err(); err != nil {
		return "", nil, fmt.Errorf("history: %w", err)
	}
	query, params, err := querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return "", nil, fmt.Errorf("history: %w", err)
	}
	return query, params, nil
}
