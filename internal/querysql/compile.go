// Package querysql compiles queryir queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY seq, id so identical logs return
// rows in identical order.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// Identifiers are checked to be plain names; callers should still run
// queryir.Validate against the table schema first.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		return c.compileSelect(*query)
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if !isIdentifier(q.From) {
		return "", nil, fmt.Errorf("invalid table name %q", q.From)
	}
	selectClause, err := c.compileBindings(q.Bindings, q.Columns)
	if err != nil {
		return "", nil, err
	}

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	// MANDATORY: Always add the stable ORDER BY
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		selectClause, q.From, whereClause, stableOrderKey)

	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, int64(q.Limit))
	}
	return sql, params, nil
}

// stableOrderKey is the ORDER BY clause of every query. seq is the logical
// clock; id breaks ties. COLLATE BINARY keeps text ordering identical
// across SQLite versions.
const stableOrderKey = "seq ASC, id COLLATE BINARY ASC"

// compileBindings converts the bindings map to a SELECT column list.
// Example: {"recipe_hash": "recipe"} → "recipe_hash AS recipe".
// Keys are sorted for deterministic output. Without bindings the ordered
// columns are used as given, and without either every column is selected.
func (c *SQLCompiler) compileBindings(bindings map[string]string, columns []string) (string, error) {
	if len(bindings) == 0 {
		if len(columns) == 0 {
			return "*", nil
		}
		for _, col := range columns {
			if !isIdentifier(col) {
				return "", fmt.Errorf("invalid column %q", col)
			}
		}
		return strings.Join(columns, ", "), nil
	}

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		alias := bindings[field]
		if !isIdentifier(field) || !isIdentifier(alias) {
			return "", fmt.Errorf("invalid binding %q AS %q", field, alias)
		}
		if field == alias {
			parts = append(parts, field)
		} else {
			parts = append(parts, fmt.Sprintf("%s AS %s", field, alias))
		}
	}
	return strings.Join(parts, ", "), nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	if !isIdentifier(eq.Field) {
		return "", nil, fmt.Errorf("invalid field name %q", eq.Field)
	}
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", eq.Field, err)
	}
	return eq.Field + " = ?", []any{param}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // vacuous truth
	}

	sqlParts := make([]string, 0, len(and.Predicates))
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested && len(and.Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return strings.Join(sqlParts, " AND "), allParams, nil
}

// isIdentifier reports whether s is a plain SQL name: a letter or
// underscore followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// irValueToParam converts an ir.IRValue to a Go native type for a SQL
// parameter. Booleans are stored as 0/1 integers in SQLite.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case nil, ir.IRNull:
		return nil, fmt.Errorf("null cannot be compared with =")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
