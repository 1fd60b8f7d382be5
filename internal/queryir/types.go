package queryir

import "github.com/roach88/bake/internal/ir"

// Query is a sealed interface over query nodes. Select is the only
// implementation.
type Query interface {
	queryNode()
}

// Predicate is a sealed interface over filter conditions.
//
// Predicate types:
//   - Equals: field = literal_value
//   - And: all predicates must be true
type Predicate interface {
	predicateNode()
}

// Select is a table access with an optional filter.
//
//	Select{
//	  From:   "bakes",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "status", Value: ir.IRString("error")},
//	    Equals{Field: "error_step", Value: ir.IRInt(2)},
//	  }},
//	  Bindings: map[string]string{"id": "id", "recipe_hash": "recipe"},
//	}
//
// compiles to the query below. With neither Bindings nor Columns set,
// every column is selected.
//
//	SELECT id, recipe_hash AS recipe FROM bakes
//	WHERE status = ? AND error_step = ?
//	ORDER BY seq ASC, id COLLATE BINARY ASC
type Select struct {
	From     string            // Table name (e.g., "bakes")
	Filter   Predicate         // WHERE conditions (nil = no filter)
	Bindings map[string]string // source_field → alias
	Columns  []string          // ordered column list, used when Bindings is empty
	Limit    int               // 0 = no limit
}

func (Select) queryNode() {}

// Equals compares a field with a literal value. Values are always passed
// as query parameters, never interpolated.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// And is a conjunction of predicates. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where builds a filter from field/value pairs: nil for no pairs, a single
// Equals for one, an And otherwise. Pairs are applied in the given order.
func Where(pairs ...Equals) Predicate {
	switch len(pairs) {
	case 0:
		return nil
	case 1:
		return pairs[0]
	}
	preds := make([]Predicate, len(pairs))
	for i, p := range pairs {
		preds[i] = p
	}
	return And{Predicates: preds}
}
