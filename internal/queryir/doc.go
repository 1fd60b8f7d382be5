// Package queryir provides an abstract query representation for the bake
// log's history queries.
//
// ARCHITECTURE:
//
// History filters given on the command line (--where key=value) are parsed
// into a Select over one of the log tables, validated against the table's
// known columns, and compiled to parameterized SQL by package querysql:
//
//	[--where flags] → [Query IR] → [querysql] → [store]
//
// The fragment is deliberately small:
//   - Select(from, filter, bindings) - table access with filtering
//   - Predicates: Equals, And
//   - Explicit field bindings; empty bindings select every column
//
// Excluded: joins, OR predicates, aggregations, NULL comparisons.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods so compilers can
// switch exhaustively over the node types:
//
//	switch q := query.(type) {
//	case Select, *Select:
//	    // the only query node
//	}
//
// CRITICAL PATTERNS:
//
// Deterministic Results:
// Every compiled query orders by (seq, id). Two identical logs always
// return history rows in the same order.
//
// IRValue Types Only:
// Literal values in predicates are ir.IRValue types (no floats).
package queryir
