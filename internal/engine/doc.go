// Package engine runs recipes: ordered lists of configured operations applied
// to a Dish.
//
// ARCHITECTURE:
//
// Instruction Pointer over an Immutable Step Array:
// A Recipe compiles its step configs once (descriptors resolved, default
// arguments filled, Label names mapped to indices). A run never mutates that
// array. Each run works on a State whose Progress field is the instruction
// pointer; flow-control handlers move it non-locally.
//
// Argument Overlay:
// Register does not rewrite sibling configs. It writes substituted values into
// the State's Overlay, keyed by (step, arg), and later steps resolve their
// effective arguments through it. Fork and Subsection flatten the overlay into
// a fresh base for their sub-steps, so branches never observe one another.
//
// Step Dispatch:
//  1. Disabled steps are skipped.
//  2. Flow-control steps are dispatched by operation name with the whole State.
//  3. Ordinary steps coerce the Dish to the declared input kind, run, and store
//     the result tagged with the declared output kind.
//  4. Any error halts the run and is returned as a *StepError carrying the
//     absolute step index (fork offset applied) and the operation name.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Step events are stamped with a monotonic seq from Clock.Next(), never with
// wall-clock time. Elapsed durations are observability only.
//
// Deterministic Fork Output:
// Branches may run in parallel (WithForkParallelism) but branch i's output
// always occupies position i of the merged result, and each branch owns its
// Dish and argument copy.
//
// Termination:
// Per-state jump counters bound each Jump step; a run-wide JumpBudget bounds
// the total and fails with a ControlFlowError when exceeded.
package engine
