// Package harness runs recipe conformance scenarios.
//
// A scenario pairs a recipe with an input and states what the bake must
// produce. The harness runs it through the real engine, logs it to an
// in-memory bake log, and evaluates expectations and assertions against
// the result and the logged step trace.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: upper_then_reverse
//	description: "What this scenario validates"
//	recipe:                      # or recipe_file: path/relative/to/scenario.json
//	  - op: To Upper case
//	    args: [All]
//	  - op: Reverse
//	    args: [Character]
//	input: "abc"                 # or input_hex: "616263"
//	engine:
//	  fork_parallelism: 1
//	  breakpoints: false
//	expect:
//	  output: "CBA"
//	  output_kind: byteArray
//	assertions:
//	  - type: trace_order
//	    ops: [To Upper case, Reverse]
//	  - type: final_state
//	    table: bake_steps
//	    where: { op: Reverse }
//	    expect: { status: ok, depth: 0 }
//
// # Assertion Types
//
//   - trace_contains: an op appears in the trace (optionally with a status)
//   - trace_order: ops appear in the given relative order
//   - trace_count: an op appears exactly N times
//   - final_state: exactly one logged row matches where and has expect's values
//
// # Deterministic Testing
//
// Every scenario runs with a fresh logical clock, a fixed bake ID
// (testutil.FixedIDGenerator), a deterministic wall clock
// (testutil.DeterministicClock), and fork parallelism 1 unless the scenario
// overrides it. Traces are therefore byte-identical across runs and can be
// compared against golden files with RunWithGolden.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/upper.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
