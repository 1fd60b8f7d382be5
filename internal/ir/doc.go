// Package ir provides the canonical value and recipe types shared by every
// other bake package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Operation arguments are IRValues. No float variant exists, so a
//     recipe always hashes to the same content address.
//   - A recipe is an ordered []StepConfig; this is the serialized form read
//     and written by every outer layer (CLI, store, harness).
//   - Logical sequence numbers, never wall-clock timestamps, order bake
//     records.
package ir
