// Package operation defines the contract between the recipe engine and the
// operations it runs: the immutable Descriptor an operation's author writes,
// the argument schema, typed argument accessors, and the Registry that maps
// operation names to descriptors.
//
// Ordinary operations implement RunFunc over a coerced dish value. Flow-control
// operations carry FlowControl=true and no RunFunc; the engine dispatches them
// by name with the whole execution state.
package operation
