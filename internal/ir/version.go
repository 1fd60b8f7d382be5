package ir

// Version constants for the recipe schema and engine.
const (
	// IRVersion is the recipe document schema version.
	IRVersion = "1"

	// EngineVersion is the bake engine version.
	EngineVersion = "0.1.0"
)
