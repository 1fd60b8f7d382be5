package ir

// NOTE: These are store-layer records, not part of the canonical recipe form.
// Step rows carry auto-increment IDs that only break ties; ordering comes from seq.

// Bake and step status values.
const (
	BakeStatusOK     = "ok"
	BakeStatusError  = "error"
	BakeStatusPaused = "paused"
)

// BakeRecord is one persisted recipe run.
type BakeRecord struct {
	ID           string       `json:"id"`          // UUIDv7
	RecipeHash   string       `json:"recipe_hash"` // Content-addressed (DomainRecipe)
	InputHash    string       `json:"input_hash"`  // Content-addressed (DomainInput)
	Recipe       []StepConfig `json:"recipe"`
	Status       string       `json:"status"`
	ErrorStep    int64        `json:"error_step"` // -1 when the bake did not fail at a step
	ErrorMessage string       `json:"error_message,omitempty"`
	OutputKind   string       `json:"output_kind"`
	Output       []byte       `json:"output,omitempty"`
	Seq          int64        `json:"seq"` // Logical clock
}

// StepRecord is one executed step of a persisted bake.
type StepRecord struct {
	ID        int64  `json:"id"` // Auto-increment (store FK)
	BakeID    string `json:"bake_id"`
	Seq       int64  `json:"seq"`
	StepIndex int64  `json:"step_index"` // Absolute index (fork offset applied)
	Op        string `json:"op"`
	Depth     int64  `json:"depth"` // 0 for top-level steps
	ElapsedNS int64  `json:"elapsed_ns"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}
