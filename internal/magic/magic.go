// Package magic implements speculative detection of encoded data: given a
// buffer it tries the operations whose input signatures match, recursively,
// and ranks the outcomes.
//
// The engine owns the limits. It clamps Options.Depth and Options.Fanout
// before calling a Proposer, and a Proposer must not exceed them.
package magic

import (
	"context"

	"github.com/dlclark/regexp2"

	"github.com/roach88/bake/internal/ir"
)

// Options configures one proposal run.
type Options struct {
	// Depth is the maximum number of operations chained onto the input.
	Depth int

	// Fanout is the maximum number of branches explored from one buffer.
	Fanout int

	// Intensive adds single-byte XOR brute force at every level.
	Intensive bool

	// ExtLang asks for language detection beyond English. The default
	// Speculator has no language model and ignores it.
	ExtLang bool

	// Crib, when set, marks candidates whose output matches it and ranks
	// them first.
	Crib *regexp2.Regexp
}

// FileType identifies a recognized file signature.
type FileType struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	MIME      string `json:"mime"`
}

// Candidate is one speculative outcome.
type Candidate struct {
	Recipe      []ir.StepConfig `json:"recipe"`
	Data        string          `json:"data"`
	Entropy     float64         `json:"entropy"`
	IsUTF8      bool            `json:"isUTF8"`
	FileType    *FileType       `json:"fileType,omitempty"`
	MatchingOps []string        `json:"matchingOps"`
	MatchesCrib bool            `json:"matchesCrib"`
	Useful      bool            `json:"useful"`
}

// Proposer produces ranked candidates for a buffer.
type Proposer interface {
	Propose(ctx context.Context, buf []byte, opts Options) ([]Candidate, error)
}

// ProposerFunc adapts a function to the Proposer interface.
type ProposerFunc func(ctx context.Context, buf []byte, opts Options) ([]Candidate, error)

// Propose calls f.
func (f ProposerFunc) Propose(ctx context.Context, buf []byte, opts Options) ([]Candidate, error) {
	return f(ctx, buf, opts)
}
