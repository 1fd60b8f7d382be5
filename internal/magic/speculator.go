package magic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
	"github.com/roach88/bake/internal/ops"
)

const (
	// snippetLen bounds Candidate.Data.
	snippetLen = 100

	// xorSampleLen is how much of the buffer intensive mode tries keys on.
	xorSampleLen = 100

	// maxCandidates bounds the total result size regardless of depth and
	// fan-out.
	maxCandidates = 2000
)

// Speculator is the default Proposer. It applies every operation whose
// pattern matches the buffer, recursing on each output.
type Speculator struct {
	reg      *operation.Registry
	patterns []Pattern
}

// NewSpeculator creates a Speculator over reg using DefaultPatterns.
// Patterns naming operations missing from reg are dropped.
func NewSpeculator(reg *operation.Registry) *Speculator {
	return NewSpeculatorWithPatterns(reg, DefaultPatterns())
}

// NewSpeculatorWithPatterns creates a Speculator with custom patterns.
func NewSpeculatorWithPatterns(reg *operation.Registry, patterns []Pattern) *Speculator {
	kept := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if _, ok := reg.Lookup(p.Op); ok {
			kept = append(kept, p)
		}
	}
	return &Speculator{reg: reg, patterns: kept}
}

type search struct {
	s       *Speculator
	opts    Options
	seen    map[[32]byte]bool
	results []Candidate
}

// Propose implements Proposer.
func (s *Speculator) Propose(ctx context.Context, buf []byte, opts Options) ([]Candidate, error) {
	if opts.Fanout <= 0 {
		opts.Fanout = 1
	}
	st := &search{s: s, opts: opts, seen: make(map[[32]byte]bool)}
	if err := st.speculate(ctx, buf, nil, max(opts.Depth, 0)); err != nil {
		return nil, err
	}
	Rank(st.results)
	return st.results, nil
}

func (st *search) speculate(ctx context.Context, buf []byte, recipe []ir.StepConfig, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := sha256.Sum256(buf)
	if st.seen[key] || len(st.results) >= maxCandidates {
		return nil
	}
	st.seen[key] = true

	isText := utf8.Valid(buf)
	text := ""
	if isText {
		text = string(buf)
	}
	matching := st.s.match(buf, text, isText)
	st.results = append(st.results, st.candidate(buf, text, isText, recipe, matching))

	if depth == 0 {
		return nil
	}

	type branch struct {
		step ir.StepConfig
		out  []byte
	}
	var branches []branch
	for _, p := range matching {
		if len(branches) >= st.opts.Fanout {
			break
		}
		out, err := st.s.apply(ctx, p.Op, p.Args, buf)
		if err != nil {
			slog.Debug("magic branch failed", "op", p.Op, "error", err)
			continue
		}
		if len(out) == 0 || bytes.Equal(out, buf) {
			continue
		}
		branches = append(branches, branch{step: ir.StepConfig{Op: p.Op, Args: ir.CloneArray(p.Args)}, out: out})
	}
	if st.opts.Intensive {
		for _, xb := range st.s.bruteForceXOR(buf) {
			if len(branches) >= st.opts.Fanout {
				break
			}
			branches = append(branches, branch{step: xb.step, out: xb.out})
		}
	}

	for _, b := range branches {
		next := append(slices.Clone(recipe), b.step)
		if err := st.speculate(ctx, b.out, next, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func (s *Speculator) match(buf []byte, text string, isText bool) []Pattern {
	var out []Pattern
	for _, p := range s.patterns {
		if p.matches(buf, text, isText) {
			out = append(out, p)
		}
	}
	return out
}

// apply runs one ordinary operation over buf through the dish coercions.
func (s *Speculator) apply(ctx context.Context, name string, args ir.IRArray, buf []byte) ([]byte, error) {
	desc, err := s.reg.Get(name)
	if err != nil {
		return nil, err
	}
	if desc.FlowControl {
		return nil, operation.Errorf("%s cannot be speculated", name)
	}
	d := dish.FromBytes(buf)
	in, err := d.Get(desc.InputType)
	if err != nil {
		return nil, err
	}
	out, err := desc.Run(ctx, in, operation.Args(desc.FillDefaults(args)))
	if err != nil {
		return nil, err
	}
	if err := d.Set(out, desc.OutputType); err != nil {
		return nil, err
	}
	return d.Output()
}

type xorBranch struct {
	step ir.StepConfig
	out  []byte
}

// bruteForceXOR tries every single-byte key on a sample of buf and keeps the
// keys that turn it into printable text, lowest entropy first.
func (s *Speculator) bruteForceXOR(buf []byte) []xorBranch {
	if _, ok := s.reg.Lookup("XOR"); !ok || len(buf) == 0 {
		return nil
	}
	sample := buf[:min(len(buf), xorSampleLen)]
	var out []xorBranch
	for k := 1; k < 256; k++ {
		decoded := make([]byte, len(sample))
		for i, c := range sample {
			decoded[i] = c ^ byte(k)
		}
		if !printable(decoded) {
			continue
		}
		keyHex := fmt.Sprintf("%02X", k)
		full := make([]byte, len(buf))
		for i, c := range buf {
			full[i] = c ^ byte(k)
		}
		out = append(out, xorBranch{
			step: ir.StepConfig{Op: "XOR", Args: ir.IRArray{ir.Toggle(keyHex, "Hex"), ir.IRString("Standard"), ir.IRBool(false)}},
			out:  full,
		})
	}
	slices.SortStableFunc(out, func(a, b xorBranch) int {
		return compareFloat(ops.Entropy(a.out), ops.Entropy(b.out))
	})
	return out
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return false
		}
		if r == 0x7f {
			return false
		}
	}
	return true
}

func (st *search) candidate(buf []byte, text string, isText bool, recipe []ir.StepConfig, matching []Pattern) Candidate {
	c := Candidate{
		Recipe:      ir.CloneSteps(recipe),
		Entropy:     ops.Entropy(buf),
		IsUTF8:      isText,
		FileType:    DetectFileType(buf),
		MatchingOps: []string{},
	}
	if c.Recipe == nil {
		c.Recipe = []ir.StepConfig{}
	}
	for _, p := range matching {
		if !slices.Contains(c.MatchingOps, p.Op) {
			c.MatchingOps = append(c.MatchingOps, p.Op)
		}
	}
	if isText {
		c.Data = truncateRunes(text, snippetLen)
	} else {
		c.Data = strings.ToValidUTF8(string(buf[:min(len(buf), snippetLen)]), "\uFFFD")
	}
	if st.opts.Crib != nil && isText {
		ok, err := st.opts.Crib.MatchString(text)
		c.MatchesCrib = err == nil && ok
	}
	c.Useful = c.FileType != nil
	return c
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Rank sorts candidates: crib matches first, then UTF-8 text, then lower
// entropy, then shorter recipes.
func Rank(cs []Candidate) {
	slices.SortStableFunc(cs, func(a, b Candidate) int {
		if a.MatchesCrib != b.MatchesCrib {
			return boolFirst(a.MatchesCrib)
		}
		if a.IsUTF8 != b.IsUTF8 {
			return boolFirst(a.IsUTF8)
		}
		if c := compareFloat(a.Entropy, b.Entropy); c != 0 {
			return c
		}
		return len(a.Recipe) - len(b.Recipe)
	})
}

func boolFirst(a bool) int {
	if a {
		return -1
	}
	return 1
}

func compareFloat(a, b float64) int {
	switch {
	case math.Abs(a-b) < 1e-9:
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}
