package magic

import (
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/ops"
)

func newSpeculator() *Speculator {
	return NewSpeculator(ops.NewRegistry())
}

func findByRecipe(cs []Candidate, names ...string) *Candidate {
	for i, c := range cs {
		if len(c.Recipe) != len(names) {
			continue
		}
		match := true
		for j, step := range c.Recipe {
			if step.Op != names[j] {
				match = false
				break
			}
		}
		if match {
			return &cs[i]
		}
	}
	return nil
}

func TestProposeDecodesBase64(t *testing.T) {
	cs, err := newSpeculator().Propose(context.Background(), []byte("aGVsbG8gd29ybGQ="), Options{Depth: 2, Fanout: 10})
	require.NoError(t, err)

	root := findByRecipe(cs)
	require.NotNil(t, root)
	assert.Contains(t, root.MatchingOps, "From Base64")

	decoded := findByRecipe(cs, "From Base64")
	require.NotNil(t, decoded)
	assert.Equal(t, "hello world", decoded.Data)
	assert.True(t, decoded.IsUTF8)
}

func TestProposeDepthZeroReturnsOnlyInput(t *testing.T) {
	cs, err := newSpeculator().Propose(context.Background(), []byte("aGVsbG8="), Options{Depth: 0, Fanout: 10})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Empty(t, cs[0].Recipe)
}

func TestProposeRespectsFanout(t *testing.T) {
	s := newSpeculator()
	one, err := s.Propose(context.Background(), []byte("4142"), Options{Depth: 1, Fanout: 1})
	require.NoError(t, err)
	two, err := s.Propose(context.Background(), []byte("4142"), Options{Depth: 1, Fanout: 2})
	require.NoError(t, err)

	assert.Len(t, one, 2)
	assert.Len(t, two, 3)
	assert.NotNil(t, findByRecipe(two, "From Hex"))
}

func TestProposeCribRanksFirst(t *testing.T) {
	crib := regexp2.MustCompile("world", regexp2.None)
	cs, err := newSpeculator().Propose(context.Background(), []byte("aGVsbG8gd29ybGQ="), Options{Depth: 1, Fanout: 10, Crib: crib})
	require.NoError(t, err)
	require.NotEmpty(t, cs)
	assert.True(t, cs[0].MatchesCrib)
	assert.Equal(t, "hello world", cs[0].Data)
}

func TestProposeDetectsGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("compressed text"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	cs, err := newSpeculator().Propose(context.Background(), buf.Bytes(), Options{Depth: 1, Fanout: 10})
	require.NoError(t, err)

	root := findByRecipe(cs)
	require.NotNil(t, root)
	require.NotNil(t, root.FileType)
	assert.Equal(t, "gz", root.FileType.Extension)
	assert.True(t, root.Useful)

	inflated := findByRecipe(cs, "Gunzip")
	require.NotNil(t, inflated)
	assert.Equal(t, "compressed text", inflated.Data)
	assert.Equal(t, inflated, &cs[0], "readable output ranks above binary input")
}

func TestProposeIntensiveFindsXOR(t *testing.T) {
	plain := []byte("attack at dawn")
	enc := make([]byte, len(plain))
	for i, c := range plain {
		enc[i] = c ^ 0x80
	}
	crib := regexp2.MustCompile("attack", regexp2.None)
	cs, err := newSpeculator().Propose(context.Background(), enc, Options{Depth: 1, Fanout: 300, Intensive: true, Crib: crib})
	require.NoError(t, err)
	require.NotEmpty(t, cs)
	assert.True(t, cs[0].MatchesCrib)
	require.Len(t, cs[0].Recipe, 1)
	assert.Equal(t, "XOR", cs[0].Recipe[0].Op)
}

func TestProposeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSpeculator().Propose(ctx, []byte("aGVsbG8="), Options{Depth: 3, Fanout: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRankOrdering(t *testing.T) {
	cs := []Candidate{
		{Data: "binary", IsUTF8: false, Entropy: 1},
		{Data: "long", IsUTF8: true, Entropy: 2},
		{Data: "short", IsUTF8: true, Entropy: 2},
		{Data: "low", IsUTF8: true, Entropy: 1},
		{Data: "crib", MatchesCrib: true, Entropy: 7},
	}
	cs[1].Recipe = make([]ir.StepConfig, 2)
	Rank(cs)

	order := []string{}
	for _, c := range cs {
		order = append(order, c.Data)
	}
	assert.Equal(t, []string{"crib", "low", "short", "long", "binary"}, order)
}

func TestDetectFileType(t *testing.T) {
	ft := DetectFileType([]byte("%PDF-1.7"))
	require.NotNil(t, ft)
	assert.Equal(t, "pdf", ft.Extension)
	assert.Nil(t, DetectFileType([]byte("plain")))
}
