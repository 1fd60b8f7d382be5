package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/magic"
	"github.com/roach88/bake/internal/ops"
)

func TestMagic_ClampsOptionsAndStoresJSON(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	var got magic.Options
	var gotBuf []byte
	proposer := magic.ProposerFunc(func(_ context.Context, buf []byte, opts magic.Options) ([]magic.Candidate, error) {
		got, gotBuf = opts, buf
		return []magic.Candidate{{
			Recipe: []ir.StepConfig{{Op: "From Base64", Args: ir.IRArray{}}},
			Data:   "hi",
			IsUTF8: true,
		}}, nil
	})
	rec := &RecordingReporter{}
	e := New(reg, WithProposer(proposer), WithMagicDepth(2), WithMagicFanout(4), WithReporter(rec))

	r, err := e.NewRecipe(op(ops.Magic, ir.IRInt(5), ir.IRBool(true), ir.IRBool(false), ir.IRString("h.")))
	require.NoError(t, err)
	res, err := r.Bake(context.Background(), dish.FromString("aGk="))
	require.NoError(t, err)

	assert.Equal(t, 2, got.Depth)
	assert.Equal(t, 4, got.Fanout)
	assert.True(t, got.Intensive)
	require.NotNil(t, got.Crib)
	assert.Equal(t, []byte("aGk="), gotBuf)

	assert.Equal(t, dish.JSON, res.Dish.Kind())
	v, err := res.Dish.JSON()
	require.NoError(t, err)
	list, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	first := list[0].(map[string]any)
	assert.Equal(t, "hi", first["data"])
	assert.Equal(t, true, first["isUTF8"])

	require.Len(t, rec.Branches, 1)
	assert.Equal(t, 1, rec.Branches[0].Total)
}

func TestMagic_NegativeDepthIsZero(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	var depth = -1
	proposer := magic.ProposerFunc(func(_ context.Context, _ []byte, opts magic.Options) ([]magic.Candidate, error) {
		depth = opts.Depth
		return nil, nil
	})
	r, err := New(reg, WithProposer(proposer)).NewRecipe(op(ops.Magic, ir.IRInt(-4)))
	require.NoError(t, err)

	res, err := r.Bake(context.Background(), dish.FromString("x"))
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
	v, _ := res.Dish.JSON()
	assert.Equal(t, []any{}, v)
}

func TestMagic_ProposerErrorIsOperationError(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	proposer := magic.ProposerFunc(func(context.Context, []byte, magic.Options) ([]magic.Candidate, error) {
		return nil, errors.New("no ideas")
	})
	_, err := bakeString(t, New(reg, WithProposer(proposer)), "x", op(ops.Magic))
	assert.True(t, IsOperationError(err))
}

func TestMagic_DefaultSpeculator(t *testing.T) {
	reg, _ := setupTestRegistry(t)
	r, err := NewRecipe(reg, op(ops.Magic))
	require.NoError(t, err)

	res, err := r.Bake(context.Background(), dish.FromString("68656c6c6f20776f726c64"))
	require.NoError(t, err)
	v, err := res.Dish.JSON()
	require.NoError(t, err)
	list, ok := v.([]any)
	require.True(t, ok)
	require.NotEmpty(t, list)
}
