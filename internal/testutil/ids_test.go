package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/bake/internal/engine"
)

var _ engine.IDGenerator = (*FixedIDGenerator)(nil)

func TestFixedIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedIDGenerator("test-bake-0001")
	assert.Equal(t, "test-bake-0001", gen.Generate())
	assert.Equal(t, "test-bake-0001", gen.Generate())
}

func TestFixedIDGenerator_DefaultID(t *testing.T) {
	assert.Equal(t, "test-bake-default", NewFixedIDGenerator("").Generate())
}
