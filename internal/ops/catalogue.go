// Package ops is the built-in operation catalogue: thin wrappers over
// standard algorithms plus the descriptors of the flow-control operations
// the engine implements.
package ops

import (
	"slices"

	"github.com/roach88/bake/internal/operation"
)

// Descriptors returns every built-in descriptor.
func Descriptors() []operation.Descriptor {
	groups := [][]operation.Descriptor{
		flowControl(),
		textOps(),
		encodingOps(),
		hashOps(),
		bitwiseOps(),
		compressionOps(),
		dataOps(),
		arithmeticOps(),
		utilityOps(),
	}
	return slices.Concat(groups...)
}

// RegisterAll adds the built-in catalogue to reg.
func RegisterAll(reg *operation.Registry) error {
	for _, d := range Descriptors() {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in catalogue.
func NewRegistry() *operation.Registry {
	reg := operation.NewRegistry()
	reg.MustRegister(Descriptors()...)
	return reg
}
