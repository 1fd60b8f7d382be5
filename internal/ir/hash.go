package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainRecipe = "bake/recipe/v1"
	DomainInput  = "bake/input/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecipeHash computes the content address of a recipe.
// Two recipes hash equal exactly when their canonical step lists are equal,
// so disabling a step or toggling a breakpoint changes the hash.
func RecipeHash(steps []StepConfig) (string, error) {
	canonical, err := MarshalCanonical(StepsToIR(steps))
	if err != nil {
		return "", fmt.Errorf("RecipeHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecipe, canonical), nil
}

// InputHash computes the content address of a raw input buffer.
func InputHash(input []byte) string {
	return hashWithDomain(DomainInput, input)
}

// MustRecipeHash is like RecipeHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecipeHash(steps []StepConfig) string {
	h, err := RecipeHash(steps)
	if err != nil {
		panic(err)
	}
	return h
}
