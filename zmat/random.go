// SPDX-License-Identifier: MIT
// Package zmat: seeded random unitary / semi-unitary generators.
//
// Sampling is Ginibre + Löwdin: independent complex-Gaussian entries,
// orthonormalized symmetrically. The result is Haar-distributed up to the
// (irrelevant here) choice of orthonormalization, and fully deterministic
// under a caller-supplied *rand.Rand.

package zmat

import (
	"fmt"
	"math/rand"
)

// ginibreRankTol guards the Löwdin step; a Ginibre sample is singular with
// probability zero, so hitting this indicates a broken RNG, not bad luck.
const ginibreRankTol = 1e-12

// RandomSemiUnitary samples a rows×cols matrix with orthonormal columns.
// Requires rows >= cols (ErrDimensionMismatch otherwise).
func RandomSemiUnitary(rows, cols int, rng *rand.Rand) (*Dense, error) {
	if rows < cols {
		return nil, fmt.Errorf("RandomSemiUnitary(%d,%d): %w", rows, cols, ErrDimensionMismatch)
	}
	g, err := NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	for i := range g.mat.Data {
		g.mat.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}

	return Lowdin(g, ginibreRankTol)
}

// RandomUnitary samples an n×n unitary matrix.
func RandomUnitary(n int, rng *rand.Rand) (*Dense, error) {
	return RandomSemiUnitary(n, n, rng)
}
