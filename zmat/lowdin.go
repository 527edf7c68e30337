// SPDX-License-Identifier: MIT
// Package zmat: Löwdin orthonormalization and the polar projection.
//
// Löwdin (symmetric) orthonormalization maps M → M·(MᴴM)^(−1/2); among all
// matrices with orthonormal columns it is the one closest to M, which is
// why the gauge core uses it wherever an orthonormalization must not stray
// from the current iterate. The polar projection U·Vᴴ from the SVD is the
// same map computed through singular factors; it backs the manifold
// retraction.

package zmat

import (
	"fmt"
	"math"
)

// InverseSqrt returns H^(−1/2) for a Hermitian positive-definite matrix,
// computed through the eigendecomposition H = V·diag(λ)·Vᴴ.
//
// Errors: ErrRankDeficient when any eigenvalue is ≤ tol (the inverse square
// root would blow up); eigen/validation errors pass through.
func InverseSqrt(h *Dense, tol float64) (*Dense, error) {
	vals, vecs, err := HermEigen(h, tol, 0)
	if err != nil {
		return nil, fmt.Errorf("InverseSqrt: %w", err)
	}
	n := h.Rows()
	scaled := vecs.Clone() // columns scaled by λ^(−1/2)
	for j, lambda := range vals {
		if lambda <= tol {
			return nil, fmt.Errorf("InverseSqrt: eigenvalue %.3e at index %d: %w", lambda, j, ErrRankDeficient)
		}
		f := complex(1/math.Sqrt(lambda), 0)
		for k := 0; k < n; k++ {
			scaled.mat.Data[k*scaled.mat.Stride+j] *= f
		}
	}

	return MulAdjoint(scaled, vecs) // V·diag(λ^(−1/2))·Vᴴ
}

// Lowdin returns the symmetric orthonormalization a·(aᴴa)^(−1/2).
// Requires full column rank: ErrRankDeficient otherwise.
func Lowdin(a *Dense, tol float64) (*Dense, error) {
	if a == nil {
		return nil, fmt.Errorf("Lowdin: %w", ErrNilMatrix)
	}
	gram, err := AdjointMul(a, a)
	if err != nil {
		return nil, fmt.Errorf("Lowdin: %w", err)
	}
	w, err := InverseSqrt(gram, tol)
	if err != nil {
		return nil, fmt.Errorf("Lowdin: %w", err)
	}

	return Mul(a, w)
}

// PolarProject returns the closest semi-unitary matrix to a, computed as
// U·Vᴴ from the thin SVD a = U·Σ·Vᴴ. Equals Lowdin(a) for full column
// rank; kept separate because the manifold retraction is specified through
// singular factors.
//
// Errors: ErrRankDeficient when the smallest singular value is ≤ tol.
func PolarProject(a *Dense, tol float64) (*Dense, error) {
	if a == nil {
		return nil, fmt.Errorf("PolarProject: %w", ErrNilMatrix)
	}
	u, s, v, err := SVD(a, tol, 0)
	if err != nil {
		return nil, fmt.Errorf("PolarProject: %w", err)
	}
	if small := s[len(s)-1]; small <= tol {
		return nil, fmt.Errorf("PolarProject: singular value %.3e: %w", small, ErrRankDeficient)
	}

	return MulAdjoint(u, v)
}
