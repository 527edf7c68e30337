// SPDX-License-Identifier: MIT
// Package zmat: thin singular value decomposition by one-sided Jacobi.
//
// The one-sided scheme orthogonalizes column pairs of a working copy W of
// the input: for each pair (p,q) the 2×2 Gram matrix [[α, γ], [conj(γ), β]]
// (α = ‖wₚ‖², β = ‖w_q‖², γ = wₚᴴw_q) is diagonalized with the same unitary
// rotation used by HermEigen, applied to W and accumulated into V. At
// convergence the columns of W are orthogonal, ‖w_j‖ are the singular
// values, and W = U·Σ exactly, so no separate U accumulation is needed.
//
// Inputs with fewer rows than columns are handled by decomposing the
// adjoint and swapping the factors.

package zmat

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// defaultSVDSweeps caps the number of full column-pair sweeps.
// One-sided Jacobi converges quadratically; well-conditioned inputs of the
// sizes seen here finish in well under ten sweeps.
const defaultSVDSweeps = 64

// SVD computes the thin decomposition a ≈ U·diag(s)·Vᴴ with k = min(m, n)
// singular triplets, s sorted in descending order.
//
// U is m×k with orthonormal columns for every s[j] > 0 (columns matching a
// zero singular value are zero), V is n×k with orthonormal columns.
//
// Inputs:
//   - a: the m×n matrix to decompose (not mutated).
//   - tol: relative off-diagonal threshold; pairs with
//     |γ| ≤ tol·sqrt(α·β) are considered orthogonal.
//   - maxSweeps: cap on full sweeps; <= 0 selects defaultSVDSweeps.
//
// Errors: ErrNilMatrix on nil input, ErrSVDFailed if sweeps are exhausted
// before all column pairs are orthogonal.
func SVD(a *Dense, tol float64, maxSweeps int) (u *Dense, s []float64, v *Dense, err error) {
	if a == nil {
		return nil, nil, nil, fmt.Errorf("SVD: %w", ErrNilMatrix)
	}
	if a.Rows() < a.Cols() {
		// Decompose aᴴ = V·Σ·Uᴴ and swap the factors back.
		adj, aerr := Adjoint(a)
		if aerr != nil {
			return nil, nil, nil, fmt.Errorf("SVD: %w", aerr)
		}
		v2, s2, u2, serr := SVD(adj, tol, maxSweeps)
		if serr != nil {
			return nil, nil, nil, serr
		}

		return u2, s2, v2, nil
	}
	if maxSweeps <= 0 {
		maxSweeps = defaultSVDSweeps
	}

	m, n := a.Shape()
	w := a.Clone()
	v, err = NewIdentity(n)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("SVD: %w", err)
	}

	converged := false
	for sweep := 0; sweep < maxSweeps && !converged; sweep++ {
		converged = true
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				var alpha, beta float64
				var gamma complex128
				for k := 0; k < m; k++ {
					wp := w.mat.Data[k*w.mat.Stride+p]
					wq := w.mat.Data[k*w.mat.Stride+q]
					alpha += real(wp)*real(wp) + imag(wp)*imag(wp)
					beta += real(wq)*real(wq) + imag(wq)*imag(wq)
					gamma += cmplx.Conj(wp) * wq
				}
				if alpha == 0 || beta == 0 || cmplx.Abs(gamma) <= tol*math.Sqrt(alpha*beta) {
					continue
				}
				converged = false
				g := newJacobiRotation(alpha, beta, gamma)
				g.applyRight(w, p, q)
				g.applyRight(v, p, q)
			}
		}
	}
	if !converged {
		return nil, nil, nil, fmt.Errorf("SVD: after %d sweeps: %w", maxSweeps, ErrSVDFailed)
	}

	// Column norms are the singular values; sort triplets descending.
	norms := make([]float64, n)
	order := make([]int, n)
	for j := 0; j < n; j++ {
		var sum float64
		for k := 0; k < m; k++ {
			wj := w.mat.Data[k*w.mat.Stride+j]
			sum += real(wj)*real(wj) + imag(wj)*imag(wj)
		}
		norms[j] = math.Sqrt(sum)
		order[j] = j
	}
	sort.SliceStable(order, func(i, j int) bool { return norms[order[i]] > norms[order[j]] })

	s = make([]float64, n)
	u, err = NewDense(m, n)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("SVD: %w", err)
	}
	vOut, err := NewDense(n, n)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("SVD: %w", err)
	}
	for dst, src := range order {
		s[dst] = norms[src]
		for k := 0; k < n; k++ {
			vOut.mat.Data[k*vOut.mat.Stride+dst] = v.mat.Data[k*v.mat.Stride+src]
		}
		if s[dst] == 0 {
			continue // zero singular value: leave the U column zero
		}
		inv := complex(1/s[dst], 0)
		for k := 0; k < m; k++ {
			u.mat.Data[k*u.mat.Stride+dst] = w.mat.Data[k*w.mat.Stride+src] * inv
		}
	}

	return u, s, vOut, nil
}
