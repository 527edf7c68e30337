// SPDX-License-Identifier: MIT
// Package zmat: Hermitian eigendecomposition by complex Jacobi rotations.
//
// Implementation:
//   - Stage 1: Validate Hermitian square input within tol.
//   - Stage 2: Repeatedly pick (p,q) with the largest |H[p,q]| in i→j order
//     and annihilate it with a unitary 2×2 rotation; accumulate the
//     rotations into the eigenvector matrix.
//
// Determinism:
//   - Fixed i→j pivot search and fixed update order produce stable results.
//
// Complexity:
//   - Time O(iters · n²) with iters ≈ O(n² log(1/tol)); Space O(n²).

package zmat

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// jacobiRotation holds the unitary 2×2 factor annihilating the (p,q) entry
// of a Hermitian pencil [[a, z], [conj(z), b]]:
//
//	G = [[ c,       -s·w ],
//	     [ s·conj(w), c  ]]   with w = z/|z|, c²+s² = 1.
//
// GᴴHG is diagonal when t = s/c solves t² + 2τt − 1 = 0, τ = (a−b)/(2|z|);
// the smaller-magnitude root keeps the rotation angle below π/4, the
// standard stability choice for Jacobi schemes.
type jacobiRotation struct {
	c, s float64
	w    complex128
}

// newJacobiRotation computes the rotation for diagonal entries a, b and
// off-diagonal z. Callers must ensure |z| > 0.
func newJacobiRotation(a, b float64, z complex128) jacobiRotation {
	az := cmplx.Abs(z)
	w := z / complex(az, 0)
	tau := (a - b) / (2 * az)
	var t float64
	if tau >= 0 {
		t = 1 / (tau + math.Sqrt(1+tau*tau))
	} else {
		t = 1 / (tau - math.Sqrt(1+tau*tau))
	}
	c := 1 / math.Sqrt(1+t*t)

	return jacobiRotation{c: c, s: t * c, w: w}
}

// applyRight performs M ← M·G on columns p and q of m.
func (g jacobiRotation) applyRight(m *Dense, p, q int) {
	c, s, w := complex(g.c, 0), complex(g.s, 0), g.w
	cw := cmplx.Conj(w)
	for k := 0; k < m.Rows(); k++ {
		kp := k*m.mat.Stride + p
		kq := k*m.mat.Stride + q
		mp, mq := m.mat.Data[kp], m.mat.Data[kq]
		m.mat.Data[kp] = c*mp + s*cw*mq
		m.mat.Data[kq] = -s*w*mp + c*mq
	}
}

// applyLeft performs M ← Gᴴ·M on rows p and q of m.
func (g jacobiRotation) applyLeft(m *Dense, p, q int) {
	c, s, w := complex(g.c, 0), complex(g.s, 0), g.w
	cw := cmplx.Conj(w)
	for k := 0; k < m.Cols(); k++ {
		pk := p*m.mat.Stride + k
		qk := q*m.mat.Stride + k
		mp, mq := m.mat.Data[pk], m.mat.Data[qk]
		m.mat.Data[pk] = c*mp + s*w*mq
		m.mat.Data[qk] = -s*cw*mp + c*mq
	}
}

// HermEigen computes the eigendecomposition of a Hermitian matrix h.
//
// Returns eigenvalues in ascending order and a unitary matrix whose columns
// are the matching eigenvectors, i.e. h ≈ V·diag(vals)·Vᴴ.
//
// Inputs:
//   - h: Hermitian within tol (validated; ErrNotHermitian otherwise).
//   - tol: convergence threshold on the largest off-diagonal modulus.
//   - maxIter: safety cap on rotations; maxIter <= 0 selects 100·n².
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNotHermitian on bad input;
//   - ErrEigenFailed if the off-diagonal stays above tol after maxIter.
func HermEigen(h *Dense, tol float64, maxIter int) ([]float64, *Dense, error) {
	if h == nil {
		return nil, nil, fmt.Errorf("HermEigen: %w", ErrNilMatrix)
	}
	if err := ValidateHermitian(h, tol); err != nil {
		return nil, nil, fmt.Errorf("HermEigen: %w", err)
	}
	n := h.Rows()
	if maxIter <= 0 {
		maxIter = 100 * n * n
	}
	a := h.Clone()
	v, err := NewIdentity(n)
	if err != nil {
		return nil, nil, fmt.Errorf("HermEigen: %w", err)
	}

	converged := false
	for iter := 0; iter < maxIter; iter++ {
		// Pivot: the largest |A[p,q]| above the diagonal, first occurrence wins.
		var p, q int
		var maxOff float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if off := cmplx.Abs(a.mat.Data[i*a.mat.Stride+j]); off > maxOff {
					maxOff, p, q = off, i, j
				}
			}
		}
		if maxOff <= tol {
			converged = true
			break
		}

		app := real(a.mat.Data[p*a.mat.Stride+p])
		aqq := real(a.mat.Data[q*a.mat.Stride+q])
		apq := a.mat.Data[p*a.mat.Stride+q]

		g := newJacobiRotation(app, aqq, apq)
		g.applyRight(a, p, q) // A ← A·G
		g.applyLeft(a, p, q)  // A ← Gᴴ·A
		g.applyRight(v, p, q) // V ← V·G
	}
	if !converged {
		return nil, nil, fmt.Errorf("HermEigen: after %d rotations: %w", maxIter, ErrEigenFailed)
	}

	// Diagonal of the rotated matrix holds the (real) eigenvalues.
	vals := make([]float64, n)
	order := make([]int, n)
	for i := range vals {
		vals[i] = real(a.mat.Data[i*a.mat.Stride+i])
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return vals[order[i]] < vals[order[j]] })

	sorted := make([]float64, n)
	vecs, err := NewDense(n, n)
	if err != nil {
		return nil, nil, fmt.Errorf("HermEigen: %w", err)
	}
	for dst, src := range order {
		sorted[dst] = vals[src]
		for k := 0; k < n; k++ {
			vecs.mat.Data[k*vecs.mat.Stride+dst] = v.mat.Data[k*v.mat.Stride+src]
		}
	}

	return sorted, vecs, nil
}
