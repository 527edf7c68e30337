// SPDX-License-Identifier: MIT
// Package zmat: element-wise and product kernels.
//
// All three product shapes the gauge core needs are provided explicitly
// (A·B, Aᴴ·B, A·Bᴴ) so call sites never materialize an adjoint just to
// multiply by it; cblas128.Gemm handles the conjugate transpose in-place.

package zmat

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

// Mul returns a·b.
// Errors: ErrNilMatrix, ErrDimensionMismatch (a.Cols != b.Rows).
func Mul(a, b *Dense) (*Dense, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("Mul: %w", ErrNilMatrix)
	}
	if a.Cols() != b.Rows() {
		return nil, fmt.Errorf("Mul: %dx%d by %dx%d: %w", a.Rows(), a.Cols(), b.Rows(), b.Cols(), ErrDimensionMismatch)
	}
	c, err := NewDense(a.Rows(), b.Cols())
	if err != nil {
		return nil, err
	}
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, a.mat, b.mat, 0, c.mat)

	return c, nil
}

// AdjointMul returns aᴴ·b.
// Errors: ErrNilMatrix, ErrDimensionMismatch (a.Rows != b.Rows).
func AdjointMul(a, b *Dense) (*Dense, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("AdjointMul: %w", ErrNilMatrix)
	}
	if a.Rows() != b.Rows() {
		return nil, fmt.Errorf("AdjointMul: %dx%d by %dx%d: %w", a.Rows(), a.Cols(), b.Rows(), b.Cols(), ErrDimensionMismatch)
	}
	c, err := NewDense(a.Cols(), b.Cols())
	if err != nil {
		return nil, err
	}
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, a.mat, b.mat, 0, c.mat)

	return c, nil
}

// MulAdjoint returns a·bᴴ.
// Errors: ErrNilMatrix, ErrDimensionMismatch (a.Cols != b.Cols).
func MulAdjoint(a, b *Dense) (*Dense, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("MulAdjoint: %w", ErrNilMatrix)
	}
	if a.Cols() != b.Cols() {
		return nil, fmt.Errorf("MulAdjoint: %dx%d by %dx%d: %w", a.Rows(), a.Cols(), b.Rows(), b.Cols(), ErrDimensionMismatch)
	}
	c, err := NewDense(a.Rows(), b.Rows())
	if err != nil {
		return nil, err
	}
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, a.mat, b.mat, 0, c.mat)

	return c, nil
}

// Add returns a + b element-wise.
func Add(a, b *Dense) (*Dense, error) {
	return addScaled("Add", a, b, 1)
}

// Sub returns a − b element-wise.
func Sub(a, b *Dense) (*Dense, error) {
	return addScaled("Sub", a, b, -1)
}

// addScaled returns a + f·b with unified validation for Add/Sub.
func addScaled(op string, a, b *Dense, f complex128) (*Dense, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNilMatrix)
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return nil, fmt.Errorf("%s: %dx%d vs %dx%d: %w", op, a.Rows(), a.Cols(), b.Rows(), b.Cols(), ErrDimensionMismatch)
	}
	c := a.Clone()
	for i, v := range b.mat.Data {
		c.mat.Data[i] += f * v
	}

	return c, nil
}

// Scale returns f·a.
func Scale(f complex128, a *Dense) (*Dense, error) {
	if a == nil {
		return nil, fmt.Errorf("Scale: %w", ErrNilMatrix)
	}
	c := a.Clone()
	for i := range c.mat.Data {
		c.mat.Data[i] *= f
	}

	return c, nil
}

// Adjoint returns aᴴ (conjugate transpose), materialized.
func Adjoint(a *Dense) (*Dense, error) {
	if a == nil {
		return nil, fmt.Errorf("Adjoint: %w", ErrNilMatrix)
	}
	c, err := NewDense(a.Cols(), a.Rows())
	if err != nil {
		return nil, err
	}
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			c.mat.Data[j*c.mat.Stride+i] = cmplx.Conj(a.mat.Data[i*a.mat.Stride+j])
		}
	}

	return c, nil
}

// FrobNorm returns the Frobenius norm of a (0 for nil).
func FrobNorm(a *Dense) float64 {
	if a == nil {
		return 0
	}
	var sum float64
	for _, v := range a.mat.Data {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}

	return math.Sqrt(sum)
}

// MaxAbs returns the largest element modulus of a (0 for nil).
func MaxAbs(a *Dense) float64 {
	if a == nil {
		return 0
	}
	var m float64
	for _, v := range a.mat.Data {
		if av := cmplx.Abs(v); av > m {
			m = av
		}
	}

	return m
}

// EqualApprox reports whether a and b have the same shape and every element
// differs by at most tol in modulus.
func EqualApprox(a, b *Dense, tol float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	for i, v := range a.mat.Data {
		if cmplx.Abs(v-b.mat.Data[i]) > tol {
			return false
		}
	}

	return true
}
