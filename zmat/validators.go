// SPDX-License-Identifier: MIT
// Package zmat: canonical structural validators.
//
// Purpose:
//   - Single source of truth for shape/Hermiticity/semi-unitarity checks.
//   - Defect functions return the observed violation magnitude so callers
//     can log actionable diagnostics; Validate* wrap the matching sentinel.
//   - Validators never mutate their inputs.

package zmat

import (
	"fmt"
	"math/cmplx"
)

// ValidateNotNil ensures the matrix reference is non-nil.
func ValidateNotNil(m *Dense) error {
	if m == nil {
		return ErrNilMatrix
	}

	return nil
}

// ValidateSquare checks that m is square. Assumes m is non-nil.
func ValidateSquare(m *Dense) error {
	if m.Rows() != m.Cols() {
		return fmt.Errorf("%dx%d: %w", m.Rows(), m.Cols(), ErrNonSquare)
	}

	return nil
}

// ValidateSameShape ensures a and b have equal dimensions. Assumes non-nil.
func ValidateSameShape(a, b *Dense) error {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return fmt.Errorf("%dx%d vs %dx%d: %w", a.Rows(), a.Cols(), b.Rows(), b.Cols(), ErrDimensionMismatch)
	}

	return nil
}

// HermitianDefect returns max |H[i,j] − conj(H[j,i])| over all pairs.
// A Hermitian matrix has defect 0 (up to rounding).
func HermitianDefect(h *Dense) (float64, error) {
	if h == nil {
		return 0, ErrNilMatrix
	}
	if err := ValidateSquare(h); err != nil {
		return 0, err
	}
	var defect float64
	n := h.Rows()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := cmplx.Abs(h.mat.Data[i*h.mat.Stride+j] - cmplx.Conj(h.mat.Data[j*h.mat.Stride+i]))
			if d > defect {
				defect = d
			}
		}
	}

	return defect, nil
}

// ValidateHermitian fails with ErrNotHermitian when the defect exceeds tol.
func ValidateHermitian(h *Dense, tol float64) error {
	defect, err := HermitianDefect(h)
	if err != nil {
		return err
	}
	if defect > tol {
		return fmt.Errorf("defect %.3e > tol %.3e: %w", defect, tol, ErrNotHermitian)
	}

	return nil
}

// SemiUnitaryDefect returns max-abs of AᴴA − I, the distance of A's columns
// from orthonormality in the entrywise sense.
func SemiUnitaryDefect(a *Dense) (float64, error) {
	if a == nil {
		return 0, ErrNilMatrix
	}
	g, err := AdjointMul(a, a)
	if err != nil {
		return 0, err
	}
	n := g.Rows()
	for i := 0; i < n; i++ {
		g.mat.Data[i*g.mat.Stride+i] -= 1
	}

	return MaxAbs(g), nil
}

// ValidateSemiUnitary fails with ErrNotSemiUnitary when AᴴA deviates from
// the identity by more than tol in any entry.
func ValidateSemiUnitary(a *Dense, tol float64) error {
	defect, err := SemiUnitaryDefect(a)
	if err != nil {
		return err
	}
	if defect > tol {
		return fmt.Errorf("defect %.3e > tol %.3e: %w", defect, tol, ErrNotSemiUnitary)
	}

	return nil
}

// ValidateUnitary checks squareness plus column orthonormality; for a
// square matrix the two together imply full unitarity.
func ValidateUnitary(a *Dense, tol float64) error {
	if a == nil {
		return ErrNilMatrix
	}
	if err := ValidateSquare(a); err != nil {
		return err
	}

	return ValidateSemiUnitary(a, tol)
}
