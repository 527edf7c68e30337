// SPDX-License-Identifier: MIT
// Package zmat: sentinel error set.
// All kernels return these sentinels (possibly wrapped with call-site
// context via fmt.Errorf("...: %w", ...)); tests match them with errors.Is.
// Panics are reserved for programmer errors in private helpers.

package zmat

import "errors"

var (
	// ErrBadShape is returned when a requested shape is invalid (r<=0 or c<=0).
	ErrBadShape = errors.New("zmat: invalid shape")

	// ErrNilMatrix indicates that a nil *Dense was passed where a value is required.
	ErrNilMatrix = errors.New("zmat: nil matrix")

	// ErrOutOfRange indicates that a row or column index is outside valid bounds.
	// Public indexers (At/Set) MUST return this, not panic.
	ErrOutOfRange = errors.New("zmat: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. Add with different shapes, or Mul where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("zmat: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("zmat: matrix is not square")

	// ErrBadLength indicates a data slice whose length does not match rows*cols.
	ErrBadLength = errors.New("zmat: data length does not match shape")

	// ErrNotHermitian signals that a matrix expected to be Hermitian violated
	// H[i,j] == conj(H[j,i]) beyond the configured tolerance.
	ErrNotHermitian = errors.New("zmat: matrix is not Hermitian within tolerance")

	// ErrNotSemiUnitary signals that a matrix expected to have orthonormal
	// columns (AᴴA = I) violated that within the configured tolerance.
	ErrNotSemiUnitary = errors.New("zmat: matrix is not semi-unitary within tolerance")

	// ErrEigenFailed indicates that the Jacobi eigen sweep did not reduce the
	// off-diagonal below tolerance within the iteration cap.
	ErrEigenFailed = errors.New("zmat: eigendecomposition failed to converge")

	// ErrSVDFailed indicates that the one-sided Jacobi SVD did not converge
	// within the iteration cap.
	ErrSVDFailed = errors.New("zmat: singular value decomposition failed to converge")

	// ErrRankDeficient is returned when an orthonormalization or inverse
	// square root meets a (near-)zero singular value or eigenvalue.
	ErrRankDeficient = errors.New("zmat: matrix is rank deficient within tolerance")
)
