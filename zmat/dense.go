// SPDX-License-Identifier: MIT
// Package zmat: the Dense container.
//
// Dense wraps cblas128.General so products can be delegated to gonum's
// complex BLAS without copies. The stride always equals the column count;
// views are materialized (gather/scatter) rather than aliased, which keeps
// ownership simple across the optimizer's per-momentum shards.

package zmat

import (
	"fmt"

	"gonum.org/v1/gonum/blas/cblas128"
)

// Dense is a row-major dense complex matrix.
// The zero value is not usable; construct via NewDense / FromSlice / NewIdentity.
type Dense struct {
	mat cblas128.General
}

// NewDense returns a zero-initialized rows×cols matrix.
// Errors: ErrBadShape if rows <= 0 or cols <= 0.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("NewDense(%d,%d): %w", rows, cols, ErrBadShape)
	}

	return &Dense{mat: cblas128.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   make([]complex128, rows*cols),
	}}, nil
}

// FromSlice builds a rows×cols matrix from row-major data. The slice is
// copied; the caller keeps ownership of data.
// Errors: ErrBadShape, ErrBadLength.
func FromSlice(rows, cols int, data []complex128) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("FromSlice(%d,%d): %w", rows, cols, ErrBadShape)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("FromSlice(%d,%d): len=%d: %w", rows, cols, len(data), ErrBadLength)
	}
	out := make([]complex128, len(data))
	copy(out, data)

	return &Dense{mat: cblas128.General{Rows: rows, Cols: cols, Stride: cols, Data: out}}, nil
}

// NewIdentity returns the n×n identity matrix.
func NewIdentity(n int) (*Dense, error) {
	m, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.mat.Data[i*n+i] = 1
	}

	return m, nil
}

// Rows returns the number of rows.
func (m *Dense) Rows() int { return m.mat.Rows }

// Cols returns the number of columns.
func (m *Dense) Cols() int { return m.mat.Cols }

// Shape returns (rows, cols) in a single call.
func (m *Dense) Shape() (rows, cols int) { return m.mat.Rows, m.mat.Cols }

// At returns the element at (row, col).
// Errors: ErrOutOfRange for indices outside the matrix.
func (m *Dense) At(row, col int) (complex128, error) {
	if row < 0 || row >= m.mat.Rows || col < 0 || col >= m.mat.Cols {
		return 0, fmt.Errorf("At(%d,%d) on %dx%d: %w", row, col, m.mat.Rows, m.mat.Cols, ErrOutOfRange)
	}

	return m.mat.Data[row*m.mat.Stride+col], nil
}

// Set writes the element at (row, col).
// Errors: ErrOutOfRange for indices outside the matrix.
func (m *Dense) Set(row, col int, v complex128) error {
	if row < 0 || row >= m.mat.Rows || col < 0 || col >= m.mat.Cols {
		return fmt.Errorf("Set(%d,%d) on %dx%d: %w", row, col, m.mat.Rows, m.mat.Cols, ErrOutOfRange)
	}
	m.mat.Data[row*m.mat.Stride+col] = v

	return nil
}

// Clone returns a deep copy of m.
func (m *Dense) Clone() *Dense {
	out := make([]complex128, len(m.mat.Data))
	copy(out, m.mat.Data)

	return &Dense{mat: cblas128.General{Rows: m.mat.Rows, Cols: m.mat.Cols, Stride: m.mat.Stride, Data: out}}
}

// Raw exposes the row-major backing slice. Mutating it mutates the matrix;
// intended for kernels inside this module and for flattening in callers.
func (m *Dense) Raw() []complex128 { return m.mat.Data }

// Induced returns the sub-matrix gathered from the given row and column
// index lists, in the order supplied. Indices may repeat; the result is a
// fresh matrix (no aliasing).
// Errors: ErrBadShape on empty index lists, ErrOutOfRange on bad indices.
func (m *Dense) Induced(rowsIdx, colsIdx []int) (*Dense, error) {
	if len(rowsIdx) == 0 || len(colsIdx) == 0 {
		return nil, fmt.Errorf("Induced: empty index set: %w", ErrBadShape)
	}
	out, err := NewDense(len(rowsIdx), len(colsIdx))
	if err != nil {
		return nil, err
	}
	for i, r := range rowsIdx {
		if r < 0 || r >= m.mat.Rows {
			return nil, fmt.Errorf("Induced: row %d: %w", r, ErrOutOfRange)
		}
		for j, c := range colsIdx {
			if c < 0 || c >= m.mat.Cols {
				return nil, fmt.Errorf("Induced: col %d: %w", c, ErrOutOfRange)
			}
			out.mat.Data[i*out.mat.Stride+j] = m.mat.Data[r*m.mat.Stride+c]
		}
	}

	return out, nil
}

// SetInduced scatters src back into the rows/columns named by the index
// lists: m[rowsIdx[i], colsIdx[j]] = src[i, j].
// Errors: ErrDimensionMismatch if src shape differs from the index lists,
// ErrOutOfRange on bad indices.
func (m *Dense) SetInduced(rowsIdx, colsIdx []int, src *Dense) error {
	if src == nil {
		return fmt.Errorf("SetInduced: %w", ErrNilMatrix)
	}
	if src.Rows() != len(rowsIdx) || src.Cols() != len(colsIdx) {
		return fmt.Errorf("SetInduced: src %dx%d vs index %dx%d: %w",
			src.Rows(), src.Cols(), len(rowsIdx), len(colsIdx), ErrDimensionMismatch)
	}
	for i, r := range rowsIdx {
		if r < 0 || r >= m.mat.Rows {
			return fmt.Errorf("SetInduced: row %d: %w", r, ErrOutOfRange)
		}
		for j, c := range colsIdx {
			if c < 0 || c >= m.mat.Cols {
				return fmt.Errorf("SetInduced: col %d: %w", c, ErrOutOfRange)
			}
			m.mat.Data[r*m.mat.Stride+c] = src.mat.Data[i*src.mat.Stride+j]
		}
	}

	return nil
}

// TakeRows gathers the listed rows (all columns) into a fresh matrix.
func (m *Dense) TakeRows(rowsIdx []int) (*Dense, error) {
	cols := allIndices(m.mat.Cols)

	return m.Induced(rowsIdx, cols)
}

// SetRows scatters src (len(rowsIdx)×Cols) back into the listed rows.
func (m *Dense) SetRows(rowsIdx []int, src *Dense) error {
	cols := allIndices(m.mat.Cols)

	return m.SetInduced(rowsIdx, cols, src)
}

// TakeCols gathers the listed columns (all rows) into a fresh matrix.
func (m *Dense) TakeCols(colsIdx []int) (*Dense, error) {
	rows := allIndices(m.mat.Rows)

	return m.Induced(rows, colsIdx)
}

// allIndices returns [0, 1, ..., n-1].
func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	return idx
}
