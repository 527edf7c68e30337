// Package gauge: flat-vector encoding of an (X, Y) pair.
//
// The optimizer works on real vectors; one momentum's parameters are laid
// out as [Re X₀₀, Im X₀₀, ..., Re Y₀₀, Im Y₀₀, ...] — X first, then Y,
// both row-major. The encoding is a pure reshape: it round-trips exactly
// and carries no invariants beyond those of X and Y.

package gauge

import (
	"fmt"

	"github.com/katalvlaran/wannier/zmat"
)

// ParamLen returns the flat-vector length for one momentum:
// 2·(n_wann² + n_bands·n_wann) float64 slots.
func ParamLen(nBands, nWann int) int {
	return 2 * (nWann*nWann + nBands*nWann)
}

// Flatten writes (X, Y) into dst, which must have exactly
// ParamLen(Y.Rows, Y.Cols) elements.
// Errors: ErrNilMatrix, ErrShapeMismatch, ErrBadVectorLength.
func Flatten(x, y *zmat.Dense, dst []float64) error {
	if x == nil || y == nil {
		return fmt.Errorf("Flatten: %w", ErrNilMatrix)
	}
	nBands, nWann := y.Shape()
	if x.Rows() != nWann || x.Cols() != nWann {
		return fmt.Errorf("Flatten: X %dx%d for Y %dx%d: %w", x.Rows(), x.Cols(), nBands, nWann, ErrShapeMismatch)
	}
	if len(dst) != ParamLen(nBands, nWann) {
		return fmt.Errorf("Flatten: dst %d, want %d: %w", len(dst), ParamLen(nBands, nWann), ErrBadVectorLength)
	}
	i := 0
	for _, v := range x.Raw() {
		dst[i] = real(v)
		dst[i+1] = imag(v)
		i += 2
	}
	for _, v := range y.Raw() {
		dst[i] = real(v)
		dst[i+1] = imag(v)
		i += 2
	}

	return nil
}

// Unflatten reads (X, Y) back out of src. Exact inverse of Flatten.
// Errors: ErrBadVectorLength when len(src) disagrees with the shapes.
func Unflatten(src []float64, nBands, nWann int) (x, y *zmat.Dense, err error) {
	if len(src) != ParamLen(nBands, nWann) {
		return nil, nil, fmt.Errorf("Unflatten: src %d, want %d: %w", len(src), ParamLen(nBands, nWann), ErrBadVectorLength)
	}
	x, err = zmat.NewDense(nWann, nWann)
	if err != nil {
		return nil, nil, fmt.Errorf("Unflatten: %w", err)
	}
	y, err = zmat.NewDense(nBands, nWann)
	if err != nil {
		return nil, nil, fmt.Errorf("Unflatten: %w", err)
	}
	i := 0
	xr := x.Raw()
	for k := range xr {
		xr[k] = complex(src[i], src[i+1])
		i += 2
	}
	yr := y.Raw()
	for k := range yr {
		yr[k] = complex(src[i], src[i+1])
		i += 2
	}

	return x, y, nil
}
