// Package gauge: pullback of the Euclidean spread gradient.
//
// The spread functional differentiates with respect to the gauge matrix A;
// the optimizer steps in (X, Y). The chain rule through A = Y·X gives
// GX = Yᴴ·G and GY = G·Xᴴ; the frozen parts of GY are then zeroed so the
// fixed frozen subspace is never perturbed, not even transiently inside a
// line search.

package gauge

import (
	"fmt"

	"github.com/katalvlaran/wannier/zmat"
)

// Pullback maps the Euclidean gradient G (shape of A) into gradients with
// respect to X and Y:
//
//	GX = Yᴴ·G                (n_wann × n_wann)
//	GY = G·Xᴴ, then zeroed   (n_bands × n_wann)
//
// on the frozen rows and on the first n_froz columns. When every Wannier
// function is frozen at this momentum there are no degrees of freedom left,
// and both tangents are identically zero.
//
// Errors: ErrNilMatrix, ErrMaskLength/ErrFrozenCount, ErrShapeMismatch.
func Pullback(g, x, y *zmat.Dense, frozen FrozenMask) (gx, gy *zmat.Dense, err error) {
	if g == nil || x == nil || y == nil {
		return nil, nil, fmt.Errorf("Pullback: %w", ErrNilMatrix)
	}
	nBands, nWann := y.Shape()
	if err = frozen.Validate(nBands, nWann); err != nil {
		return nil, nil, fmt.Errorf("Pullback: %w", err)
	}
	if g.Rows() != nBands || g.Cols() != nWann {
		return nil, nil, fmt.Errorf("Pullback: G %dx%d for Y %dx%d: %w", g.Rows(), g.Cols(), nBands, nWann, ErrShapeMismatch)
	}
	if x.Rows() != nWann || x.Cols() != nWann {
		return nil, nil, fmt.Errorf("Pullback: X %dx%d: %w", x.Rows(), x.Cols(), ErrShapeMismatch)
	}

	nFroz := frozen.Count()
	if nFroz == nWann {
		// Fully frozen momentum: the gauge is fixed, zero contribution.
		gx, err = zmat.NewDense(nWann, nWann)
		if err != nil {
			return nil, nil, fmt.Errorf("Pullback: %w", err)
		}
		gy, err = zmat.NewDense(nBands, nWann)
		if err != nil {
			return nil, nil, fmt.Errorf("Pullback: %w", err)
		}

		return gx, gy, nil
	}

	gx, err = zmat.AdjointMul(y, g)
	if err != nil {
		return nil, nil, fmt.Errorf("Pullback: %w", err)
	}
	gy, err = zmat.MulAdjoint(g, x)
	if err != nil {
		return nil, nil, fmt.Errorf("Pullback: %w", err)
	}

	// Zero the frozen rows and the frozen column block of GY.
	for _, row := range frozen.FrozenIndices() {
		for c := 0; c < nWann; c++ {
			_ = gy.Set(row, c, 0)
		}
	}
	for row := 0; row < nBands; row++ {
		for c := 0; c < nFroz; c++ {
			_ = gy.Set(row, c, 0)
		}
	}

	return gx, gy, nil
}
