// Package gauge: the representation converter.
//
// Three conversions, each applied independently per momentum:
//
//   - A → (X, Y): orthonormalize, then split the constrained gauge into a
//     manifold-respecting pair — Y carries the subspace embedding with the
//     frozen block pinned to the identity, X carries the rotation inside
//     the subspace.
//   - (X, Y) → A: the product Y·X; shapes are the only precondition.
//   - flat vector ↔ (X, Y): a pure reshape with no numerical content.
//
// Any postcondition failure here is a defect upstream and aborts the
// optimization step rather than continuing silently.

package gauge

import (
	"fmt"

	"github.com/katalvlaran/wannier/zmat"
)

// ToXY factors A (after frozen-aware orthonormalization) into the pair
// (X, Y) with A ≈ Y·X.
//
// Construction:
//
//  1. B = Orthonormalize(A, frozen).
//  2. Y's frozen block: Y[froz[j], j] = 1 for j < n_froz, zero elsewhere
//     in frozen rows and in the first n_froz columns of free rows.
//  3. If free degrees of freedom remain, the free block of Y is filled
//     with the eigenvectors of the Hermitian projector Ur·Urᴴ (Ur = B's
//     free rows) belonging to its n_wann − n_froz largest eigenvalues.
//  4. X = Löwdin(Yᴴ·B).
//
// Postconditions re-verified before returning: YᴴY = I, XᴴX = I, the
// frozen block structure of Y, and Y·X ≈ B within RoundTripTol.
func ToXY(a *zmat.Dense, frozen FrozenMask) (x, y *zmat.Dense, err error) {
	b, err := Orthonormalize(a, frozen)
	if err != nil {
		return nil, nil, fmt.Errorf("ToXY: %w", err)
	}

	nBands, nWann := b.Shape()
	nFroz := frozen.Count()
	froz := frozen.FrozenIndices()
	free := frozen.FreeIndices()

	// 2) Frozen block of Y: identity on the first n_froz columns.
	y, err = zmat.NewDense(nBands, nWann)
	if err != nil {
		return nil, nil, fmt.Errorf("ToXY: %w", err)
	}
	for j, row := range froz {
		_ = y.Set(row, j, 1) // indices validated by construction
	}

	// 3) Free block of Y: dominant eigenvectors of the free-row projector.
	if nWann > nFroz {
		ur, terr := b.TakeRows(free)
		if terr != nil {
			return nil, nil, fmt.Errorf("ToXY: %w", terr)
		}
		p, merr := zmat.MulAdjoint(ur, ur) // Ur·Urᴴ, Hermitian PSD
		if merr != nil {
			return nil, nil, fmt.Errorf("ToXY: %w", merr)
		}
		_, vecs, eerr := zmat.HermEigen(p, OrthoTol, 0)
		if eerr != nil {
			return nil, nil, fmt.Errorf("ToXY: projector eigen: %w", eerr)
		}
		// Eigenvalues ascend; the dominant n_wann − n_froz live at the end.
		top := make([]int, nWann-nFroz)
		for i := range top {
			top[i] = len(free) - (nWann - nFroz) + i
		}
		dom, derr := vecs.TakeCols(top)
		if derr != nil {
			return nil, nil, fmt.Errorf("ToXY: %w", derr)
		}
		freeCols := make([]int, nWann-nFroz)
		for i := range freeCols {
			freeCols[i] = nFroz + i
		}
		if serr := y.SetInduced(free, freeCols, dom); serr != nil {
			return nil, nil, fmt.Errorf("ToXY: %w", serr)
		}
	}

	// 4) X = Löwdin(Yᴴ·B): unitary rotation aligning Y's frame with B.
	yb, err := zmat.AdjointMul(y, b)
	if err != nil {
		return nil, nil, fmt.Errorf("ToXY: %w", err)
	}
	x, err = zmat.Lowdin(yb, RankTol)
	if err != nil {
		return nil, nil, fmt.Errorf("ToXY: %w", err)
	}

	if err = verifyXY(x, y, b, frozen); err != nil {
		return nil, nil, err
	}

	return x, y, nil
}

// FromXY reconstructs the gauge matrix A = Y·X.
// Shape compatibility is the only requirement; no invariants are assumed.
func FromXY(x, y *zmat.Dense) (*zmat.Dense, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("FromXY: %w", ErrNilMatrix)
	}
	a, err := zmat.Mul(y, x)
	if err != nil {
		return nil, fmt.Errorf("FromXY: %w", err)
	}

	return a, nil
}

// verifyXY re-checks the converter postconditions: semi-unitarity of Y,
// unitarity of X, the exact frozen block structure of Y, and Y·X ≈ B.
func verifyXY(x, y, b *zmat.Dense, frozen FrozenMask) error {
	if err := zmat.ValidateSemiUnitary(y, OrthoTol); err != nil {
		return fmt.Errorf("ToXY: Y: %v: %w", err, ErrInvariantViolated)
	}
	if err := zmat.ValidateUnitary(x, OrthoTol); err != nil {
		return fmt.Errorf("ToXY: X: %v: %w", err, ErrInvariantViolated)
	}
	if err := verifyFrozenBlock(y, frozen); err != nil {
		return err
	}

	yx, err := zmat.Mul(y, x)
	if err != nil {
		return fmt.Errorf("ToXY: %w", err)
	}
	diff, err := zmat.Sub(yx, b)
	if err != nil {
		return fmt.Errorf("ToXY: %w", err)
	}
	if defect := zmat.MaxAbs(diff); defect > RoundTripTol {
		return fmt.Errorf("ToXY: ‖Y·X − B‖ = %.3e: %w", defect, ErrInvariantViolated)
	}

	return nil
}

// verifyFrozenBlock enforces the exact block structure of Y: frozen rows
// equal the identity on the first n_froz columns and are zero beyond it;
// free rows are zero in the first n_froz columns. The structure is exact
// (set algebraically), so the comparison is exact too.
func verifyFrozenBlock(y *zmat.Dense, frozen FrozenMask) error {
	nFroz := frozen.Count()
	nWann := y.Cols()
	for j, row := range frozen.FrozenIndices() {
		for c := 0; c < nWann; c++ {
			v, err := y.At(row, c)
			if err != nil {
				return fmt.Errorf("ToXY: %w", err)
			}
			want := complex128(0)
			if c == j {
				want = 1
			}
			if v != want {
				return fmt.Errorf("ToXY: frozen row %d col %d = %v: %w", row, c, v, ErrInvariantViolated)
			}
		}
	}
	for _, row := range frozen.FreeIndices() {
		for c := 0; c < nFroz; c++ {
			v, err := y.At(row, c)
			if err != nil {
				return fmt.Errorf("ToXY: %w", err)
			}
			if v != 0 {
				return fmt.Errorf("ToXY: free row %d col %d = %v: %w", row, c, v, ErrInvariantViolated)
			}
		}
	}

	return nil
}
