// Package gauge: the frozen-aware orthonormalizer.
//
// Orthonormalize turns an arbitrary complex n_bands × n_wann matrix into a
// semi-unitary matrix whose frozen row-block exactly spans the frozen
// subspace. This is the geometric core of the optimizer: every feasible
// point of the search manifold passes through here, so all three output
// invariants are re-verified before returning and any violation is fatal.

package gauge

import (
	"fmt"

	"github.com/katalvlaran/wannier/zmat"
)

// Orthonormalize produces B from A such that:
//
//  1. B is semi-unitary: BᴴB = I within OrthoTol;
//  2. the frozen row-block of B has orthonormal rows (it is unitary as a
//     map onto the frozen subspace): B[froz,:]·B[froz,:]ᴴ = I;
//  3. frozen and non-frozen row-blocks are mutually orthogonal:
//     ‖B[froz,:]·B[free,:]ᴴ‖_max within OrthoTol of zero.
//
// Algorithm (per the disentanglement construction):
//
//  1. Löwdin-orthonormalize the frozen row-block (polar factor).
//  2. Project the frozen row-space out of the remaining rows.
//  3. SVD the residual, demand exactly n_wann − n_froz significant
//     singular values (ErrRankMismatch otherwise), set them to one, and
//     rebuild the residual from the kept factors.
//  4. Reassemble and re-verify all three invariants (ErrInvariantViolated).
//
// Errors: ErrNilMatrix, ErrMaskLength, ErrFrozenCount on bad input;
// ErrRankMismatch / ErrInvariantViolated on numerical breakdown.
func Orthonormalize(a *zmat.Dense, frozen FrozenMask) (*zmat.Dense, error) {
	if a == nil {
		return nil, fmt.Errorf("Orthonormalize: %w", ErrNilMatrix)
	}
	nBands, nWann := a.Shape()
	if err := frozen.Validate(nBands, nWann); err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}
	nFroz := frozen.Count()

	// Fast path: nothing frozen — the polar projection is the whole job.
	if nFroz == 0 {
		b, err := zmat.PolarProject(a, RankTol)
		if err != nil {
			return nil, fmt.Errorf("Orthonormalize: %w", err)
		}

		return b, verifyOrthonormalized(b, frozen)
	}

	froz := frozen.FrozenIndices()
	free := frozen.FreeIndices()

	// 1) Orthonormalize the frozen rows. For a wide block (n_froz ≤ n_wann)
	//    the polar factor has orthonormal rows; rank deficiency here means
	//    the frozen bands were not linearly independent in A.
	uf, err := a.TakeRows(froz)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: frozen block: %w", err)
	}
	ufNew, err := zmat.PolarProject(uf, RankTol)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: frozen block: %w", err)
	}

	b, err := zmat.NewDense(nBands, nWann)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}
	if err = b.SetRows(froz, ufNew); err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}

	// Fully frozen gauge: the non-frozen block is identically zero.
	if nFroz == nWann || len(free) == 0 {
		return b, verifyOrthonormalized(b, frozen)
	}

	// 2) Project the frozen row-space out of the remaining rows:
	//    Ur ← Ur − Ur·UfᴴUf.
	ur, err := a.TakeRows(free)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: free block: %w", err)
	}
	overlap, err := zmat.MulAdjoint(ur, ufNew) // Ur·Ufᴴ
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}
	proj, err := zmat.Mul(overlap, ufNew) // (Ur·Ufᴴ)·Uf
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}
	ur, err = zmat.Sub(ur, proj)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}

	// 3) Truncated SVD of the residual: keep exactly n_wann − n_froz
	//    directions with unit weight.
	u, s, v, err := zmat.SVD(ur, RankTol, 0)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: residual SVD: %w", err)
	}
	keep := 0
	for _, sv := range s {
		if sv > RankTol {
			keep++
		}
	}
	if want := nWann - nFroz; keep != want {
		return nil, fmt.Errorf("Orthonormalize: kept %d of %d singular values, want %d: %w",
			keep, len(s), want, ErrRankMismatch)
	}
	kept := make([]int, keep)
	for i := range kept {
		kept[i] = i // singular values are sorted descending
	}
	uKeep, err := u.TakeCols(kept)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}
	vKeep, err := v.TakeCols(kept)
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}
	urNew, err := zmat.MulAdjoint(uKeep, vKeep) // Σ over kept directions, weights = 1
	if err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}

	// 4) Reassemble and re-verify.
	if err = b.SetRows(free, urNew); err != nil {
		return nil, fmt.Errorf("Orthonormalize: %w", err)
	}

	return b, verifyOrthonormalized(b, frozen)
}

// verifyOrthonormalized enforces the three output invariants of
// Orthonormalize. Violations are internal-consistency failures and are
// never silently ignored.
func verifyOrthonormalized(b *zmat.Dense, frozen FrozenMask) error {
	// Invariant 1: BᴴB = I.
	if err := zmat.ValidateSemiUnitary(b, OrthoTol); err != nil {
		return fmt.Errorf("Orthonormalize: %v: %w", err, ErrInvariantViolated)
	}

	froz := frozen.FrozenIndices()
	if len(froz) == 0 {
		return nil
	}
	bf, err := b.TakeRows(froz)
	if err != nil {
		return fmt.Errorf("Orthonormalize: %w", err)
	}

	// Invariant 2: frozen rows orthonormal, B[froz,:]·B[froz,:]ᴴ = I.
	gram, err := zmat.MulAdjoint(bf, bf)
	if err != nil {
		return fmt.Errorf("Orthonormalize: %w", err)
	}
	eye, err := zmat.NewIdentity(len(froz))
	if err != nil {
		return fmt.Errorf("Orthonormalize: %w", err)
	}
	diff, err := zmat.Sub(gram, eye)
	if err != nil {
		return fmt.Errorf("Orthonormalize: %w", err)
	}
	if defect := zmat.MaxAbs(diff); defect > OrthoTol {
		return fmt.Errorf("Orthonormalize: frozen block defect %.3e: %w", defect, ErrInvariantViolated)
	}

	// Invariant 3: cross-block orthogonality, B[froz,:]·B[free,:]ᴴ ≈ 0.
	free := frozen.FreeIndices()
	if len(free) == 0 {
		return nil
	}
	br, err := b.TakeRows(free)
	if err != nil {
		return fmt.Errorf("Orthonormalize: %w", err)
	}
	cross, err := zmat.MulAdjoint(bf, br)
	if err != nil {
		return fmt.Errorf("Orthonormalize: %w", err)
	}
	if defect := zmat.MaxAbs(cross); defect > OrthoTol {
		return fmt.Errorf("Orthonormalize: cross-block defect %.3e: %w", defect, ErrInvariantViolated)
	}

	return nil
}
