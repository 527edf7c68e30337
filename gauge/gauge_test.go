// Package gauge_test validates the frozen-aware orthonormalizer, the
// representation converter, the flat-vector encoding, and the gradient
// pullback against the contracts of the geometric core.

package gauge_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/wannier/gauge"
	"github.com/katalvlaran/wannier/zmat"
)

// checkTol matches the testable-property tolerance (looser than the
// internal 1e-10 contract; products stack rounding on top).
const checkTol = 1e-8

// ---------------------------------------------------------------------
// Orthonormalizer
// ---------------------------------------------------------------------

func TestOrthonormalize_InvariantsAcrossMasks(t *testing.T) {
	rng := rand.New(rand.NewSource(101))
	cases := []struct {
		name   string
		nBands int
		nWann  int
		frozen []int
	}{
		{"no_frozen", 4, 2, nil},
		{"one_frozen", 4, 2, []int{1}},
		{"two_frozen", 5, 3, []int{0, 3}},
		{"fully_frozen", 4, 2, []int{0, 2}},
		{"tall", 8, 4, []int{2, 5, 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := randomDense(t, tc.nBands, tc.nWann, rng)
			mask := buildMask(tc.nBands, tc.frozen)

			b, err := gauge.Orthonormalize(a, mask)
			require.NoError(t, err)

			// B*B = I
			require.NoError(t, zmat.ValidateSemiUnitary(b, checkTol))

			if len(tc.frozen) == 0 {
				return
			}
			// B[frozen,:]·B[frozen,:]* = I
			bf, err := b.TakeRows(mask.FrozenIndices())
			require.NoError(t, err)
			gram, err := zmat.MulAdjoint(bf, bf)
			require.NoError(t, err)
			eye, err := zmat.NewIdentity(len(tc.frozen))
			require.NoError(t, err)
			diff, err := zmat.Sub(gram, eye)
			require.NoError(t, err)
			require.Less(t, zmat.MaxAbs(diff), checkTol)

			// ‖B[frozen,:]·B[!frozen,:]*‖ < tol
			free := mask.FreeIndices()
			if len(free) == 0 {
				return
			}
			br, err := b.TakeRows(free)
			require.NoError(t, err)
			cross, err := zmat.MulAdjoint(bf, br)
			require.NoError(t, err)
			require.Less(t, zmat.MaxAbs(cross), checkTol)
		})
	}
}

func TestOrthonormalize_PreservesFrozenRowSpan(t *testing.T) {
	// The frozen rows of B must span exactly the frozen rows of the
	// orthonormalized input subspace: B[froz,:] is a unitary re-mix of the
	// Löwdin factor of A[froz,:], so projecting A's frozen rows onto B's
	// frozen row space must be lossless.
	rng := rand.New(rand.NewSource(102))
	a := randomDense(t, 5, 3, rng)
	mask := buildMask(5, []int{1, 4})

	b, err := gauge.Orthonormalize(a, mask)
	require.NoError(t, err)

	af, err := a.TakeRows(mask.FrozenIndices())
	require.NoError(t, err)
	bf, err := b.TakeRows(mask.FrozenIndices())
	require.NoError(t, err)

	// Projector onto bf's row space: P = bfᴴ·(bf·bfᴴ)⁻¹·bf = bfᴴ·bf here,
	// because bf has orthonormal rows.
	p, err := zmat.AdjointMul(bf, bf)
	require.NoError(t, err)
	proj, err := zmat.Mul(af, p)
	require.NoError(t, err)
	diff, err := zmat.Sub(af, proj)
	require.NoError(t, err)
	require.Less(t, zmat.MaxAbs(diff), checkTol)
}

func TestOrthonormalize_FrozenCountExceedsWannier(t *testing.T) {
	a := randomDense(t, 4, 2, rand.New(rand.NewSource(1)))
	mask := buildMask(4, []int{0, 1, 2})
	_, err := gauge.Orthonormalize(a, mask)
	require.ErrorIs(t, err, gauge.ErrFrozenCount)
}

func TestOrthonormalize_MaskLengthMismatch(t *testing.T) {
	a := randomDense(t, 4, 2, rand.New(rand.NewSource(2)))
	mask := buildMask(3, nil)
	_, err := gauge.Orthonormalize(a, mask)
	require.ErrorIs(t, err, gauge.ErrMaskLength)
}

func TestOrthonormalize_RankDeficientResidual(t *testing.T) {
	// Columns of A collapse onto the frozen band: after projecting the
	// frozen row-space out, the residual has rank 0 < n_wann − n_froz.
	a, err := zmat.FromSlice(3, 2, []complex128{
		1, 1,
		0, 0,
		0, 0,
	})
	require.NoError(t, err)
	mask := buildMask(3, []int{0})
	_, err = gauge.Orthonormalize(a, mask)
	require.ErrorIs(t, err, gauge.ErrRankMismatch)
}

// ---------------------------------------------------------------------
// Converter
// ---------------------------------------------------------------------

func TestToXY_RoundTripLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(201))
	cases := []struct {
		name   string
		nBands int
		nWann  int
		frozen []int
	}{
		{"no_frozen", 4, 2, nil},
		{"one_frozen", 4, 2, []int{0}},
		{"two_frozen", 6, 4, []int{1, 3}},
		{"fully_frozen", 4, 2, []int{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mask := buildMask(tc.nBands, tc.frozen)
			// Start from a constrained B so the round trip law applies.
			b, err := gauge.Orthonormalize(randomDense(t, tc.nBands, tc.nWann, rng), mask)
			require.NoError(t, err)

			x, y, err := gauge.ToXY(b, mask)
			require.NoError(t, err)

			require.NoError(t, zmat.ValidateUnitary(x, checkTol))
			require.NoError(t, zmat.ValidateSemiUnitary(y, checkTol))

			// Frozen block of Y: identity on the first n_froz columns, exact.
			for j, row := range mask.FrozenIndices() {
				for c := 0; c < tc.nWann; c++ {
					v, aerr := y.At(row, c)
					require.NoError(t, aerr)
					if c == j {
						require.Equal(t, complex128(1), v)
					} else {
						require.Equal(t, complex128(0), v)
					}
				}
			}

			// B → (X,Y) → A' must reproduce B within 1e-6.
			a2, err := gauge.FromXY(x, y)
			require.NoError(t, err)
			diff, err := zmat.Sub(a2, b)
			require.NoError(t, err)
			require.Less(t, zmat.MaxAbs(diff), 1e-6)
		})
	}
}

func TestFromXY_ShapeMismatch(t *testing.T) {
	x := randomDense(t, 3, 3, rand.New(rand.NewSource(3)))
	y := randomDense(t, 4, 2, rand.New(rand.NewSource(4)))
	_, err := gauge.FromXY(x, y)
	require.ErrorIs(t, err, zmat.ErrDimensionMismatch)
}

// ---------------------------------------------------------------------
// Flat vector
// ---------------------------------------------------------------------

func TestFlatten_RoundTripIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(301))
	x := randomDense(t, 3, 3, rng)
	y := randomDense(t, 5, 3, rng)

	vec := make([]float64, gauge.ParamLen(5, 3))
	require.NoError(t, gauge.Flatten(x, y, vec))

	x2, y2, err := gauge.Unflatten(vec, 5, 3)
	require.NoError(t, err)
	require.True(t, zmat.EqualApprox(x, x2, 0), "flat round trip must be exact")
	require.True(t, zmat.EqualApprox(y, y2, 0), "flat round trip must be exact")
}

func TestFlatten_LengthValidation(t *testing.T) {
	x := randomDense(t, 2, 2, rand.New(rand.NewSource(5)))
	y := randomDense(t, 3, 2, rand.New(rand.NewSource(6)))
	require.ErrorIs(t, gauge.Flatten(x, y, make([]float64, 3)), gauge.ErrBadVectorLength)
	_, _, err := gauge.Unflatten(make([]float64, 3), 3, 2)
	require.ErrorIs(t, err, gauge.ErrBadVectorLength)
}

// ---------------------------------------------------------------------
// Pullback
// ---------------------------------------------------------------------

func TestPullback_ZeroesFrozenParts(t *testing.T) {
	rng := rand.New(rand.NewSource(401))
	mask := buildMask(5, []int{0, 2})
	b, err := gauge.Orthonormalize(randomDense(t, 5, 3, rng), mask)
	require.NoError(t, err)
	x, y, err := gauge.ToXY(b, mask)
	require.NoError(t, err)

	g := randomDense(t, 5, 3, rng)
	gx, gy, err := gauge.Pullback(g, x, y, mask)
	require.NoError(t, err)
	require.Equal(t, 3, gx.Rows())
	require.Equal(t, 3, gx.Cols())

	// Frozen rows of GY and the first n_froz columns are exactly zero.
	for _, row := range mask.FrozenIndices() {
		for c := 0; c < 3; c++ {
			v, aerr := gy.At(row, c)
			require.NoError(t, aerr)
			require.Equal(t, complex128(0), v)
		}
	}
	for row := 0; row < 5; row++ {
		for c := 0; c < 2; c++ {
			v, aerr := gy.At(row, c)
			require.NoError(t, aerr)
			require.Equal(t, complex128(0), v)
		}
	}
}

func TestPullback_FullyFrozenGivesZeroTangents(t *testing.T) {
	rng := rand.New(rand.NewSource(402))
	mask := buildMask(4, []int{1, 3})
	b, err := gauge.Orthonormalize(randomDense(t, 4, 2, rng), mask)
	require.NoError(t, err)
	x, y, err := gauge.ToXY(b, mask)
	require.NoError(t, err)

	g := randomDense(t, 4, 2, rng)
	gx, gy, err := gauge.Pullback(g, x, y, mask)
	require.NoError(t, err)
	require.Zero(t, zmat.MaxAbs(gx))
	require.Zero(t, zmat.MaxAbs(gy))
}

func TestPullback_MatchesChainRule(t *testing.T) {
	// Without frozen bands GX = Yᴴ·G and GY = G·Xᴴ verbatim.
	rng := rand.New(rand.NewSource(403))
	mask := buildMask(4, nil)
	b, err := gauge.Orthonormalize(randomDense(t, 4, 2, rng), mask)
	require.NoError(t, err)
	x, y, err := gauge.ToXY(b, mask)
	require.NoError(t, err)

	g := randomDense(t, 4, 2, rng)
	gx, gy, err := gauge.Pullback(g, x, y, mask)
	require.NoError(t, err)

	wantGX, err := zmat.AdjointMul(y, g)
	require.NoError(t, err)
	wantGY, err := zmat.MulAdjoint(g, x)
	require.NoError(t, err)
	require.True(t, zmat.EqualApprox(gx, wantGX, 0))
	require.True(t, zmat.EqualApprox(gy, wantGY, 0))
}

// ---------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------

func buildMask(nBands int, frozen []int) gauge.FrozenMask {
	mask := make(gauge.FrozenMask, nBands)
	for _, i := range frozen {
		mask[i] = true
	}

	return mask
}

func randomDense(t *testing.T, rows, cols int, rng *rand.Rand) *zmat.Dense {
	t.Helper()
	data := make([]complex128, rows*cols)
	for i := range data {
		data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	m, err := zmat.FromSlice(rows, cols, data)
	require.NoError(t, err)

	return m
}
