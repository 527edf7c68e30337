package stiefel_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/wannier/gauge"
	"github.com/katalvlaran/wannier/stiefel"
	"github.com/katalvlaran/wannier/zmat"
)

const checkTol = 1e-8

// buildMask freezes the listed band indices.
func buildMask(nBands int, frozen ...int) gauge.FrozenMask {
	m := make(gauge.FrozenMask, nBands)
	for _, i := range frozen {
		m[i] = true
	}

	return m
}

// randomGeneral fills a matrix with standard complex Gaussians.
func randomGeneral(t *testing.T, rows, cols int, rng *rand.Rand) *zmat.Dense {
	t.Helper()
	m, err := zmat.NewDense(rows, cols)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			require.NoError(t, m.Set(i, j, complex(rng.NormFloat64(), rng.NormFloat64())))
		}
	}

	return m
}

func TestProjectTangent_SkewCondition(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	q, err := zmat.RandomSemiUnitary(5, 3, rng)
	require.NoError(t, err)
	g := randomGeneral(t, 5, 3, rng)

	tang, err := stiefel.ProjectTangent(q, g)
	require.NoError(t, err)

	// qᴴT + (qᴴT)ᴴ = 0 characterizes the tangent space.
	qt, err := zmat.AdjointMul(q, tang)
	require.NoError(t, err)
	qtH, err := zmat.Adjoint(qt)
	require.NoError(t, err)
	sum, err := zmat.Add(qt, qtH)
	require.NoError(t, err)
	require.Less(t, zmat.MaxAbs(sum), checkTol)
}

func TestProjectTangent_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	q, err := zmat.RandomSemiUnitary(6, 2, rng)
	require.NoError(t, err)
	g := randomGeneral(t, 6, 2, rng)

	once, err := stiefel.ProjectTangent(q, g)
	require.NoError(t, err)
	twice, err := stiefel.ProjectTangent(q, once)
	require.NoError(t, err)
	require.True(t, zmat.EqualApprox(once, twice, checkTol))
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := stiefel.NewProduct(0, 2, []gauge.FrozenMask{buildMask(4)})
	require.ErrorIs(t, err, stiefel.ErrBadLayout)

	_, err = stiefel.NewProduct(2, 4, []gauge.FrozenMask{buildMask(2)})
	require.ErrorIs(t, err, stiefel.ErrBadLayout)

	_, err = stiefel.NewProduct(4, 2, nil)
	require.ErrorIs(t, err, stiefel.ErrBadLayout)

	// Mask with more frozen bands than columns fails per-momentum checks.
	_, err = stiefel.NewProduct(4, 2, []gauge.FrozenMask{buildMask(4, 0, 1, 2)})
	require.Error(t, err)

	p, err := stiefel.NewProduct(4, 2, []gauge.FrozenMask{buildMask(4), buildMask(4, 1)})
	require.NoError(t, err)
	require.Equal(t, 2, p.NKpts())
	require.Equal(t, 2*gauge.ParamLen(4, 2), p.Dim())
}

// feasiblePoint builds a flat vector of per-momentum (X, Y) factors that
// satisfy the layout's constraints.
func feasiblePoint(t *testing.T, p *stiefel.Product, nBands, nWann int, rng *rand.Rand) []float64 {
	t.Helper()
	xs := make([]*zmat.Dense, p.NKpts())
	ys := make([]*zmat.Dense, p.NKpts())
	for k := 0; k < p.NKpts(); k++ {
		x, err := zmat.RandomUnitary(nWann, rng)
		require.NoError(t, err)
		xs[k] = x

		mask := p.Mask(k)
		nFroz := mask.Count()
		y, err := zmat.NewDense(nBands, nWann)
		require.NoError(t, err)
		for j, row := range mask.FrozenIndices() {
			require.NoError(t, y.Set(row, j, 1))
		}
		if nFroz < nWann {
			free := mask.FreeIndices()
			block, err := zmat.RandomSemiUnitary(len(free), nWann-nFroz, rng)
			require.NoError(t, err)
			cols := make([]int, nWann-nFroz)
			for i := range cols {
				cols[i] = nFroz + i
			}
			require.NoError(t, y.SetInduced(free, cols, block))
		}
		ys[k] = y
	}
	vec, err := p.FlattenAll(xs, ys)
	require.NoError(t, err)

	return vec
}

func TestProduct_FlattenUnflattenRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	masks := []gauge.FrozenMask{buildMask(5), buildMask(5, 0), buildMask(5, 1, 3)}
	p, err := stiefel.NewProduct(5, 3, masks)
	require.NoError(t, err)

	vec := feasiblePoint(t, p, 5, 3, rng)
	xs, ys, err := p.UnflattenAll(vec)
	require.NoError(t, err)
	back, err := p.FlattenAll(xs, ys)
	require.NoError(t, err)
	require.Equal(t, vec, back)

	_, _, err = p.UnflattenAll(vec[:len(vec)-1])
	require.ErrorIs(t, err, stiefel.ErrBadVectorLength)
}

func TestProduct_ProjectZeroesFrozenEntries(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	masks := []gauge.FrozenMask{buildMask(4, 0, 2)}
	p, err := stiefel.NewProduct(4, 3, masks)
	require.NoError(t, err)

	x := feasiblePoint(t, p, 4, 3, rng)
	grad := make([]float64, p.Dim())
	for i := range grad {
		grad[i] = rng.NormFloat64()
	}

	tang, err := p.Project(x, grad)
	require.NoError(t, err)

	_, ty, err := p.UnflattenAll(tang)
	require.NoError(t, err)
	mask := masks[0]
	// Frozen rows are zero everywhere; frozen columns are zero everywhere.
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			if !mask[i] && j >= mask.Count() {
				continue
			}
			v, err := ty[0].At(i, j)
			require.NoError(t, err)
			require.Zero(t, v, "row %d col %d", i, j)
		}
	}
}

func TestProduct_ProjectFullyFrozenIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	masks := []gauge.FrozenMask{buildMask(3, 0, 1)}
	p, err := stiefel.NewProduct(3, 2, masks)
	require.NoError(t, err)

	x := feasiblePoint(t, p, 3, 2, rng)
	grad := make([]float64, p.Dim())
	for i := range grad {
		grad[i] = rng.NormFloat64()
	}

	tang, err := p.Project(x, grad)
	require.NoError(t, err)
	for i, v := range tang {
		require.Zero(t, v, "slot %d", i)
	}
}

func TestProduct_RetractFeasible(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	masks := []gauge.FrozenMask{buildMask(5, 1), buildMask(5)}
	p, err := stiefel.NewProduct(5, 3, masks)
	require.NoError(t, err)

	x := feasiblePoint(t, p, 5, 3, rng)
	d := make([]float64, p.Dim())
	for i := range d {
		d[i] = rng.NormFloat64()
	}
	d, err = p.Project(x, d)
	require.NoError(t, err)

	out, err := p.Retract(x, d, 0.3)
	require.NoError(t, err)

	xs, ys, err := p.UnflattenAll(out)
	require.NoError(t, err)
	for k := 0; k < p.NKpts(); k++ {
		require.NoError(t, zmat.ValidateUnitary(xs[k], checkTol), "k=%d", k)
		require.NoError(t, zmat.ValidateSemiUnitary(ys[k], checkTol), "k=%d", k)

		// Frozen block pinned exactly.
		mask := p.Mask(k)
		for j, row := range mask.FrozenIndices() {
			v, err := ys[k].At(row, j)
			require.NoError(t, err)
			require.Equal(t, complex(1, 0), v)
		}
	}
}

func TestProduct_RetractZeroStepRecoversPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(25))
	masks := []gauge.FrozenMask{buildMask(4, 3)}
	p, err := stiefel.NewProduct(4, 2, masks)
	require.NoError(t, err)

	x := feasiblePoint(t, p, 4, 2, rng)
	d := make([]float64, p.Dim())

	out, err := p.Retract(x, d, 1)
	require.NoError(t, err)
	for i := range x {
		require.InDelta(t, x[i], out[i], checkTol, "slot %d", i)
	}
}

func TestProduct_RetractRankDeficientFails(t *testing.T) {
	masks := []gauge.FrozenMask{buildMask(3)}
	p, err := stiefel.NewProduct(3, 2, masks)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(26))
	x := feasiblePoint(t, p, 3, 2, rng)
	// Direction −x with step 1 lands on the zero matrix, which has no
	// polar factor.
	d := make([]float64, p.Dim())
	for i := range d {
		d[i] = -x[i]
	}

	_, err = p.Retract(x, d, 1)
	require.ErrorIs(t, err, stiefel.ErrRetractFailed)
}
