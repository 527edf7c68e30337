// Package stiefel: the product manifold over all momenta.
//
// One flat []float64 vector holds every momentum's (X, Y) pair in
// k-major order; each per-k slice uses the gauge package's interleaved
// encoding. Project and Retract apply the Stiefel geometry blockwise: the
// whole of X, and the free block of Y, are independent factors.

package stiefel

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/wannier/gauge"
	"github.com/katalvlaran/wannier/zmat"
)

// Sentinel errors of the product layout.
var (
	// ErrBadLayout indicates inconsistent construction arguments
	// (non-positive sizes or a frozen mask list that does not match).
	ErrBadLayout = errors.New("stiefel: invalid product layout")

	// ErrBadVectorLength indicates a flat vector whose length does not
	// match the product layout.
	ErrBadVectorLength = errors.New("stiefel: flat vector length mismatch")

	// ErrRetractFailed indicates that the polar retraction met a
	// rank-deficient candidate; the step that produced it must be rejected.
	ErrRetractFailed = errors.New("stiefel: retraction failed")
)

// retractTol is the rank threshold under which a retraction candidate is
// rejected; it matches the gauge package's rank tolerance.
const retractTol = 1e-10

// Product describes the per-momentum block layout of the flat parameter
// vector for a fixed problem shape. It is immutable after construction and
// safe for concurrent readers.
type Product struct {
	nBands int
	nWann  int
	frozen []gauge.FrozenMask // one mask per momentum
	perK   int                // flat slots per momentum
}

// NewProduct validates the shape and builds the layout. One frozen mask is
// required per momentum; each must satisfy the gauge constraints.
func NewProduct(nBands, nWann int, frozen []gauge.FrozenMask) (*Product, error) {
	if nBands <= 0 || nWann <= 0 || nWann > nBands || len(frozen) == 0 {
		return nil, fmt.Errorf("NewProduct(bands=%d, wann=%d, kpts=%d): %w", nBands, nWann, len(frozen), ErrBadLayout)
	}
	for k, mask := range frozen {
		if err := mask.Validate(nBands, nWann); err != nil {
			return nil, fmt.Errorf("NewProduct: k=%d: %w", k, err)
		}
	}

	return &Product{
		nBands: nBands,
		nWann:  nWann,
		frozen: frozen,
		perK:   gauge.ParamLen(nBands, nWann),
	}, nil
}

// NKpts returns the number of momenta in the product.
func (p *Product) NKpts() int { return len(p.frozen) }

// Dim returns the total flat-vector length.
func (p *Product) Dim() int { return p.perK * len(p.frozen) }

// Mask returns the frozen mask at momentum k.
func (p *Product) Mask(k int) gauge.FrozenMask { return p.frozen[k] }

// slice returns the per-momentum window of a flat vector.
func (p *Product) slice(vec []float64, k int) []float64 {
	return vec[k*p.perK : (k+1)*p.perK]
}

// FlattenAll packs per-momentum (X, Y) pairs into a fresh flat vector.
func (p *Product) FlattenAll(xs, ys []*zmat.Dense) ([]float64, error) {
	if len(xs) != len(p.frozen) || len(ys) != len(p.frozen) {
		return nil, fmt.Errorf("FlattenAll: %d/%d pairs for %d kpts: %w", len(xs), len(ys), len(p.frozen), ErrBadLayout)
	}
	vec := make([]float64, p.Dim())
	for k := range p.frozen {
		if err := gauge.Flatten(xs[k], ys[k], p.slice(vec, k)); err != nil {
			return nil, fmt.Errorf("FlattenAll: k=%d: %w", k, err)
		}
	}

	return vec, nil
}

// UnflattenAll unpacks a flat vector into per-momentum (X, Y) pairs.
func (p *Product) UnflattenAll(vec []float64) (xs, ys []*zmat.Dense, err error) {
	if len(vec) != p.Dim() {
		return nil, nil, fmt.Errorf("UnflattenAll: len=%d want %d: %w", len(vec), p.Dim(), ErrBadVectorLength)
	}
	xs = make([]*zmat.Dense, len(p.frozen))
	ys = make([]*zmat.Dense, len(p.frozen))
	for k := range p.frozen {
		xs[k], ys[k], err = gauge.Unflatten(p.slice(vec, k), p.nBands, p.nWann)
		if err != nil {
			return nil, nil, fmt.Errorf("UnflattenAll: k=%d: %w", k, err)
		}
	}

	return xs, ys, nil
}

// Project maps a pulled-back Euclidean gradient onto the tangent space of
// the product manifold at the point x: per momentum, the X block is
// projected at X and the free block of Y is projected at Y's free block;
// frozen entries stay exactly zero. Fully frozen momenta contribute a zero
// tangent.
func (p *Product) Project(x, grad []float64) ([]float64, error) {
	if len(x) != p.Dim() || len(grad) != p.Dim() {
		return nil, fmt.Errorf("Project: len=%d/%d want %d: %w", len(x), len(grad), p.Dim(), ErrBadVectorLength)
	}
	out := make([]float64, p.Dim())
	for k, mask := range p.frozen {
		xk, yk, err := gauge.Unflatten(p.slice(x, k), p.nBands, p.nWann)
		if err != nil {
			return nil, fmt.Errorf("Project: k=%d: %w", k, err)
		}
		gx, gy, err := gauge.Unflatten(p.slice(grad, k), p.nBands, p.nWann)
		if err != nil {
			return nil, fmt.Errorf("Project: k=%d: %w", k, err)
		}
		tx, ty, err := p.projectPair(xk, yk, gx, gy, mask)
		if err != nil {
			return nil, fmt.Errorf("Project: k=%d: %w", k, err)
		}
		if err = gauge.Flatten(tx, ty, p.slice(out, k)); err != nil {
			return nil, fmt.Errorf("Project: k=%d: %w", k, err)
		}
	}

	return out, nil
}

// projectPair projects one momentum's (GX, GY) at the point (X, Y).
func (p *Product) projectPair(xk, yk, gx, gy *zmat.Dense, mask gauge.FrozenMask) (tx, ty *zmat.Dense, err error) {
	nFroz := mask.Count()

	// Fully frozen momentum: no degrees of freedom, zero tangent.
	if nFroz == p.nWann {
		tx, err = zmat.NewDense(p.nWann, p.nWann)
		if err != nil {
			return nil, nil, err
		}
		ty, err = zmat.NewDense(p.nBands, p.nWann)
		if err != nil {
			return nil, nil, err
		}

		return tx, ty, nil
	}

	tx, err = ProjectTangent(xk, gx)
	if err != nil {
		return nil, nil, err
	}

	ty, err = zmat.NewDense(p.nBands, p.nWann)
	if err != nil {
		return nil, nil, err
	}
	free := mask.FreeIndices()
	freeCols := p.freeCols(nFroz)
	yFree, err := yk.Induced(free, freeCols)
	if err != nil {
		return nil, nil, err
	}
	gFree, err := gy.Induced(free, freeCols)
	if err != nil {
		return nil, nil, err
	}
	tFree, err := ProjectTangent(yFree, gFree)
	if err != nil {
		return nil, nil, err
	}
	if err = ty.SetInduced(free, freeCols, tFree); err != nil {
		return nil, nil, err
	}

	return tx, ty, nil
}

// Retract moves from x along direction d with step length t, then maps the
// candidate back onto the product manifold with the polar (SVD) projection
// applied to each X block and each free Y block. The frozen block of every
// Y is re-pinned to the exact identity structure.
//
// Errors: ErrRetractFailed (wrapping the rank failure) when a candidate
// block is rank deficient — callers should reject the step and retry with
// a smaller one.
func (p *Product) Retract(x, d []float64, t float64) ([]float64, error) {
	if len(x) != p.Dim() || len(d) != p.Dim() {
		return nil, fmt.Errorf("Retract: len=%d/%d want %d: %w", len(x), len(d), p.Dim(), ErrBadVectorLength)
	}
	cand := make([]float64, p.Dim())
	for i := range cand {
		cand[i] = x[i] + t*d[i]
	}

	out := make([]float64, p.Dim())
	for k, mask := range p.frozen {
		xk, yk, err := gauge.Unflatten(p.slice(cand, k), p.nBands, p.nWann)
		if err != nil {
			return nil, fmt.Errorf("Retract: k=%d: %w", k, err)
		}
		rx, ry, err := p.retractPair(xk, yk, mask)
		if err != nil {
			return nil, fmt.Errorf("Retract: k=%d: %v: %w", k, err, ErrRetractFailed)
		}
		if err = gauge.Flatten(rx, ry, p.slice(out, k)); err != nil {
			return nil, fmt.Errorf("Retract: k=%d: %w", k, err)
		}
	}

	return out, nil
}

// retractPair renormalizes one momentum's candidate (X, Y).
func (p *Product) retractPair(xk, yk *zmat.Dense, mask gauge.FrozenMask) (rx, ry *zmat.Dense, err error) {
	rx, err = zmat.PolarProject(xk, retractTol)
	if err != nil {
		return nil, nil, err
	}

	nFroz := mask.Count()
	ry, err = zmat.NewDense(p.nBands, p.nWann)
	if err != nil {
		return nil, nil, err
	}
	// Frozen block: exact identity, independent of the candidate.
	for j, row := range mask.FrozenIndices() {
		_ = ry.Set(row, j, 1)
	}
	if nFroz == p.nWann {
		return rx, ry, nil
	}

	free := mask.FreeIndices()
	freeCols := p.freeCols(nFroz)
	yFree, err := yk.Induced(free, freeCols)
	if err != nil {
		return nil, nil, err
	}
	rFree, err := zmat.PolarProject(yFree, retractTol)
	if err != nil {
		return nil, nil, err
	}
	if err = ry.SetInduced(free, freeCols, rFree); err != nil {
		return nil, nil, err
	}

	return rx, ry, nil
}

// freeCols returns the column indices of the free block: nFroz..nWann−1.
func (p *Product) freeCols(nFroz int) []int {
	cols := make([]int, p.nWann-nFroz)
	for i := range cols {
		cols[i] = nFroz + i
	}

	return cols
}
