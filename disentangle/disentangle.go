// Package disentangle: the Minimize entry point.

package disentangle

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/wannier/gauge"
	"github.com/katalvlaran/wannier/lbfgs"
	"github.com/katalvlaran/wannier/spread"
	"github.com/katalvlaran/wannier/stiefel"
	"github.com/katalvlaran/wannier/zmat"
)

// problem bundles the validated, immutable inputs of one run.
type problem struct {
	functional spread.Functional
	bv         spread.BVectors
	overlaps   *spread.Overlap
	frozen     []gauge.FrozenMask
	manifold   *stiefel.Product
	nBands     int
	nWann      int
	nKpts      int
	opts       Options
}

// Minimize optimizes the gauge matrices a0 against the spread functional,
// honoring the per-momentum frozen masks. It returns the optimized gauge
// together with run diagnostics; non-convergence within the budgets is
// reported through Result.Converged, not as an error.
//
// Errors: ErrNilFunctional, ErrNoGauge, ErrShapeMismatch, ErrBadOption,
// ErrBadGradient, plus wrapped failures from the numerical kernels.
func Minimize(functional spread.Functional, bv spread.BVectors, overlaps *spread.Overlap,
	a0 []*zmat.Dense, frozen []gauge.FrozenMask, options ...Option) (*Result, error) {
	opts := DefaultOptions()
	for _, apply := range options {
		apply(&opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	p, err := newProblem(functional, bv, overlaps, a0, frozen, opts)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	log.Info("gauge optimization starting",
		zap.Int("kpoints", p.nKpts),
		zap.Int("bands", p.nBands),
		zap.Int("wannier", p.nWann),
		zap.Bool("random_init", opts.RandomInit),
		zap.Int("workers", opts.Workers),
	)

	// 2) Initial point on the manifold.
	xs, ys, err := p.initialize(a0)
	if err != nil {
		return nil, err
	}
	x0, err := p.manifold.FlattenAll(xs, ys)
	if err != nil {
		return nil, err
	}

	// 3) Quasi-Newton run over the flat vector.
	var initialOmega float64
	firstEval := true
	objective := func(v []float64) (float64, []float64, error) {
		omega, grad, oerr := p.evaluate(v)
		if oerr != nil {
			return 0, nil, oerr
		}
		if firstEval {
			initialOmega, firstEval = omega, false
		}
		log.Debug("spread evaluated", zap.Float64("omega", omega))

		return omega, grad, nil
	}

	driverOpts := lbfgs.DefaultOptions()
	driverOpts.FTol = opts.FTol
	driverOpts.GTol = opts.GTol
	driverOpts.MaxIterations = opts.MaxIterations
	driverOpts.History = opts.History

	run, err := lbfgs.Minimize(objective, p.manifold, x0, driverOpts)
	if err != nil {
		return nil, fmt.Errorf("disentangle: %w", err)
	}

	// 4) Reconstruct A[k] from the final point.
	gaugeOut, err := p.reconstruct(run.X)
	if err != nil {
		return nil, err
	}

	log.Info("gauge optimization finished",
		zap.Float64("initial_spread", initialOmega),
		zap.Float64("final_spread", run.F),
		zap.Float64("grad_norm", run.GradNorm),
		zap.Int("iterations", run.Iterations),
		zap.Int("evaluations", run.FuncEvals),
		zap.Bool("converged", run.Converged),
		zap.Stringer("status", run.Status),
	)

	return &Result{
		Gauge:         gaugeOut,
		InitialSpread: initialOmega,
		FinalSpread:   run.F,
		Iterations:    run.Iterations,
		FuncEvals:     run.FuncEvals,
		GradNorm:      run.GradNorm,
		Converged:     run.Converged,
	}, nil
}

// newProblem validates every input against every other before any numerical
// work starts.
func newProblem(functional spread.Functional, bv spread.BVectors, overlaps *spread.Overlap,
	a0 []*zmat.Dense, frozen []gauge.FrozenMask, opts Options) (*problem, error) {
	if functional == nil {
		return nil, ErrNilFunctional
	}
	if len(a0) == 0 {
		return nil, ErrNoGauge
	}
	if a0[0] == nil {
		return nil, fmt.Errorf("disentangle: a[0] is nil: %w", ErrNoGauge)
	}

	nKpts := len(a0)
	nBands, nWann := a0[0].Shape()
	for k, a := range a0 {
		if a == nil || a.Rows() != nBands || a.Cols() != nWann {
			return nil, fmt.Errorf("disentangle: a[%d] shape: %w", k, ErrShapeMismatch)
		}
	}
	if len(frozen) != nKpts {
		return nil, fmt.Errorf("disentangle: %d masks for %d kpts: %w", len(frozen), nKpts, ErrShapeMismatch)
	}
	if err := bv.Validate(nKpts); err != nil {
		return nil, fmt.Errorf("disentangle: %w", err)
	}
	if overlaps == nil || overlaps.NKpts() != nKpts || overlaps.NBands() != nBands ||
		overlaps.NBvecs() != len(bv.Weights) {
		return nil, fmt.Errorf("disentangle: overlap tensor: %w", ErrShapeMismatch)
	}

	manifold, err := stiefel.NewProduct(nBands, nWann, frozen)
	if err != nil {
		return nil, fmt.Errorf("disentangle: %w", err)
	}

	return &problem{
		functional: functional,
		bv:         bv,
		overlaps:   overlaps,
		frozen:     frozen,
		manifold:   manifold,
		nBands:     nBands,
		nWann:      nWann,
		nKpts:      nKpts,
		opts:       opts,
	}, nil
}

// forEachK runs fn over every momentum on a bounded worker pool.
func (p *problem) forEachK(fn func(k int) error) error {
	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for k := 0; k < p.nKpts; k++ {
		k := k
		g.Go(func() error { return fn(k) })
	}

	return g.Wait()
}

// initialize produces the starting (X, Y) pairs: factorizations of the
// supplied gauge, or seeded random feasible pairs when restarting.
func (p *problem) initialize(a0 []*zmat.Dense) (xs, ys []*zmat.Dense, err error) {
	xs = make([]*zmat.Dense, p.nKpts)
	ys = make([]*zmat.Dense, p.nKpts)

	if p.opts.RandomInit {
		// One derived rng per momentum keeps the draw deterministic no
		// matter how the pool schedules the work.
		err = p.forEachK(func(k int) error {
			rng := rand.New(rand.NewSource(p.opts.Seed + int64(k)))
			x, y, rerr := p.randomPair(k, rng)
			if rerr != nil {
				return fmt.Errorf("disentangle: random init k=%d: %w", k, rerr)
			}
			xs[k], ys[k] = x, y

			return nil
		})
	} else {
		err = p.forEachK(func(k int) error {
			x, y, cerr := gauge.ToXY(a0[k], p.frozen[k])
			if cerr != nil {
				return fmt.Errorf("disentangle: factor k=%d: %w", k, cerr)
			}
			xs[k], ys[k] = x, y

			return nil
		})
	}
	if err != nil {
		return nil, nil, err
	}

	return xs, ys, nil
}

// randomPair draws a feasible (X, Y) for momentum k: Haar-like unitary X,
// Y with the exact frozen identity block and a random semi-unitary free
// block over the free rows.
func (p *problem) randomPair(k int, rng *rand.Rand) (x, y *zmat.Dense, err error) {
	x, err = zmat.RandomUnitary(p.nWann, rng)
	if err != nil {
		return nil, nil, err
	}

	mask := p.frozen[k]
	nFroz := mask.Count()
	y, err = zmat.NewDense(p.nBands, p.nWann)
	if err != nil {
		return nil, nil, err
	}
	for j, row := range mask.FrozenIndices() {
		_ = y.Set(row, j, 1)
	}
	if nFroz == p.nWann {
		return x, y, nil
	}

	free := mask.FreeIndices()
	block, err := zmat.RandomSemiUnitary(len(free), p.nWann-nFroz, rng)
	if err != nil {
		return nil, nil, err
	}
	cols := make([]int, p.nWann-nFroz)
	for i := range cols {
		cols[i] = nFroz + i
	}
	if err = y.SetInduced(free, cols, block); err != nil {
		return nil, nil, err
	}

	return x, y, nil
}

// evaluate is the flat-vector objective: unpack (X, Y), rebuild the gauge,
// call the spread functional, and pull its gradient back to (X, Y) space.
func (p *problem) evaluate(v []float64) (float64, []float64, error) {
	xs, ys, err := p.manifold.UnflattenAll(v)
	if err != nil {
		return 0, nil, fmt.Errorf("disentangle: %w", err)
	}

	a := make([]*zmat.Dense, p.nKpts)
	if err = p.forEachK(func(k int) error {
		ak, ferr := gauge.FromXY(xs[k], ys[k])
		if ferr != nil {
			return fmt.Errorf("disentangle: rebuild k=%d: %w", k, ferr)
		}
		a[k] = ak

		return nil
	}); err != nil {
		return 0, nil, err
	}

	omega, grad, err := p.functional.Evaluate(p.bv, p.overlaps, a)
	if err != nil {
		return 0, nil, fmt.Errorf("disentangle: spread functional: %w", err)
	}
	if len(grad) != p.nKpts {
		return 0, nil, fmt.Errorf("disentangle: %d gradients for %d kpts: %w", len(grad), p.nKpts, ErrBadGradient)
	}

	gxs := make([]*zmat.Dense, p.nKpts)
	gys := make([]*zmat.Dense, p.nKpts)
	if err = p.forEachK(func(k int) error {
		if grad[k] == nil || grad[k].Rows() != p.nBands || grad[k].Cols() != p.nWann {
			return fmt.Errorf("disentangle: gradient k=%d: %w", k, ErrBadGradient)
		}
		gx, gy, perr := gauge.Pullback(grad[k], xs[k], ys[k], p.frozen[k])
		if perr != nil {
			return fmt.Errorf("disentangle: pullback k=%d: %w", k, perr)
		}
		gxs[k], gys[k] = gx, gy

		return nil
	}); err != nil {
		return 0, nil, err
	}

	flat, err := p.manifold.FlattenAll(gxs, gys)
	if err != nil {
		return 0, nil, fmt.Errorf("disentangle: %w", err)
	}

	return omega, flat, nil
}

// reconstruct rebuilds the per-momentum gauge matrices from the final flat
// point.
func (p *problem) reconstruct(v []float64) ([]*zmat.Dense, error) {
	xs, ys, err := p.manifold.UnflattenAll(v)
	if err != nil {
		return nil, fmt.Errorf("disentangle: %w", err)
	}
	out := make([]*zmat.Dense, p.nKpts)
	if err = p.forEachK(func(k int) error {
		ak, ferr := gauge.FromXY(xs[k], ys[k])
		if ferr != nil {
			return fmt.Errorf("disentangle: rebuild k=%d: %w", k, ferr)
		}
		out[k] = ak

		return nil
	}); err != nil {
		return nil, err
	}

	return out, nil
}
