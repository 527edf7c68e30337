// Package lbfgs implements a limited-memory quasi-Newton driver on a
// caller-supplied manifold.
//
// Each outer iteration:
//
//  1. checks the gradient-norm stop,
//  2. builds a search direction with the classical two-loop recursion over
//     the retained (s, y) pairs (γ-scaled initial Hessian),
//  3. runs a non-monotone backtracking line search: a trial step is
//     retracted onto the manifold, evaluated, and accepted when it
//     satisfies sufficient decrease against the largest objective value in
//     a short trailing window; the curvature condition is then checked and,
//     while the evaluation budget lasts, a violating step is shrunk,
//  4. updates the history with the accepted (s, y) pair unless its
//     curvature product is too small to keep the approximation positive
//     definite.
//
// Tolerating local increases across the window (step 3) follows the
// observation that strictly monotone searches stall on retraction-induced
// kinks; the window of one recovers the strict behavior.

package lbfgs

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// pair is one curvature pair of the limited memory.
type pair struct {
	s, y []float64
	rho  float64 // 1 / sᵀy
}

// state carries the mutable loop variables of one run, in the spirit of
// keeping the exported Minimize signature small.
type state struct {
	obj      Objective
	man      Manifold
	opts     Options
	x        []float64
	f        float64
	g        []float64 // tangent gradient at x
	history  []pair
	window   []float64 // trailing objective values, non-monotone reference
	funcEval int
}

// Minimize runs the driver from x0. The starting point must already lie on
// the manifold (callers retract it beforehand if unsure).
//
// Returns a Result for every completed run — including non-converged ones —
// and an error only for invalid configuration or a failing objective.
func Minimize(obj Objective, man Manifold, x0 []float64, opts Options) (*Result, error) {
	if obj == nil {
		return nil, ErrNilObjective
	}
	if man == nil {
		return nil, ErrNilManifold
	}
	if len(x0) == 0 {
		return nil, ErrEmptyPoint
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	st := &state{obj: obj, man: man, opts: opts}
	st.x = append([]float64(nil), x0...)

	var err error
	if st.f, st.g, err = st.evaluate(st.x); err != nil {
		return nil, err
	}
	st.window = append(st.window, st.f)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		gnorm := floats.Norm(st.g, 2)
		if gnorm <= opts.GTol {
			return st.result(iter, StatusGradTol, true), nil
		}

		d := st.direction()
		// The two-loop output must be a descent direction; when numerical
		// noise flips the sign, fall back to steepest descent.
		if floats.Dot(d, st.g) >= 0 {
			st.history = st.history[:0]
			for i := range d {
				d[i] = -st.g[i]
			}
		}

		step0 := 1.0
		if iter == 0 {
			// First step: unit-normalized, as there is no curvature
			// information to calibrate the scale yet.
			if dn := floats.Norm(d, 2); dn > 1 {
				step0 = 1 / dn
			}
		}

		xNew, fNew, gNew, ok, evalErr := st.lineSearch(d, step0)
		if evalErr != nil {
			return nil, evalErr
		}
		if !ok {
			if len(st.history) > 0 {
				// Retry the whole iteration with a reset memory.
				st.history = st.history[:0]
				continue
			}

			return st.result(iter, StatusLineSearchFailed, false), nil
		}

		st.pushPair(xNew, gNew)

		fPrev := st.f
		st.x, st.f, st.g = xNew, fNew, gNew
		st.pushWindow(fNew)

		if abs(fPrev-fNew) <= opts.FTol*maxAbs1(fPrev) {
			return st.result(iter+1, StatusFTol, true), nil
		}
	}

	return st.result(opts.MaxIterations, StatusMaxIterations, false), nil
}

// evaluate computes f and the projected (tangent) gradient at x.
func (st *state) evaluate(x []float64) (float64, []float64, error) {
	f, g, err := st.obj(x)
	if err != nil {
		return 0, nil, fmt.Errorf("lbfgs: objective: %w", err)
	}
	st.funcEval++
	tg, err := st.man.Project(x, g)
	if err != nil {
		return 0, nil, fmt.Errorf("lbfgs: project: %w", err)
	}

	return f, tg, nil
}

// direction applies the two-loop recursion: d = −H·g with H built from the
// retained pairs and the γ = sᵀy/yᵀy initial scaling.
func (st *state) direction() []float64 {
	q := append([]float64(nil), st.g...)
	n := len(st.history)
	alpha := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		p := st.history[i]
		alpha[i] = p.rho * floats.Dot(p.s, q)
		floats.AddScaled(q, -alpha[i], p.y)
	}
	if n > 0 {
		last := st.history[n-1]
		gamma := 1 / (last.rho * floats.Dot(last.y, last.y))
		floats.Scale(gamma, q)
	}
	for i := 0; i < n; i++ {
		p := st.history[i]
		beta := p.rho * floats.Dot(p.y, q)
		floats.AddScaled(q, alpha[i]-beta, p.s)
	}
	floats.Scale(-1, q)

	return q
}

// lineSearch backtracks along d from the current point.
//
// Acceptance: f(retract(x, d, t)) ≤ fRef + c1·t·gᵀd, where fRef is the
// largest objective value in the trailing window. After sufficient
// decrease holds, the curvature condition |g_newᵀd| ≤ c2·|gᵀd| is checked;
// while evaluations remain, a violating step keeps shrinking. A failed
// retraction (rank-deficient candidate) simply rejects the trial step.
//
// Returns ok=false when the evaluation budget is exhausted with no
// accepted step; evaluation errors from the objective are returned as-is.
func (st *state) lineSearch(d []float64, step0 float64) (x []float64, f float64, g []float64, ok bool, err error) {
	gd := floats.Dot(st.g, d)
	fRef := st.f
	for _, w := range st.window {
		if w > fRef {
			fRef = w
		}
	}

	var (
		bestX []float64
		bestF float64
		bestG []float64
		have  bool
	)
	t := step0
	for eval := 0; eval < st.opts.MaxLineEvals; eval++ {
		cand, rerr := st.man.Retract(st.x, d, t)
		if rerr != nil {
			// Candidate left the feasible region; shrink and retry.
			t *= backtrackFactor
			continue
		}
		fC, gC, eerr := st.evaluate(cand)
		if eerr != nil {
			return nil, 0, nil, false, eerr
		}
		if fC <= fRef+sufficientDecrease*t*gd {
			if !have {
				bestX, bestF, bestG, have = cand, fC, gC, true
			} else if fC < bestF {
				bestX, bestF, bestG = cand, fC, gC
			}
			// Sufficient decrease holds; accept unless curvature is badly
			// violated and budget remains to improve it.
			gdNew := floats.Dot(gC, d)
			if abs(gdNew) <= curvatureBound*abs(gd) {
				return cand, fC, gC, true, nil
			}
		}
		t *= backtrackFactor
	}
	if have {
		// Sufficient decrease was met at least once; use the best such point.
		return bestX, bestF, bestG, true, nil
	}

	return nil, 0, nil, false, nil
}

// pushPair appends the (s, y) pair for the accepted step, dropping the
// oldest pair beyond the history cap and skipping pairs whose curvature
// product cannot keep the approximation positive definite.
func (st *state) pushPair(xNew, gNew []float64) {
	s := make([]float64, len(xNew))
	floats.SubTo(s, xNew, st.x)
	y := make([]float64, len(gNew))
	floats.SubTo(y, gNew, st.g)

	sy := floats.Dot(s, y)
	if sy <= pairSkipTol*floats.Norm(s, 2)*floats.Norm(y, 2) {
		return // curvature too weak; keep the current memory
	}
	st.history = append(st.history, pair{s: s, y: y, rho: 1 / sy})
	if len(st.history) > st.opts.History {
		st.history = st.history[1:]
	}
}

// pushWindow appends f to the non-monotone reference window.
func (st *state) pushWindow(f float64) {
	st.window = append(st.window, f)
	if len(st.window) > st.opts.NonMonotoneWindow {
		st.window = st.window[1:]
	}
}

// result snapshots the current iterate.
func (st *state) result(iters int, status Status, converged bool) *Result {
	return &Result{
		X:          append([]float64(nil), st.x...),
		F:          st.f,
		GradNorm:   floats.Norm(st.g, 2),
		Iterations: iters,
		FuncEvals:  st.funcEval,
		Converged:  converged,
		Status:     status,
	}
}

// abs avoids importing math for a single call site.
func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

// maxAbs1 returns max(1, |v|) for the relative objective test.
func maxAbs1(v float64) float64 {
	if v < 0 {
		v = -v
	}
	if v < 1 {
		return 1
	}

	return v
}
