// Package lbfgs defines core types and configuration for the generic
// limited-memory quasi-Newton driver.
//
// The driver is deliberately ignorant of the gauge problem: it minimizes
// an Objective over points represented as flat []float64 vectors, staying
// on a feasible set described by a Manifold (Project + Retract). Euclidean
// inner products on the flat vectors serve as the metric; the caller's
// Project guarantees the gradients it sees are tangent.
//
// Errors (sentinel):
//
//	– ErrNilObjective     if no objective is supplied.
//	– ErrNilManifold      if no manifold is supplied.
//	– ErrBadOption        if a tolerance, cap, or history size is not positive.
//	– ErrEmptyPoint       if the starting point has length zero.
//
// Non-convergence is NOT an error: the driver returns its best iterate with
// Result.Converged == false and a Status explaining which budget ran out.
package lbfgs

import "errors"

// Sentinel errors returned before any optimization work begins.
var (
	// ErrNilObjective indicates a nil objective function.
	ErrNilObjective = errors.New("lbfgs: objective is nil")

	// ErrNilManifold indicates a nil manifold.
	ErrNilManifold = errors.New("lbfgs: manifold is nil")

	// ErrBadOption indicates a non-positive tolerance, iteration cap,
	// history size, or line-search budget.
	ErrBadOption = errors.New("lbfgs: option value out of range")

	// ErrEmptyPoint indicates a zero-length starting point.
	ErrEmptyPoint = errors.New("lbfgs: empty starting point")
)

// Objective evaluates the function value and its gradient at x. The
// returned gradient may be Euclidean; the driver projects it through the
// Manifold before use. Evaluation errors abort the run.
type Objective func(x []float64) (f float64, grad []float64, err error)

// Manifold is the feasible set the driver must respect.
//
// Project maps a gradient at the point x onto the tangent space; Retract
// moves from x along direction d with step length t and returns a feasible
// point. Retract may fail for overly long steps (e.g. a rank-deficient
// polar candidate); the line search treats that as a rejected step and
// backtracks.
type Manifold interface {
	Project(x, grad []float64) ([]float64, error)
	Retract(x, d []float64, t float64) ([]float64, error)
}

// Line-search constants: sufficient-decrease and curvature coefficients.
// Values follow the classical strong-Wolfe choices used by L-BFGS
// implementations.
const (
	// sufficientDecrease is the Armijo coefficient c1.
	sufficientDecrease = 1e-4

	// curvatureBound is the curvature coefficient c2.
	curvatureBound = 0.9

	// backtrackFactor halves the trial step on rejection.
	backtrackFactor = 0.5

	// pairSkipTol guards the BFGS update: pairs with
	// sᵀy ≤ pairSkipTol·‖s‖‖y‖ are skipped to keep the inverse Hessian
	// approximation positive definite.
	pairSkipTol = 1e-10
)

// Defaults for Options; see DefaultOptions.
const (
	// DefaultHistory is the number of curvature pairs retained.
	DefaultHistory = 10

	// DefaultMaxIterations caps the outer iterations.
	DefaultMaxIterations = 300

	// DefaultFTol is the relative objective-change tolerance.
	DefaultFTol = 1e-10

	// DefaultGTol is the tangent-gradient norm tolerance.
	DefaultGTol = 1e-8

	// DefaultMaxLineEvals caps objective evaluations per line search.
	DefaultMaxLineEvals = 25

	// DefaultNonMonotoneWindow is how many recent objective values feed
	// the non-monotone sufficient-decrease reference.
	DefaultNonMonotoneWindow = 4
)

// Options configures the driver. Every field must be positive; start from
// DefaultOptions and adjust. Non-positive values are rejected up front so a
// silently zeroed tolerance can never drive a run.
type Options struct {
	// History is the limited-memory size (number of (s, y) pairs).
	History int

	// MaxIterations caps outer iterations; the best iterate is returned
	// when the cap is reached.
	MaxIterations int

	// FTol stops the run when |f_{k+1} − f_k| ≤ FTol·max(1, |f_k|).
	FTol float64

	// GTol stops the run when the tangent gradient norm falls below it.
	GTol float64

	// MaxLineEvals caps objective evaluations inside one line search.
	MaxLineEvals int

	// NonMonotoneWindow sizes the reference window for the relaxed
	// sufficient-decrease test; 1 recovers the strictly monotone search.
	NonMonotoneWindow int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		History:           DefaultHistory,
		MaxIterations:     DefaultMaxIterations,
		FTol:              DefaultFTol,
		GTol:              DefaultGTol,
		MaxLineEvals:      DefaultMaxLineEvals,
		NonMonotoneWindow: DefaultNonMonotoneWindow,
	}
}

// validate rejects non-positive fields before any work begins.
func (o *Options) validate() error {
	if o.History <= 0 || o.MaxIterations <= 0 || o.FTol <= 0 || o.GTol <= 0 ||
		o.MaxLineEvals <= 0 || o.NonMonotoneWindow <= 0 {
		return ErrBadOption
	}

	return nil
}

// Status reports how a run terminated.
type Status int

const (
	// StatusGradTol: the tangent gradient norm fell below GTol.
	StatusGradTol Status = iota

	// StatusFTol: the relative objective change fell below FTol.
	StatusFTol

	// StatusMaxIterations: the iteration budget ran out.
	StatusMaxIterations

	// StatusLineSearchFailed: no acceptable step was found even along the
	// steepest-descent direction.
	StatusLineSearchFailed
)

// String implements fmt.Stringer for diagnostics.
func (s Status) String() string {
	switch s {
	case StatusGradTol:
		return "gradient tolerance reached"
	case StatusFTol:
		return "objective change tolerance reached"
	case StatusMaxIterations:
		return "maximum iterations reached"
	case StatusLineSearchFailed:
		return "line search failed"
	default:
		return "unknown status"
	}
}

// Result is the outcome of a run: the best iterate found, its value and
// tangent gradient norm, and bookkeeping for diagnostics.
type Result struct {
	// X is the final (best) point on the manifold.
	X []float64

	// F is the objective value at X.
	F float64

	// GradNorm is the tangent gradient norm at X.
	GradNorm float64

	// Iterations is the number of completed outer iterations.
	Iterations int

	// FuncEvals counts objective evaluations, line searches included.
	FuncEvals int

	// Converged reports whether a tolerance (not a budget) stopped the run.
	Converged bool

	// Status identifies the terminating condition.
	Status Status
}
