// Package disentangle: configuration and result types of the top-level
// gauge optimizer.

package disentangle

import (
	"errors"
	"runtime"

	"go.uber.org/zap"

	"github.com/katalvlaran/wannier/zmat"
)

// Sentinel errors returned by Minimize before any optimization work begins.
var (
	// ErrNilFunctional indicates a nil spread functional.
	ErrNilFunctional = errors.New("disentangle: spread functional is nil")

	// ErrNoGauge indicates an empty or nil initial gauge list.
	ErrNoGauge = errors.New("disentangle: no initial gauge matrices")

	// ErrShapeMismatch indicates gauge matrices, frozen masks, b-vector
	// geometry, or the overlap tensor that disagree on the problem shape.
	ErrShapeMismatch = errors.New("disentangle: inconsistent problem shape")

	// ErrBadOption indicates a non-positive tolerance, iteration cap, or
	// history size, or a negative worker count.
	ErrBadOption = errors.New("disentangle: option value out of range")

	// ErrBadGradient indicates a functional whose gradient list does not
	// match the gauge shape it was evaluated at.
	ErrBadGradient = errors.New("disentangle: gradient shape mismatch")
)

// Defaults for Options; see DefaultOptions.
const (
	// DefaultFTol is the relative objective-change tolerance.
	DefaultFTol = 1e-10

	// DefaultGTol is the tangent-gradient norm tolerance.
	DefaultGTol = 1e-8

	// DefaultMaxIterations caps the quasi-Newton outer iterations.
	DefaultMaxIterations = 300

	// DefaultHistory is the limited-memory size of the quasi-Newton driver.
	DefaultHistory = 10
)

// Options configures one optimization run. Construct with DefaultOptions
// and adjust through the With* functional options.
type Options struct {
	// FTol stops the run when the relative objective change falls below it.
	FTol float64

	// GTol stops the run when the tangent gradient norm falls below it.
	GTol float64

	// MaxIterations caps outer iterations; the best iterate is returned
	// when the cap is reached.
	MaxIterations int

	// History is the number of curvature pairs the driver retains.
	History int

	// RandomInit replaces the supplied gauge with a seeded random feasible
	// point; useful for restarts and for probing local minima.
	RandomInit bool

	// Seed drives the random initialization; ignored unless RandomInit.
	Seed int64

	// Workers bounds the per-momentum parallelism of gauge conversion and
	// gradient pullback. Defaults to the number of CPUs.
	Workers int

	// Logger receives structured progress diagnostics; defaults to a no-op.
	Logger *zap.Logger
}

// Option mutates Options inside Minimize.
type Option func(*Options)

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		FTol:          DefaultFTol,
		GTol:          DefaultGTol,
		MaxIterations: DefaultMaxIterations,
		History:       DefaultHistory,
		Workers:       runtime.GOMAXPROCS(0),
		Logger:        zap.NewNop(),
	}
}

// WithFTol sets the relative objective-change tolerance.
func WithFTol(tol float64) Option { return func(o *Options) { o.FTol = tol } }

// WithGTol sets the tangent-gradient norm tolerance.
func WithGTol(tol float64) Option { return func(o *Options) { o.GTol = tol } }

// WithMaxIterations caps the outer iterations.
func WithMaxIterations(n int) Option { return func(o *Options) { o.MaxIterations = n } }

// WithHistorySize sets the limited-memory size.
func WithHistorySize(n int) Option { return func(o *Options) { o.History = n } }

// WithRandomInit starts from a seeded random feasible gauge instead of the
// supplied one.
func WithRandomInit(seed int64) Option {
	return func(o *Options) { o.RandomInit, o.Seed = true, seed }
}

// WithWorkers bounds the per-momentum parallelism.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithLogger installs a structured logger for progress diagnostics.
func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// validate rejects non-positive knobs before any work begins and
// normalizes the zero logger. DefaultOptions supplies positive values for
// everything, so a zero here can only be an explicit caller request.
func (o *Options) validate() error {
	if o.FTol <= 0 || o.GTol <= 0 || o.MaxIterations <= 0 || o.History <= 0 || o.Workers < 0 {
		return ErrBadOption
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	return nil
}

// Result is the outcome of one optimization run.
type Result struct {
	// Gauge holds the optimized per-momentum gauge matrices A[k],
	// orthonormal with the frozen subspace embedded exactly.
	Gauge []*zmat.Dense

	// InitialSpread is Ω at the starting point (after orthonormalization
	// or random initialization).
	InitialSpread float64

	// FinalSpread is Ω at the returned gauge.
	FinalSpread float64

	// Iterations is the number of completed quasi-Newton iterations.
	Iterations int

	// FuncEvals counts spread-functional evaluations.
	FuncEvals int

	// GradNorm is the final tangent gradient norm.
	GradNorm float64

	// Converged reports whether a tolerance (not a budget) stopped the run.
	Converged bool
}
