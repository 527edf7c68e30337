// Package stiefel provides the manifold plumbing for the gauge optimizer:
// orthogonal projection of Euclidean gradients onto the tangent space of a
// Stiefel manifold, the polar (SVD-based) retraction back onto the
// manifold, and the Product type that lays per-momentum (X, Y) factors out
// in one flat parameter vector.
//
// The optimization variable is a point on a product of manifolds — one
// unitary factor X and one block-constrained semi-unitary factor Y per
// momentum. Only the free block of Y (non-frozen rows × non-frozen
// columns) is a genuine Stiefel factor; the frozen block is pinned to the
// identity and re-pinned on every retraction, so frozen bands are fixed
// algebraically rather than penalized.
//
// The quasi-Newton driver in package lbfgs sees only flat []float64
// vectors and the two operations defined here: Project and Retract. This
// isolates the Stiefel geometry from the optimizer's control flow.
package stiefel
