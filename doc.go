// Package wannier computes maximally-localized gauge transformations for
// Bloch-derived trial functions — the disentanglement step that turns a set
// of band subspaces, one per sampled crystal momentum, into well-localized
// Wannier functions.
//
// 🚀 What is wannier?
//
//	A pure-Go library for constrained gauge optimization:
//		• Complex dense kernels: Hermitian Jacobi eigen, one-sided Jacobi SVD,
//		  Löwdin orthonormalization (zmat)
//		• Frozen-aware semi-unitary orthonormalization with exact
//		  subspace-preservation guarantees (gauge)
//		• Three interconvertible gauge encodings: A ↔ (X, Y) ↔ flat vector
//		• Product-of-Stiefel-manifolds plumbing: tangent projection and
//		  polar retraction (stiefel)
//		• Limited-memory quasi-Newton driver with a non-monotone
//		  Armijo/curvature line search (lbfgs)
//		• The end-to-end optimizer over all momenta (disentangle)
//
// ✨ Why choose wannier?
//
//   - Explicit contracts – every representation boundary re-verifies its
//     invariants and fails loudly with the offending momentum index
//   - Frozen bands are algebraically fixed, never merely penalized
//   - Pure Go – gonum BLAS underneath, no cgo, no hidden deps
//   - Deterministic – seeded initialization, no global state
//
// Under the hood, everything is organized under six subpackages:
//
//	zmat/        — complex dense matrices + spectral kernels
//	gauge/       — orthonormalizer, representation converter, pullback
//	spread/      — spread-functional collaborator surface (interface only)
//	stiefel/     — manifold projection/retraction + flat-vector layout
//	lbfgs/       — generic limited-memory quasi-Newton driver
//	disentangle/ — the optimizer wiring it all together
//
// The spread functional itself (overlap-matrix localization measure and its
// Euclidean gradient) is supplied by the caller; this module never inspects
// its internals.
//
//	go get github.com/katalvlaran/wannier
package wannier
