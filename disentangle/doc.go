// Package disentangle is the top-level driver: it minimizes a spread
// functional over per-momentum gauge matrices while keeping a designated
// set of frozen bands exactly fixed.
//
// What Minimize does, per run:
//
//	1️⃣ Validate the problem shape: gauge matrices, frozen masks, b-vector
//	   geometry, and the overlap tensor must agree before any work starts.
//	2️⃣ Factor each gauge matrix A[k] into the manifold pair (X[k], Y[k]) —
//	   or draw a seeded random feasible pair when restarting.
//	3️⃣ Run the limited-memory quasi-Newton driver over the flat parameter
//	   vector; every evaluation rebuilds A[k] = Y[k]·X[k], calls the spread
//	   functional, and pulls the Euclidean gradient back to (X, Y) space.
//	4️⃣ Reconstruct the optimized gauge and report spreads, iteration
//	   counts, and the final gradient norm.
//
// Frozen bands are handled algebraically: the frozen block of every Y[k]
// is pinned to the identity and the matching gradient entries are zeroed,
// so no step — not even a rejected line-search trial — can move them.
//
// Per-momentum work (factorization, reconstruction, pullback) runs on a
// bounded worker pool; the momenta are independent, so the loops
// parallelize without locking.
//
// Typical use:
//
//	res, err := disentangle.Minimize(functional, bv, overlaps, a0, masks,
//	    disentangle.WithGTol(1e-9),
//	    disentangle.WithLogger(logger),
//	)
//
// See the gauge package for the (X, Y) representation and the stiefel
// package for the manifold geometry.
package disentangle
