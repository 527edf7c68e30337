// Package gauge implements the frozen-aware geometric core of the
// Wannierization optimizer: semi-unitary orthonormalization that exactly
// preserves a designated frozen band subspace, conversions between the
// three equivalent encodings of a per-momentum gauge, and the pullback of
// Euclidean spread gradients into the (X, Y) parameterization.
//
// Representations:
//
//   - Gauge matrix A: n_bands × n_wann, columns span the subspace selected
//     for Wannierization at one momentum.
//   - Pair (X, Y): X is n_wann × n_wann unitary, Y is n_bands × n_wann
//     semi-unitary with an exact block structure — frozen rows carry the
//     identity on the first n_froz columns and zeros elsewhere; non-frozen
//     rows are zero in the first n_froz columns. A = Y·X.
//   - Flat vector: the real/imaginary interleaving of X then Y, the
//     optimizer's working representation. Carries no invariants of its own.
//
// Every conversion re-verifies its postconditions and fails loudly; a
// violation signals a numerical or programming defect upstream, never a
// condition to paper over. The frozen block of Y is fixed algebraically,
// so frozen bands can never drift during optimization.
package gauge
