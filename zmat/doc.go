// SPDX-License-Identifier: MIT

// Package zmat provides dense complex (complex128) matrix kernels for the
// gauge-optimization core: products backed by gonum's complex BLAS,
// Hermitian eigendecomposition and singular value decomposition by Jacobi
// rotations, Löwdin (symmetric) orthonormalization, and the polar
// projection onto the Stiefel manifold of semi-unitary matrices.
//
// Design:
//
//   - One concrete type, Dense, wrapping cblas128.General. All heavy
//     products go through cblas128.Gemm; element access is bounds-checked
//     and returns sentinel errors rather than panicking.
//   - Spectral kernels (HermEigen, SVD) use Jacobi rotations with a
//     deterministic pivot policy: stable results for a fixed input, no
//     hidden randomness.
//   - Validators are the single source of truth for structural checks
//     (shape, Hermiticity, semi-unitarity) and report the observed defect
//     magnitude so callers can log actionable diagnostics.
//
// Sizes in this module are small (bands × Wannier functions, typically
// tens), so O(n³)–O(n⁴) Jacobi schemes are both adequate and simple to
// verify. Determinism is preferred over peak throughput.
package zmat
