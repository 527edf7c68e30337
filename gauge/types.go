// Package gauge: sentinel errors, tolerances, and the FrozenMask type.

package gauge

import (
	"errors"
	"fmt"
)

// Tolerances of the geometric core. They are constants rather than options
// so every representation boundary enforces the same contract.
const (
	// OrthoTol bounds the invariant defects accepted from the
	// orthonormalizer (semi-unitarity, frozen-block unitarity,
	// cross-block orthogonality).
	OrthoTol = 1e-10

	// RankTol is the singular-value / eigenvalue threshold that separates
	// kept directions from numerical noise in the truncated SVD and in
	// Löwdin inverse square roots.
	RankTol = 1e-10

	// RoundTripTol bounds ‖Y·X − B‖ accepted when re-verifying the
	// A → (X, Y) conversion.
	RoundTripTol = 1e-8
)

// Sentinel errors returned by the gauge package.
var (
	// ErrNilMatrix indicates a nil matrix argument.
	ErrNilMatrix = errors.New("gauge: nil matrix")

	// ErrMaskLength indicates a frozen mask whose length differs from n_bands.
	ErrMaskLength = errors.New("gauge: frozen mask length does not match band count")

	// ErrFrozenCount indicates more frozen bands than Wannier functions at
	// some momentum; the frozen subspace cannot fit into the gauge.
	ErrFrozenCount = errors.New("gauge: frozen band count exceeds number of Wannier functions")

	// ErrShapeMismatch indicates matrices whose shapes disagree with each
	// other or with the mask.
	ErrShapeMismatch = errors.New("gauge: matrix shape mismatch")

	// ErrRankMismatch indicates that the truncated-SVD step of the
	// orthonormalizer found a number of significant singular values
	// different from n_wann − n_froz. Fatal numerical failure.
	ErrRankMismatch = errors.New("gauge: unexpected rank in frozen-complement SVD")

	// ErrInvariantViolated indicates a postcondition failure at a
	// representation boundary (semi-unitarity, block structure, or the
	// Y·X ≈ B round trip). Fatal internal-consistency error.
	ErrInvariantViolated = errors.New("gauge: representation invariant violated")

	// ErrBadVectorLength indicates a flat parameter vector whose length
	// does not match the (X, Y) shapes.
	ErrBadVectorLength = errors.New("gauge: flat vector length mismatch")
)

// FrozenMask marks, per band, whether the band must be exactly represented
// in the gauge's column space at one momentum. Read-only during
// optimization.
type FrozenMask []bool

// Count returns the number of frozen bands.
func (m FrozenMask) Count() int {
	n := 0
	for _, f := range m {
		if f {
			n++
		}
	}

	return n
}

// FrozenIndices returns the band indices marked frozen, ascending.
func (m FrozenMask) FrozenIndices() []int {
	idx := make([]int, 0, len(m))
	for i, f := range m {
		if f {
			idx = append(idx, i)
		}
	}

	return idx
}

// FreeIndices returns the band indices not marked frozen, ascending.
func (m FrozenMask) FreeIndices() []int {
	idx := make([]int, 0, len(m))
	for i, f := range m {
		if !f {
			idx = append(idx, i)
		}
	}

	return idx
}

// Validate checks the mask against the gauge shape: its length must equal
// nBands and it may not freeze more than nWann bands.
func (m FrozenMask) Validate(nBands, nWann int) error {
	if len(m) != nBands {
		return fmt.Errorf("mask length %d, bands %d: %w", len(m), nBands, ErrMaskLength)
	}
	if c := m.Count(); c > nWann {
		return fmt.Errorf("%d frozen > %d wannier: %w", c, nWann, ErrFrozenCount)
	}

	return nil
}
