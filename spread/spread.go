// Package spread declares the collaborator surface of the spread
// functional: the quadratic localization measure Ω and its Euclidean
// gradient, evaluated from momentum-space overlap matrices and the current
// gauge. The optimizer treats the functional as a black box — it never
// inspects how Ω is computed, only that the gradient matches the gauge
// shape. Implementations are supplied by the surrounding system.
package spread

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/wannier/zmat"
)

// Sentinel errors for overlap-container construction and access.
var (
	// ErrBadGeometry indicates inconsistent b-vector metadata (weight and
	// neighbor lists of different lengths, or empty geometry).
	ErrBadGeometry = errors.New("spread: inconsistent bvector geometry")

	// ErrBadOverlap indicates an overlap tensor whose dimensions do not
	// match the declared bands/bvectors/kpoints.
	ErrBadOverlap = errors.New("spread: overlap tensor shape mismatch")

	// ErrOutOfRange indicates a k-point or b-vector index outside the tensor.
	ErrOutOfRange = errors.New("spread: index out of range")
)

// BVectors carries the neighbor geometry needed to interpret the overlap
// tensor: for every momentum k, the indices of its neighbors k+b and the
// completeness weights w_b shared across momenta.
type BVectors struct {
	// Weights holds one completeness weight per b-vector shell member.
	Weights []float64

	// Neighbors[k][b] is the index of the momentum reached from k along
	// b-vector b. len(Neighbors[k]) == len(Weights) for every k.
	Neighbors [][]int
}

// Validate checks internal consistency against the momentum count.
func (bv BVectors) Validate(nKpts int) error {
	if len(bv.Weights) == 0 || len(bv.Neighbors) != nKpts {
		return fmt.Errorf("weights=%d neighbors=%d kpts=%d: %w",
			len(bv.Weights), len(bv.Neighbors), nKpts, ErrBadGeometry)
	}
	for k, row := range bv.Neighbors {
		if len(row) != len(bv.Weights) {
			return fmt.Errorf("k=%d has %d neighbors, want %d: %w", k, len(row), len(bv.Weights), ErrBadGeometry)
		}
		for _, kb := range row {
			if kb < 0 || kb >= nKpts {
				return fmt.Errorf("k=%d neighbor %d: %w", k, kb, ErrOutOfRange)
			}
		}
	}

	return nil
}

// Overlap is the read-only tensor of neighbor-momentum overlaps:
// n_bands × n_bands blocks indexed by (k, b). The optimizer shares it
// across momenta without copying; callers must not mutate it while an
// optimization is running.
type Overlap struct {
	nBands int
	blocks [][]*zmat.Dense // [k][b]
}

// NewOverlap allocates a zero tensor for the given dimensions.
func NewOverlap(nBands, nBvecs, nKpts int) (*Overlap, error) {
	if nBands <= 0 || nBvecs <= 0 || nKpts <= 0 {
		return nil, fmt.Errorf("NewOverlap(%d,%d,%d): %w", nBands, nBvecs, nKpts, ErrBadOverlap)
	}
	blocks := make([][]*zmat.Dense, nKpts)
	for k := range blocks {
		blocks[k] = make([]*zmat.Dense, nBvecs)
		for b := range blocks[k] {
			m, err := zmat.NewDense(nBands, nBands)
			if err != nil {
				return nil, fmt.Errorf("NewOverlap: %w", err)
			}
			blocks[k][b] = m
		}
	}

	return &Overlap{nBands: nBands, blocks: blocks}, nil
}

// NBands returns the band dimension of each block.
func (o *Overlap) NBands() int { return o.nBands }

// NBvecs returns the number of b-vectors per momentum.
func (o *Overlap) NBvecs() int {
	if len(o.blocks) == 0 {
		return 0
	}

	return len(o.blocks[0])
}

// NKpts returns the number of momenta.
func (o *Overlap) NKpts() int { return len(o.blocks) }

// Block returns the n_bands × n_bands overlap matrix M(k, b).
func (o *Overlap) Block(k, b int) (*zmat.Dense, error) {
	if k < 0 || k >= len(o.blocks) || b < 0 || b >= len(o.blocks[k]) {
		return nil, fmt.Errorf("Block(%d,%d): %w", k, b, ErrOutOfRange)
	}

	return o.blocks[k][b], nil
}

// SetBlock installs the overlap matrix for (k, b). The matrix is stored by
// reference; it must be n_bands × n_bands.
func (o *Overlap) SetBlock(k, b int, m *zmat.Dense) error {
	if k < 0 || k >= len(o.blocks) || b < 0 || b >= len(o.blocks[k]) {
		return fmt.Errorf("SetBlock(%d,%d): %w", k, b, ErrOutOfRange)
	}
	if m == nil || m.Rows() != o.nBands || m.Cols() != o.nBands {
		return fmt.Errorf("SetBlock(%d,%d): %w", k, b, ErrBadOverlap)
	}
	o.blocks[k][b] = m

	return nil
}

// Functional is the spread functional contract: given the b-vector
// geometry, the overlap tensor, and the per-momentum gauge matrices A[k],
// return the total localization functional Ω (non-negative) and its
// Euclidean gradient — one matrix per momentum, each with the shape of the
// matching A[k].
type Functional interface {
	Evaluate(bv BVectors, m *Overlap, a []*zmat.Dense) (omega float64, grad []*zmat.Dense, err error)
}
