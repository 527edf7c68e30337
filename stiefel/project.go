// Package stiefel: tangent-space projection.

package stiefel

import (
	"fmt"

	"github.com/katalvlaran/wannier/zmat"
)

// ProjectTangent orthogonally projects the Euclidean gradient g onto the
// tangent space of the Stiefel manifold at the point q (semi-unitary,
// n×p): T = g − q·sym(qᴴg) with sym(M) = (M + Mᴴ)/2.
//
// At the projected point qᴴT is skew-Hermitian, which is exactly the
// first-order feasibility condition qᴴq = I.
//
// Errors: ErrNilMatrix / ErrDimensionMismatch from the product kernels.
func ProjectTangent(q, g *zmat.Dense) (*zmat.Dense, error) {
	qg, err := zmat.AdjointMul(q, g) // qᴴg, p×p
	if err != nil {
		return nil, fmt.Errorf("ProjectTangent: %w", err)
	}
	qgH, err := zmat.Adjoint(qg)
	if err != nil {
		return nil, fmt.Errorf("ProjectTangent: %w", err)
	}
	sym, err := zmat.Add(qg, qgH)
	if err != nil {
		return nil, fmt.Errorf("ProjectTangent: %w", err)
	}
	sym, err = zmat.Scale(0.5, sym)
	if err != nil {
		return nil, fmt.Errorf("ProjectTangent: %w", err)
	}
	normal, err := zmat.Mul(q, sym) // q·sym(qᴴg)
	if err != nil {
		return nil, fmt.Errorf("ProjectTangent: %w", err)
	}
	t, err := zmat.Sub(g, normal)
	if err != nil {
		return nil, fmt.Errorf("ProjectTangent: %w", err)
	}

	return t, nil
}
