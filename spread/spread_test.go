package spread_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/wannier/spread"
	"github.com/katalvlaran/wannier/zmat"
)

func TestBVectors_Validate(t *testing.T) {
	good := spread.BVectors{
		Weights:   []float64{0.5, 0.5},
		Neighbors: [][]int{{1, 2}, {2, 0}, {0, 1}},
	}
	require.NoError(t, good.Validate(3))

	empty := spread.BVectors{Neighbors: [][]int{{}, {}, {}}}
	require.ErrorIs(t, empty.Validate(3), spread.ErrBadGeometry)

	short := spread.BVectors{Weights: []float64{1}, Neighbors: [][]int{{0}}}
	require.ErrorIs(t, short.Validate(3), spread.ErrBadGeometry)

	ragged := spread.BVectors{
		Weights:   []float64{0.5, 0.5},
		Neighbors: [][]int{{1, 2}, {2}, {0, 1}},
	}
	require.ErrorIs(t, ragged.Validate(3), spread.ErrBadGeometry)

	wild := spread.BVectors{
		Weights:   []float64{1},
		Neighbors: [][]int{{5}, {0}, {0}},
	}
	require.ErrorIs(t, wild.Validate(3), spread.ErrOutOfRange)
}

func TestOverlap_Construction(t *testing.T) {
	_, err := spread.NewOverlap(0, 1, 1)
	require.ErrorIs(t, err, spread.ErrBadOverlap)

	m, err := spread.NewOverlap(3, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 3, m.NBands())
	require.Equal(t, 2, m.NBvecs())
	require.Equal(t, 4, m.NKpts())

	blk, err := m.Block(3, 1)
	require.NoError(t, err)
	require.Equal(t, 3, blk.Rows())

	_, err = m.Block(4, 0)
	require.ErrorIs(t, err, spread.ErrOutOfRange)
	_, err = m.Block(0, 2)
	require.ErrorIs(t, err, spread.ErrOutOfRange)
}

func TestOverlap_SetBlock(t *testing.T) {
	m, err := spread.NewOverlap(2, 1, 2)
	require.NoError(t, err)

	good, err := zmat.NewIdentity(2)
	require.NoError(t, err)
	require.NoError(t, m.SetBlock(1, 0, good))

	got, err := m.Block(1, 0)
	require.NoError(t, err)
	require.Same(t, good, got)

	wrong, err := zmat.NewDense(3, 2)
	require.NoError(t, err)
	require.ErrorIs(t, m.SetBlock(0, 0, wrong), spread.ErrBadOverlap)
	require.ErrorIs(t, m.SetBlock(2, 0, good), spread.ErrOutOfRange)
	require.ErrorIs(t, m.SetBlock(0, 0, nil), spread.ErrBadOverlap)
}
