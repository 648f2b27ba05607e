package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePackTopology(t *testing.T) {
	pack, err := GeneratePack(DefaultRows, DefaultCols, NewRand(1))
	require.NoError(t, err)
	require.Equal(t, 96, pack.Len())

	seen := make(map[string]bool, pack.Len())
	for i, c := range pack.Cells {
		assert.Equal(t, i/12, c.Row, "row of index %d", i)
		assert.Equal(t, i%12, c.Col, "col of index %d", i)
		assert.Equal(t, i, pack.Index(c.Row, c.Col))
		row, col := pack.Position(i)
		assert.Equal(t, c.Row, row)
		assert.Equal(t, c.Col, col)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
	assert.Equal(t, "CELL-001", pack.Cells[0].ID)
	assert.Equal(t, "CELL-096", pack.Cells[95].ID)
}

func TestGeneratePackWidensIDsForLargePacks(t *testing.T) {
	pack, err := GeneratePack(40, 30, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, "CELL-0001", pack.Cells[0].ID)
	assert.Equal(t, "CELL-1200", pack.Cells[1199].ID)
}

func TestGeneratePackRejectsNonPositiveDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 12}, {8, 0}, {-1, 12}, {8, -3}} {
		pack, err := GeneratePack(dims[0], dims[1], NewRand(1))
		require.Error(t, err, "dims %v", dims)
		assert.Nil(t, pack)
		assert.True(t, errors.Is(err, ErrInvalidDimensions))
	}
}

func TestGeneratePackIsDeterministicForSeed(t *testing.T) {
	a, err := GeneratePack(DefaultRows, DefaultCols, NewRand(99))
	require.NoError(t, err)
	b, err := GeneratePack(DefaultRows, DefaultCols, NewRand(99))
	require.NoError(t, err)
	for i := range a.Cells {
		assert.Equal(t, *a.Cells[i], *b.Cells[i])
	}
}

func TestPackCellOutOfRange(t *testing.T) {
	pack := steadyPack(t, 2, 2)
	assert.Nil(t, pack.Cell(-1))
	assert.Nil(t, pack.Cell(4))
	assert.NotNil(t, pack.Cell(3))
}

func TestAverageVoltage(t *testing.T) {
	pack := steadyPack(t, 2, 2)
	pack.Cells[0].Voltage = 4.1
	assert.InDelta(t, 3.8, pack.AverageVoltage(), 1e-9)
	assert.Equal(t, 0.0, (&Pack{}).AverageVoltage())
}
