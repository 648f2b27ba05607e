package core

// Grid describes the fixed row-major layout of a pack.
type Grid struct {
	Rows int
	Cols int
}

// Size returns the number of cells in the grid.
func (g Grid) Size() int { return g.Rows * g.Cols }

// Index returns the linear index of (row, col).
func (g Grid) Index(row, col int) int { return row*g.Cols + col }

// Position is the inverse of Index.
func (g Grid) Position(index int) (row, col int) {
	return index / g.Cols, index % g.Cols
}

// Contains reports whether (row, col) lies on the grid.
func (g Grid) Contains(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Neighbors returns the linear indices of the Moore neighbourhood of index
// in row-major order. Positions that fall off the grid are skipped, so
// corners yield 3 entries, edges 5 and interior cells 8. An index outside
// the grid yields nil.
func (g Grid) Neighbors(index int) []int {
	if index < 0 || index >= g.Size() {
		return nil
	}
	row, col := g.Position(index)
	out := make([]int, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if !g.Contains(r, c) {
				continue
			}
			out = append(out, g.Index(r, c))
		}
	}
	return out
}

// NeighborIndex caches Grid.Neighbors for every cell of a grid.
type NeighborIndex struct {
	grid  Grid
	lists [][]int
}

// NewNeighborIndex precomputes neighbour lists for g.
func NewNeighborIndex(g Grid) *NeighborIndex {
	lists := make([][]int, g.Size())
	for i := range lists {
		lists[i] = g.Neighbors(i)
	}
	return &NeighborIndex{grid: g, lists: lists}
}

// Neighbors returns the cached list for index. Callers must not modify it.
func (n *NeighborIndex) Neighbors(index int) []int {
	if index < 0 || index >= len(n.lists) {
		return nil
	}
	return n.lists[index]
}
