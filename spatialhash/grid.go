package spatialhash

import (
	"math"

	"go.viam.com/collide/bv"
)

// MaxCells is the largest number of cells a GridHash may divide its region into.
const MaxCells = 1 << 22

// GridHash divides a bounded region of space into cubic cells and maps a box to every cell it overlaps.
// Boxes are clamped to the region; callers track geometry outside it separately.
type GridHash struct {
	limit    bv.AABB
	cellSize float64
	dims     [3]int
}

// NewGridHash returns a hash over limit with cells of the given side. The region may hold at most MaxCells
// cells.
func NewGridHash(limit bv.AABB, cellSize float64) (*GridHash, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, NewBadCellSizeError(cellSize)
	}
	ext := limit.Max.Sub(limit.Min)
	g := &GridHash{limit: limit, cellSize: cellSize}
	total := 1.0
	for i, e := range []float64{ext.X, ext.Y, ext.Z} {
		n := math.Max(1, math.Ceil(e/cellSize))
		total *= n
		if !(total <= MaxCells) {
			return nil, NewTooManyCellsError(limit, cellSize)
		}
		g.dims[i] = int(n)
	}
	return g, nil
}

// NumCells returns the number of cells in the region, a natural size for a dense table.
func (g *GridHash) NumCells() int { return g.dims[0] * g.dims[1] * g.dims[2] }

// Limit returns the hashed region.
func (g *GridHash) Limit() bv.AABB { return g.limit }

// Inside reports whether box lies entirely in the hashed region.
func (g *GridHash) Inside(box bv.AABB) bool {
	return g.limit.Contains(box.Min) && g.limit.Contains(box.Max)
}

// cellRange returns the first and last cell along one axis covered by [lo, hi], clamped to [0, dim).
func (g *GridHash) cellRange(lo, hi, origin float64, dim int) (int, int) {
	clamp := func(v float64) int {
		return int(math.Min(math.Max(math.Floor((v-origin)/g.cellSize), 0), float64(dim-1)))
	}
	return clamp(lo), clamp(hi)
}

// Hash returns the index of every cell box overlaps. Empty if box misses the region.
func (g *GridHash) Hash(box bv.AABB) []int {
	if !box.Overlap(g.limit, 0) {
		return nil
	}
	x0, x1 := g.cellRange(box.Min.X, box.Max.X, g.limit.Min.X, g.dims[0])
	y0, y1 := g.cellRange(box.Min.Y, box.Max.Y, g.limit.Min.Y, g.dims[1])
	z0, z1 := g.cellRange(box.Min.Z, box.Max.Z, g.limit.Min.Z, g.dims[2])
	cells := make([]int, 0, (x1-x0+1)*(y1-y0+1)*(z1-z0+1))
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				cells = append(cells, x+g.dims[0]*(y+g.dims[1]*z))
			}
		}
	}
	return cells
}
