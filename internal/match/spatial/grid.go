// Package spatial provides a uniform grid for broad-phase neighbour queries
// on the pitch.
//
// The grid stores integer player indices (not pointers) in preallocated
// cells so rebuilding it every tick does not allocate.
package spatial

import "math"

// Grid buckets entities into fixed-size square cells covering a rectangle
// whose lower-left corner is (minX, minY).
//
// The best cell size is the largest query radius used against it.
// Cells are stored row-major: cells[row*cols+col].
type Grid struct {
	minX, minY  float64
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]int
	count       int
}

// NewGrid creates a grid over [minX, minX+width] × [minY, minY+height].
// maxEntities is used to preallocate cell capacity.
func NewGrid(minX, minY, width, height, cellSize float64, maxEntities int) *Grid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]int, cols*rows)
	perCell := maxEntities / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]int, 0, perCell)
	}

	return &Grid{
		minX:        minX,
		minY:        minY,
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
	}
}

// Clear empties every cell, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert adds entity id at (x, y). Positions outside the grid land in the
// nearest edge cell.
func (g *Grid) Insert(id int, x, y float64) {
	col, row := g.cell(x, y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], id)
	g.count++
}

// Len is the number of inserted entities.
func (g *Grid) Len() int { return g.count }

// QueryRadius appends to dst every id whose cell intersects the square
// bounding the circle at (cx, cy). Callers must still check the exact
// distance. dst is returned so callers can reuse their own buffer.
func (g *Grid) QueryRadius(dst []int, cx, cy, radius float64) []int {
	minCol, minRow := g.cell(cx-radius, cy-radius)
	maxCol, maxRow := g.cell(cx+radius, cy+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			dst = append(dst, g.cells[row*g.cols+col]...)
		}
	}
	return dst
}

// Dimensions returns the grid dimensions.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}

func (g *Grid) cell(x, y float64) (col, row int) {
	col = int(math.Floor((x - g.minX) * g.invCellSize))
	row = int(math.Floor((y - g.minY) * g.invCellSize))
	col = min(max(col, 0), g.cols-1)
	row = min(max(row, 0), g.rows-1)
	return col, row
}
