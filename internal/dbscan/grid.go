package dbscan

// cell is an integer grid coordinate (floor(x/h), floor(y/h)).
type cell struct{ ix, iy int }

// grid buckets point indices by cell for bounded-radius neighbor search,
// mirroring DBSCAN2D::run's std::unordered_map<pair<int,int>, vector<size_t>>.
type grid struct {
	h      float32
	cells  map[cell][]int
}

func newGrid(h float32, n int) *grid {
	cap := n / 3
	if cap < 16 {
		cap = 16
	}
	return &grid{h: h, cells: make(map[cell][]int, cap)}
}

func cellOf(x, y, h float32) cell {
	return cell{ix: ifloor(x / h), iy: ifloor(y / h)}
}

func ifloor(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}

func (g *grid) insert(idx int, x, y float32) {
	c := cellOf(x, y, g.h)
	g.cells[c] = append(g.cells[c], idx)
}

// eachInRadius calls fn for every point index bucketed in cells within
// ±r of (x,y)'s cell, in cell-row-major order. fn returns false to stop
// early once a candidate cap has been reached.
func (g *grid) eachInRadius(x, y float32, r int, fn func(idx int) bool) {
	c := cellOf(x, y, g.h)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			bucket, ok := g.cells[cell{c.ix + dx, c.iy + dy}]
			if !ok {
				continue
			}
			for _, idx := range bucket {
				if !fn(idx) {
					return
				}
			}
		}
	}
}
