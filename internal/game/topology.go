// File game/topology.go
package game

import "golang.org/x/exp/rand"

// Distance classifies how far apart two cells are in move terms.
type Distance uint8

const (
	NotAdjacent Distance = iota
	CloneDistance
	JumpDistance
)

func (d Distance) String() string {
	switch d {
	case CloneDistance:
		return "clone"
	case JumpDistance:
		return "jump"
	}
	return "none"
}

// hexAdjacency is indexed [dy+2][dx+2]. Hex cells are stored in skewed
// columns, so the six clone neighbours are (0,-1) (1,-1) (-1,0) (1,0)
// (-1,1) (0,1) and the twelve jump targets form the ring around them.
var hexAdjacency = [5][5]Distance{
	{0, 0, 2, 2, 2},
	{0, 2, 1, 1, 2},
	{2, 1, 0, 1, 2},
	{2, 1, 1, 2, 0},
	{2, 2, 2, 0, 0},
}

// zobristSeed is fixed so boards of the same geometry hash identically
// even when their geometries were built separately.
const zobristSeed = 0x1f3c_55aa_7e21_9d03

// Geometry is the immutable shape of a board. Columns are packed into one
// flat slice: column x holds length[x] cells starting at row offset[x].
// Boards copied from one another share the same *Geometry.
type Geometry struct {
	shape  Shape
	w, h   int
	offset []int
	length []int
	start  []int
	n      int

	coords []Coord
	// near holds clone-distance neighbours, reach clone and jump targets,
	// both in window order (x outer, y inner).
	near  [][]int32
	reach [][]int32
	keys  [][numStates]uint64
}

func newGeometry(cfg GameConfig) *Geometry {
	g := &Geometry{shape: cfg.Shape}
	g.w, g.h = cfg.Extents()
	g.offset = make([]int, g.w)
	g.length = make([]int, g.w)
	g.start = make([]int, g.w)

	if cfg.Shape == Hexagonal {
		// Columns grow from Width cells up to the full extent, shifting the
		// vertical offset down by one each time, then shrink again with no
		// offset. The result is a square with two opposite corners chopped.
		height := cfg.Width
		off := cfg.Height - 1
		growing := true
		for x := 0; x < g.w; x++ {
			g.offset[x] = off
			g.length[x] = height
			if growing {
				height++
				off--
				if height == g.h {
					growing = false
				}
			} else {
				height--
			}
		}
	} else {
		for x := 0; x < g.w; x++ {
			g.length[x] = g.h
		}
	}

	for x := 0; x < g.w; x++ {
		g.start[x] = g.n
		g.n += g.length[x]
	}

	g.coords = make([]Coord, g.n)
	for x := 0; x < g.w; x++ {
		for k := 0; k < g.length[x]; k++ {
			g.coords[g.start[x]+k] = Coord{X: x, Y: g.offset[x] + k}
		}
	}

	g.near = make([][]int32, g.n)
	g.reach = make([][]int32, g.n)
	for i, c := range g.coords {
		for xx := c.X - 2; xx <= c.X+2; xx++ {
			for yy := c.Y - 2; yy <= c.Y+2; yy++ {
				j, ok := g.index(xx, yy)
				if !ok {
					continue
				}
				switch g.OffsetDistance(xx-c.X, yy-c.Y) {
				case CloneDistance:
					g.near[i] = append(g.near[i], int32(j))
					g.reach[i] = append(g.reach[i], int32(j))
				case JumpDistance:
					g.reach[i] = append(g.reach[i], int32(j))
				}
			}
		}
	}

	r := rand.New(rand.NewSource(zobristSeed))
	g.keys = make([][numStates]uint64, g.n)
	for i := range g.keys {
		for s := 1; s < numStates; s++ {
			// Empty keeps a zero key so an empty board hashes to 0.
			g.keys[i][s] = r.Uint64()
		}
	}
	return g
}

// Shape returns the board layout.
func (g *Geometry) Shape() Shape { return g.shape }

// Width and Height are the bounding-square extents.
func (g *Geometry) Width() int  { return g.w }
func (g *Geometry) Height() int { return g.h }

// Cells is the number of in-bounds cells.
func (g *Geometry) Cells() int { return g.n }

// CoordOf maps a flat index back to its coordinate.
func (g *Geometry) CoordOf(i int) Coord { return g.coords[i] }

// ColumnOffset is the first valid row of column x (0 for square boards).
func (g *Geometry) ColumnOffset(x int) int {
	if x < 0 || x >= g.w {
		return 0
	}
	return g.offset[x]
}

func (g *Geometry) index(x, y int) (int, bool) {
	if x < 0 || x >= g.w {
		return 0, false
	}
	k := y - g.offset[x]
	if k < 0 || k >= g.length[x] {
		return 0, false
	}
	return g.start[x] + k, true
}

// Near lists the clone-distance neighbours of flat index i.
func (g *Geometry) Near(i int) []int32 { return g.near[i] }

// Reach lists every clone or jump target of flat index i.
func (g *Geometry) Reach(i int) []int32 { return g.reach[i] }

// Holes counts clone-distance positions around i that are off the board.
func (g *Geometry) Holes(i int) int {
	ring := 8
	if g.shape == Hexagonal {
		ring = 6
	}
	return ring - len(g.near[i])
}

// Index maps (x, y) to its flat index.
func (g *Geometry) Index(x, y int) (int, bool) { return g.index(x, y) }

// InBounds reports whether (x, y) is a real cell.
func (g *Geometry) InBounds(x, y int) bool {
	_, ok := g.index(x, y)
	return ok
}

// OffsetDistance classifies a relative offset without any bounds check.
func (g *Geometry) OffsetDistance(dx, dy int) Distance {
	if dx < -2 || dx > 2 || dy < -2 || dy > 2 || (dx == 0 && dy == 0) {
		return NotAdjacent
	}
	if g.shape == Hexagonal {
		return hexAdjacency[dy+2][dx+2]
	}
	if abs(dx) <= 1 && abs(dy) <= 1 {
		return CloneDistance
	}
	return JumpDistance
}

// Classify returns the move distance from a to b. Identical cells and any
// position that is not on the board give NotAdjacent.
func (g *Geometry) Classify(ax, ay, bx, by int) Distance {
	if !g.InBounds(ax, ay) || !g.InBounds(bx, by) {
		return NotAdjacent
	}
	return g.OffsetDistance(bx-ax, by-ay)
}

// abs returns the absolute value of x.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
