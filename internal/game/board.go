// File game/board.go
package game

import "fmt"

// Board owns the cells of one game together with turn order, the current
// selection and per-seat scores. Scores are maintained incrementally and
// always equal the number of cells each seat owns; seats that are not in
// the game report -1.
type Board struct {
	geo   *Geometry
	cells []CellState

	current CellState
	last    CellState

	sel    Coord
	hasSel bool

	scores [MaxSeats]int
	hash   uint64
}

// NewBoard validates cfg and returns a board with the starting pieces in
// the corners.
func NewBoard(cfg GameConfig) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	geo := newGeometry(cfg)
	b := &Board{
		geo:     geo,
		cells:   make([]CellState, geo.n),
		current: Player1,
		last:    cfg.LastPlayer(),
	}
	for s := range b.scores {
		if SeatPiece(s+1) <= b.last {
			b.scores[s] = 0
		} else {
			b.scores[s] = -1
		}
	}
	b.placeStartingPieces(cfg)
	return b, nil
}

func (b *Board) placeStartingPieces(cfg GameConfig) {
	w, h := b.geo.w, b.geo.h
	if cfg.Shape == Hexagonal {
		// The six corners of the packed columns, alternating seats.
		mid := cfg.Height - 1
		lastCol := w - 1
		b.put(0, b.geo.offset[0], Player2)
		b.put(0, b.geo.offset[0]+b.geo.length[0]-1, Player1)
		b.put(mid, 0, Player1)
		b.put(mid, b.geo.length[mid]-1, Player2)
		b.put(lastCol, 0, Player2)
		b.put(lastCol, b.geo.length[lastCol]-1, Player1)
		return
	}
	if cfg.NumPlayers() == 4 {
		b.put(0, 0, Player3)
		b.put(w-1, h-1, Player2)
		b.put(0, h-1, Player1)
		b.put(w-1, 0, Player4)
		return
	}
	b.put(0, 0, Player2)
	b.put(w-1, h-1, Player2)
	b.put(0, h-1, Player1)
	b.put(w-1, 0, Player1)
}

// put writes a cell without the capture pass.
func (b *Board) put(x, y int, p CellState) {
	if i, ok := b.geo.index(x, y); ok {
		b.setI(i, p)
	}
}

// setI writes one cell and keeps hash and scores in sync.
func (b *Board) setI(i int, s CellState) {
	prev := b.cells[i]
	if prev == s {
		return
	}
	b.hash ^= b.geo.keys[i][prev]
	b.cells[i] = s
	b.hash ^= b.geo.keys[i][s]
	if prev.IsPlayer() {
		b.scores[prev-1]--
	}
	if s.IsPlayer() {
		b.scores[s-1]++
	}
}

// Geometry exposes the immutable board shape.
func (b *Board) Geometry() *Geometry { return b.geo }

// Width and Height are the bounding-square extents.
func (b *Board) Width() int  { return b.geo.w }
func (b *Board) Height() int { return b.geo.h }

// Shape returns the layout of the board.
func (b *Board) Shape() Shape { return b.geo.shape }

// PieceAt returns OutOfBounds for anything outside a column's footprint.
func (b *Board) PieceAt(x, y int) CellState {
	i, ok := b.geo.index(x, y)
	if !ok {
		return OutOfBounds
	}
	return b.cells[i]
}

// Cell reads a flat index.
func (b *Board) Cell(i int) CellState { return b.cells[i] }

// At is PieceAt for a Coord.
func (b *Board) At(c Coord) CellState { return b.PieceAt(c.X, c.Y) }

// SetPieceAt writes a cell. Writing a seat captures every enemy piece at
// clone distance from (x, y); writing Empty only removes the old owner's
// piece. Positions off the board and seats not in the game are ignored.
func (b *Board) SetPieceAt(x, y int, p CellState) {
	i, ok := b.geo.index(x, y)
	if !ok {
		return
	}
	if p != Empty && !b.active(p) {
		return
	}
	if p != Empty {
		for _, j := range b.geo.near[i] {
			if c := b.cells[j]; c.IsPlayer() && c != p {
				b.setI(int(j), p)
			}
		}
	}
	b.setI(i, p)
	if debugInvariants {
		if err := b.CheckScores(); err != nil {
			panic(err)
		}
	}
}

func (b *Board) active(p CellState) bool {
	return p.IsPlayer() && p <= b.last
}

// Classify returns the move distance between two cells of this board.
func (b *Board) Classify(ax, ay, bx, by int) Distance {
	return b.geo.Classify(ax, ay, bx, by)
}

// Player is the seat to move.
func (b *Board) Player() CellState { return b.current }

// LastPlayer is the highest active seat.
func (b *Board) LastPlayer() CellState { return b.last }

// NumPlayers is the number of active seats.
func (b *Board) NumPlayers() int { return int(b.last) }

// NextPlayer advances the turn cyclically and returns the new seat. It does
// not check whether that seat can move.
func (b *Board) NextPlayer() CellState {
	if b.current >= b.last {
		b.current = Player1
	} else {
		b.current++
	}
	return b.current
}

// SelectedSquare returns the highlighted cell, if any.
func (b *Board) SelectedSquare() (Coord, bool) {
	return b.sel, b.hasSel
}

// SetSelectedSquare highlights (x, y); off-board positions are ignored.
func (b *Board) SetSelectedSquare(x, y int) {
	if !b.geo.InBounds(x, y) {
		return
	}
	b.sel = Coord{X: x, Y: y}
	b.hasSel = true
}

// ClearSelection removes the highlight.
func (b *Board) ClearSelection() {
	b.sel = Coord{}
	b.hasSel = false
}

// Scores returns the four seat scores; absent seats report -1.
func (b *Board) Scores() [MaxSeats]int { return b.scores }

// Score returns the score of one seat, -1 when it is not playing.
func (b *Board) Score(p CellState) int {
	if !p.IsPlayer() {
		return -1
	}
	return b.scores[p-1]
}

// Hash is the Zobrist hash of the cell contents.
func (b *Board) Hash() uint64 { return b.hash }

// CountPieces counts the cells owned by pl by scanning the board.
func (b *Board) CountPieces(pl CellState) int {
	n := 0
	for _, c := range b.cells {
		if c == pl {
			n++
		}
	}
	return n
}

// EmptyCells counts cells nobody owns yet.
func (b *Board) EmptyCells() int {
	return b.CountPieces(Empty)
}

// CheckScores verifies the incremental scores against a full scan.
func (b *Board) CheckScores() error {
	for s := range b.scores {
		p := SeatPiece(s + 1)
		if !b.active(p) {
			if b.scores[s] != -1 {
				return fmt.Errorf("seat %d is not playing but has score %d", s+1, b.scores[s])
			}
			continue
		}
		if n := b.CountPieces(p); n != b.scores[s] {
			return fmt.Errorf("seat %d score %d does not match %d owned cells", s+1, b.scores[s], n)
		}
	}
	return nil
}

// ClaimEmpty hands every empty cell to p without capturing and returns
// how many cells changed hands.
func (b *Board) ClaimEmpty(p CellState) int {
	if !b.active(p) {
		return 0
	}
	n := 0
	for i, c := range b.cells {
		if c == Empty {
			b.setI(i, p)
			n++
		}
	}
	return n
}

// Clone returns a deep copy sharing the immutable geometry.
func (b *Board) Clone() *Board {
	nb := *b
	nb.cells = make([]CellState, len(b.cells))
	copy(nb.cells, b.cells)
	return &nb
}

// CopyFrom overwrites b with src. Both must share a geometry.
func (b *Board) CopyFrom(src *Board) {
	cells := b.cells
	*b = *src
	if cap(cells) >= len(src.cells) {
		b.cells = cells[:len(src.cells)]
	} else {
		b.cells = make([]CellState, len(src.cells))
	}
	copy(b.cells, src.cells)
}

// Equal compares cell contents, scores and the seat to move.
func (b *Board) Equal(o *Board) bool {
	if b.geo != o.geo || b.hash != o.hash || b.current != o.current || b.scores != o.scores {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}
